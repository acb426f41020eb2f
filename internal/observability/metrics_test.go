package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDomainCounters_Registered(t *testing.T) {
	before := testutil.ToFloat64(VotesCast.WithLabelValues("1"))
	VotesCast.WithLabelValues("1").Inc()
	if got := testutil.ToFloat64(VotesCast.WithLabelValues("1")); got != before+1 {
		t.Fatalf("votes counter = %v; want %v", got, before+1)
	}

	// init already registered the collector with the default registry.
	err := prometheus.Register(IdeasSubmitted)
	if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
		t.Fatalf("expected AlreadyRegisteredError, got %v", err)
	}
}
