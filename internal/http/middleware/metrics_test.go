package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RouteLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/ideas/:id", func(c *gin.Context) { c.String(http.StatusOK, "idea") })
	r.DELETE("/ideas/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseGet := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ideas/:id", "200"))
	baseDel := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", "/ideas/:id", "204"))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404"))

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/ideas/a", http.StatusOK},
		{http.MethodGet, "/ideas/b", http.StatusOK},
		{http.MethodDelete, "/ideas/a", http.StatusNoContent},
		{http.MethodGet, "/wp-admin.php", http.StatusNotFound},
		{http.MethodGet, "/.env", http.StatusNotFound},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.want {
			t.Fatalf("%s %s -> %d, want %d", tc.method, tc.path, w.Code, tc.want)
		}
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ideas/:id", "200")); got != baseGet+2 {
		t.Fatalf("GET /ideas/:id 200 = %v; want %v", got, baseGet+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", "/ideas/:id", "204")); got != baseDel+1 {
		t.Fatalf("DELETE /ideas/:id 204 = %v; want %v", got, baseDel+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404")); got != baseMiss+2 {
		t.Fatalf("unmatched 404 = %v; want %v", got, baseMiss+2)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}
