package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. Services increment them after their transaction commits,
// so a rolled-back operation is never counted. Label sets are closed
// (vote values, lifecycle statuses) to keep cardinality bounded.
var (
	IdeasSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ideas_submitted_total",
		Help: "Ideas created by members.",
	})

	IdeasDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ideas_deleted_total",
		Help: "Pending ideas withdrawn by their owners.",
	})

	VotesCast = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idea_votes_total",
		Help: "Votes written, by stored value (-1, 0, 1).",
	}, []string{"value"})

	CommentsAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idea_comments_total",
		Help: "Comments appended to ideas.",
	})

	StatusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "idea_status_transitions_total",
		Help: "Moderation transitions applied, by source and target status.",
	}, []string{"from", "to"})
)

func init() {
	prometheus.MustRegister(IdeasSubmitted, IdeasDeleted, VotesCast, CommentsAdded, StatusTransitions)
}
