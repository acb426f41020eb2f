package domain

import (
	"fmt"
	"strings"
)

// Status is the moderation state of an idea. The set is closed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusInProgress, StatusCompleted}

// PublicStatuses are the statuses visible to callers that neither own the
// idea nor moderate.
var PublicStatuses = []Status{StatusApproved, StatusInProgress, StatusCompleted}

var transitions = map[Status][]Status{
	StatusPending:    {StatusApproved, StatusRejected},
	StatusApproved:   {StatusInProgress},
	StatusInProgress: {StatusCompleted},
}

// ParseStatus converts s into a Status, accepting surrounding whitespace and
// any letter case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Public reports whether ideas in this status are visible to everyone.
func (s Status) Public() bool {
	for _, v := range PublicStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// A status never transitions to itself; callers treat that as a no-op.
func (s Status) CanTransitionTo(next Status) bool {
	for _, v := range transitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }
