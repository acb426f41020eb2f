package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/repo"
)

// UserStats is the activity summary shown on a user's dashboard.
type UserStats struct {
	UserID        string                  `json:"user_id"`
	IdeasTotal    int64                   `json:"ideas_total"`
	IdeasByStatus map[domain.Status]int64 `json:"ideas_by_status"`
	// ApprovalRate is the share of decided ideas (everything past pending)
	// that were not rejected, in [0, 1]. Zero when nothing was decided yet.
	ApprovalRate float64 `json:"approval_rate"`
	// VotesCast counts the user's non-zero votes; a retracted vote (0) keeps
	// its row but is not counted.
	VotesCast    int64   `json:"votes_cast"`
	NetVotesCast int64   `json:"net_votes_cast"`
	Comments     int64   `json:"comments"`
}

// StatsService reads per-user activity counters.
type StatsService struct {
	DB *gorm.DB
}

// UserActivity summarizes userID's ideas, votes and comments. The summary
// includes pending and rejected ideas, so only the user and moderators may
// read it.
func (s *StatsService) UserActivity(ctx context.Context, caller domain.Caller, userID string) (*UserStats, error) {
	ctx, span := tracer.Start(ctx, "StatsService.UserActivity")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validationf("user id is required")
	}
	if !caller.IsModerator && !caller.Owns(userID) {
		return nil, &Error{Kind: KindForbidden, Msg: "activity is visible to its user and moderators"}
	}

	a, err := repo.UserActivityStats(ctx, s.DB, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("user stats: %w", err)
	}
	for _, st := range domain.Statuses {
		if _, ok := a.IdeasByStatus[st]; !ok {
			a.IdeasByStatus[st] = 0
		}
	}
	return &UserStats{
		UserID:        userID,
		IdeasTotal:    a.IdeasTotal,
		IdeasByStatus: a.IdeasByStatus,
		ApprovalRate:  approvalRate(a.IdeasByStatus),
		VotesCast:     a.VotesCast,
		NetVotesCast:  a.NetVotesCast,
		Comments:      a.Comments,
	}, nil
}

func approvalRate(by map[domain.Status]int64) float64 {
	decided := by[domain.StatusApproved] + by[domain.StatusInProgress] +
		by[domain.StatusCompleted] + by[domain.StatusRejected]
	if decided == 0 {
		return 0
	}
	return float64(decided-by[domain.StatusRejected]) / float64(decided)
}
