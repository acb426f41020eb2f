// Package services – VoteService
//
// This file implements the vote ledger operations. Each user holds at most
// one vote row per idea; casting again overwrites it, and a value of 0 marks
// a retracted vote. The tally returned after a cast is read inside the same
// transaction as the write, so it always includes the caller's own vote.
package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/observability"
	"github.com/tbourn/go-ideas-backend/internal/repo"
)

// VoteResult is the outcome of a cast: the caller's stored value and the
// idea's new tally.
type VoteResult struct {
	IdeaID    string `json:"idea_id"`
	Value     int    `json:"value"`
	VoteCount int64  `json:"vote_count"`
}

// VoteService implements casting and reading votes.
type VoteService struct {
	DB  *gorm.DB
	Now func() time.Time
}

// Cast stores value (-1, 0 or 1) as the caller's vote on idea id and returns
// the new tally.
//
// Errors:
//   - ErrInvalidVote for values outside {-1, 0, 1}
//   - ErrAuthRequired for anonymous callers
//   - ErrIdeaNotFound when the idea does not exist
//   - ErrIdeaHidden / ErrNotVotable when the caller may not vote on it
func (s *VoteService) Cast(ctx context.Context, caller domain.Caller, id string, value int) (*VoteResult, error) {
	return s.write(ctx, "VoteService.Cast", caller, id, value, false)
}

// Toggle behaves like Cast, except that repeating the non-zero value the
// caller already holds retracts the vote (stores 0).
func (s *VoteService) Toggle(ctx context.Context, caller domain.Caller, id string, value int) (*VoteResult, error) {
	return s.write(ctx, "VoteService.Toggle", caller, id, value, true)
}

// UserVote returns the caller's current value on idea id, or 0 when the
// caller never voted or is anonymous. Absence of a vote is not an error.
func (s *VoteService) UserVote(ctx context.Context, caller domain.Caller, id string) (int, error) {
	ctx, span := tracer.Start(ctx, "VoteService.UserVote",
		trace.WithAttributes(attribute.String("idea.id", id)))
	defer span.End()

	if caller.Anonymous() {
		return 0, nil
	}
	var value int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getVisibleIdea(ctx, tx, caller, id); err != nil {
			return err
		}
		v, err := repo.GetVote(ctx, tx, id, caller.UserID)
		if err != nil {
			return fmt.Errorf("load vote: %w", err)
		}
		value = v
		return nil
	})
	return value, err
}

func (s *VoteService) write(ctx context.Context, op string, caller domain.Caller, id string, value int, toggle bool) (*VoteResult, error) {
	ctx, span := tracer.Start(ctx, op,
		trace.WithAttributes(
			attribute.String("idea.id", id),
			attribute.String("user.id", caller.UserID),
			attribute.Int("vote.value", value),
		))
	defer span.End()

	if value < -1 || value > 1 {
		return nil, ErrInvalidVote
	}
	if caller.Anonymous() {
		return nil, ErrAuthRequired
	}

	res := &VoteResult{IdeaID: id}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		idea, err := getVisibleIdea(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if !engageable(idea.Status) {
			return ErrNotVotable
		}
		stored := value
		if toggle && value != 0 {
			prev, err := repo.GetVote(ctx, tx, id, caller.UserID)
			if err != nil {
				return fmt.Errorf("load vote: %w", err)
			}
			if prev == value {
				stored = 0
			}
		}
		if err := repo.UpsertVote(ctx, tx, id, caller.UserID, stored, s.now()); err != nil {
			return fmt.Errorf("upsert vote: %w", err)
		}
		tally, err := repo.VoteTally(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("tally votes: %w", err)
		}
		res.Value = stored
		res.VoteCount = tally
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	observability.VotesCast.WithLabelValues(strconv.Itoa(res.Value)).Inc()
	return res, nil
}

func (s *VoteService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// engageable reports whether an idea visible to the caller accepts votes
// and comments. Rejected ideas are frozen; pending ones accept engagement
// from the only callers who can see them (owner and moderators).
func engageable(st domain.Status) bool {
	return st != domain.StatusRejected
}
