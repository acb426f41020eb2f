package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/observability"
	"github.com/tbourn/go-ideas-backend/internal/repo"
)

// ModerationService applies moderator status transitions.
type ModerationService struct {
	DB  *gorm.DB
	Now func() time.Time
}

// Transition moves idea id to target on behalf of a moderator.
//
// The moderator claim is checked before anything else. Asking for the status
// the idea already has succeeds without writing. Otherwise the move must be
// an edge of the lifecycle (pending→approved, pending→rejected,
// approved→in_progress, in_progress→completed) and is applied as a
// compare-and-set on the status read, so two racing moderators cannot both
// win with different outcomes. The loser of a race succeeds only if the
// winner produced the same target.
//
// It returns the idea's aggregate view after the call.
func (s *ModerationService) Transition(ctx context.Context, caller domain.Caller, id string, target domain.Status) (*domain.IdeaView, error) {
	ctx, span := tracer.Start(ctx, "ModerationService.Transition",
		trace.WithAttributes(
			attribute.String("idea.id", id),
			attribute.String("status.target", string(target)),
		))
	defer span.End()

	if !caller.IsModerator {
		return nil, ErrNotModerator
	}
	if !target.Valid() {
		return nil, ErrUnknownStatus
	}

	var (
		view    *domain.IdeaView
		from    domain.Status
		changed bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		idea, err := getIdea(ctx, tx, id)
		if err != nil {
			return err
		}
		from = idea.Status
		if from != target {
			if !from.CanTransitionTo(target) {
				return &Error{Kind: KindInvalidTransition, Msg: fmt.Sprintf("cannot move idea from %s to %s", from, target)}
			}
			ok, err := repo.CompareAndSetStatus(ctx, tx, id, from, target, s.now())
			if err != nil {
				return fmt.Errorf("set status: %w", err)
			}
			if !ok {
				current, err := getIdea(ctx, tx, id)
				if err != nil {
					return err
				}
				if current.Status != target {
					return &Error{Kind: KindInvalidTransition, Msg: fmt.Sprintf("idea moved to %s concurrently", current.Status)}
				}
			} else {
				changed = true
			}
		}
		view, err = repo.GetIdeaView(ctx, tx, id)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if changed {
		observability.StatusTransitions.WithLabelValues(string(from), string(target)).Inc()
	}
	return view, nil
}

func (s *ModerationService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
