package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/observability"
	"github.com/tbourn/go-ideas-backend/internal/repo"
)

// CommentService appends and lists comments on ideas.
type CommentService struct {
	DB       *gorm.DB
	MaxRunes int
	Now      func() time.Time
}

// Add appends a plain-text comment by the caller to idea id and returns it
// with the author's display fields. The text is stored as typed after
// trimming; it must be valid UTF-8, non-empty and within MaxRunes.
func (s *CommentService) Add(ctx context.Context, caller domain.Caller, id, text string) (*domain.CommentView, error) {
	ctx, span := tracer.Start(ctx, "CommentService.Add",
		trace.WithAttributes(attribute.String("idea.id", id), attribute.String("user.id", caller.UserID)))
	defer span.End()

	if caller.Anonymous() {
		return nil, ErrAuthRequired
	}
	if err := checkText(text); err != nil {
		return nil, err
	}
	text = normalizeBody(text)
	if text == "" {
		return nil, ErrEmptyComment
	}
	if tooLong(text, s.MaxRunes) {
		return nil, ErrCommentTooLong
	}

	var out *domain.CommentView
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		idea, err := getVisibleIdea(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if !engageable(idea.Status) {
			return ErrNotCommentable
		}
		now := s.now()
		if err := repo.EnsureProfile(ctx, tx, caller.UserID, caller.Username, now); err != nil {
			return fmt.Errorf("ensure profile: %w", err)
		}
		c, err := repo.CreateComment(ctx, tx, id, caller.UserID, text, now)
		if err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		views, err := withAuthors(ctx, tx, []domain.Comment{*c})
		if err != nil {
			return err
		}
		out = &views[0]
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	observability.CommentsAdded.Inc()
	return out, nil
}

// List returns every comment on idea id, oldest first with ties broken by
// comment id. Each call re-reads the store.
func (s *CommentService) List(ctx context.Context, caller domain.Caller, id string) ([]domain.CommentView, error) {
	ctx, span := tracer.Start(ctx, "CommentService.List",
		trace.WithAttributes(attribute.String("idea.id", id)))
	defer span.End()

	var out []domain.CommentView
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getVisibleIdea(ctx, tx, caller, id); err != nil {
			return err
		}
		rows, err := repo.ListComments(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("list comments: %w", err)
		}
		out, err = withAuthors(ctx, tx, rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one comment if the caller may see its idea. It backs
// idempotent replays of Add.
func (s *CommentService) Get(ctx context.Context, caller domain.Caller, commentID string) (*domain.CommentView, error) {
	var out *domain.CommentView
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.GetComment(ctx, tx, commentID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCommentNotFound
		}
		if err != nil {
			return fmt.Errorf("load comment: %w", err)
		}
		if _, err := getVisibleIdea(ctx, tx, caller, c.IdeaID); err != nil {
			return err
		}
		views, err := withAuthors(ctx, tx, []domain.Comment{*c})
		if err != nil {
			return err
		}
		out = &views[0]
		return nil
	})
	return out, err
}

func withAuthors(ctx context.Context, tx *gorm.DB, rows []domain.Comment) ([]domain.CommentView, error) {
	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.UserID]; !ok {
			seen[r.UserID] = struct{}{}
			ids = append(ids, r.UserID)
		}
	}
	authors, err := repo.AuthorsByID(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	out := make([]domain.CommentView, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.CommentView{
			ID:        r.ID,
			IdeaID:    r.IdeaID,
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
			Author:    authors[r.UserID],
		})
	}
	return out, nil
}

func (s *CommentService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
