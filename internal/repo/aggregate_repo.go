// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file assembles the idea aggregate read model.
//
// Aggregates are computed on read from the source tables: one query selects
// the idea rows the viewer may see, and grouped queries add vote sums,
// comment counts, categories and owner profiles for exactly those ids, in
// batches of at most maxInParams ids per statement. No
// derived value is ever stored, so an aggregate always equals a live
// recomputation. Callers that need a consistent snapshot across the queries
// run ListIdeaViews inside a transaction.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-ideas-backend/internal/domain"
)

// ViewFilter narrows the idea rows an aggregate query reads.
//
// Viewer always applies: moderators read every status, signed-in users read
// public statuses plus their own ideas, anonymous viewers read public
// statuses only. Status and OwnerID narrow further and can never widen what
// Viewer allows.
type ViewFilter struct {
	Viewer  domain.Caller
	IDs     []string        // restrict to these idea ids
	Status  []domain.Status // restrict to these statuses
	OwnerID string          // restrict to ideas owned by this user
}

// ListIdeaViews returns the aggregate rows matching f in no particular
// order; ordering is the ranking layer's job.
func ListIdeaViews(ctx context.Context, db *gorm.DB, f ViewFilter) ([]domain.IdeaView, error) {
	query := func() *gorm.DB {
		q := scopeVisible(db.WithContext(ctx).Model(&domain.Idea{}), f.Viewer)
		if len(f.Status) > 0 {
			q = q.Where("status IN ?", f.Status)
		}
		if f.OwnerID != "" {
			q = q.Where("user_id = ?", f.OwnerID)
		}
		return q
	}

	var ideas []domain.Idea
	if f.IDs == nil {
		if err := query().Find(&ideas).Error; err != nil {
			return nil, err
		}
		return assembleViews(ctx, db, ideas)
	}
	err := inChunks(distinct(f.IDs), func(ids []string) error {
		var part []domain.Idea
		if err := query().Where("id IN ?", ids).Find(&part).Error; err != nil {
			return err
		}
		ideas = append(ideas, part...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assembleViews(ctx, db, ideas)
}

// GetIdeaView returns the aggregate of one idea regardless of visibility,
// or ErrNotFound. Visibility checks belong to the caller.
func GetIdeaView(ctx context.Context, db *gorm.DB, id string) (*domain.IdeaView, error) {
	idea, err := GetIdea(ctx, db, id)
	if err != nil {
		return nil, err
	}
	views, err := assembleViews(ctx, db, []domain.Idea{*idea})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func scopeVisible(q *gorm.DB, viewer domain.Caller) *gorm.DB {
	switch {
	case viewer.IsModerator:
		return q
	case viewer.Anonymous():
		return q.Where("status IN ?", domain.PublicStatuses)
	default:
		return q.Where("(status IN ? OR user_id = ?)", domain.PublicStatuses, viewer.UserID)
	}
}

func assembleViews(ctx context.Context, db *gorm.DB, ideas []domain.Idea) ([]domain.IdeaView, error) {
	out := make([]domain.IdeaView, 0, len(ideas))
	if len(ideas) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(ideas))
	owners := make([]string, 0, len(ideas))
	seenOwner := make(map[string]struct{}, len(ideas))
	for _, i := range ideas {
		ids = append(ids, i.ID)
		if _, ok := seenOwner[i.UserID]; !ok {
			seenOwner[i.UserID] = struct{}{}
			owners = append(owners, i.UserID)
		}
	}

	votes, err := VoteTallies(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	comments, err := CommentCounts(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	cats, err := CategoriesForIdeas(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	authors, err := AuthorsByID(ctx, db, owners)
	if err != nil {
		return nil, err
	}

	for _, i := range ideas {
		c := cats[i.ID]
		if c == nil {
			c = []domain.Category{}
		}
		out = append(out, domain.IdeaView{
			Idea:         i,
			VoteCount:    votes[i.ID],
			CommentCount: comments[i.ID],
			Categories:   c,
			Owner:        authors[i.UserID],
		})
	}
	return out, nil
}

// maxInParams caps the ids bound into one IN list. SQLite refuses more than
// 32766 host parameters per statement and PostgreSQL more than 65535.
var maxInParams = 500

// inChunks calls fn with consecutive slices of ids, each at most
// maxInParams long, and stops at the first error.
func inChunks(ids []string, fn func(ids []string) error) error {
	for len(ids) > 0 {
		n := min(len(ids), maxInParams)
		if err := fn(ids[:n]); err != nil {
			return err
		}
		ids = ids[n:]
	}
	return nil
}

// distinct returns ids without repeats, keeping first occurrences in order.
func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
