// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Vote
// ledger.
//
// A user holds at most one vote row per idea. Writes are upserts keyed on
// the (idea_id, user_id) unique index, so concurrent casts by the same user
// serialize on that row and the last write wins; casts by different users
// touch different rows and never contend on a shared counter.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-ideas-backend/internal/domain"
)

// UpsertVote stores value as userID's vote on ideaID, inserting the row on
// first cast and overwriting it afterwards.
func UpsertVote(ctx context.Context, db *gorm.DB, ideaID, userID string, value int, now time.Time) error {
	v := &domain.Vote{
		ID:        uuid.NewString(),
		IdeaID:    ideaID,
		UserID:    userID,
		Value:     value,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	return db.WithContext(ctx).
		Omit("Idea").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idea_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(v).Error
}

// GetVote returns userID's current value on ideaID, or 0 when the user has
// never voted.
func GetVote(ctx context.Context, db *gorm.DB, ideaID, userID string) (int, error) {
	var v domain.Vote
	err := db.WithContext(ctx).
		Where("idea_id = ? AND user_id = ?", ideaID, userID).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v.Value, nil
}

// VoteTally returns the sum of every vote value on ideaID.
func VoteTally(ctx context.Context, db *gorm.DB, ideaID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Vote{}).
		Select("COALESCE(SUM(value), 0)").
		Where("idea_id = ?", ideaID).
		Scan(&total).Error
	return total, err
}

// VoteTallies returns the vote sum of each idea in ideaIDs. Ideas without
// votes are absent from the map.
func VoteTallies(ctx context.Context, db *gorm.DB, ideaIDs []string) (map[string]int64, error) {
	return sumByIdea(ctx, db, &domain.Vote{}, "COALESCE(SUM(value), 0)", ideaIDs)
}

// sumByIdea runs `SELECT idea_id, <expr> ... GROUP BY idea_id` over model.
func sumByIdea(ctx context.Context, db *gorm.DB, model any, expr string, ideaIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(ideaIDs))
	if len(ideaIDs) == 0 {
		return out, nil
	}
	err := inChunks(distinct(ideaIDs), func(ids []string) error {
		var rows []struct {
			IdeaID string
			Total  int64
		}
		err := db.WithContext(ctx).
			Model(model).
			Select("idea_id, "+expr+" AS total").
			Where("idea_id IN ?", ids).
			Group("idea_id").
			Scan(&rows).Error
		if err != nil {
			return err
		}
		for _, r := range rows {
			out[r.IdeaID] = r.Total
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
