// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Idea model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: persistence and query composition only. Ownership, visibility and
// lifecycle rules live in the services package.
//
// Error semantics:
//   - A missing idea is reported as ErrNotFound (gorm.ErrRecordNotFound).
//   - Conditional writes (status compare-and-set, pending-only edits and
//     deletes) report whether a row matched instead of failing, so the
//     caller can decide how to classify a lost race.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-ideas-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateIdea inserts a new pending idea owned by userID. The ID is a random
// UUID and both timestamps are set to now (UTC).
func CreateIdea(ctx context.Context, db *gorm.DB, userID, title, description string, now time.Time) (*domain.Idea, error) {
	idea := &domain.Idea{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      domain.StatusPending,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if err := db.WithContext(ctx).Create(idea).Error; err != nil {
		return nil, err
	}
	return idea, nil
}

// GetIdea fetches a single idea by id, or ErrNotFound.
func GetIdea(ctx context.Context, db *gorm.DB, id string) (*domain.Idea, error) {
	var idea domain.Idea
	if err := db.WithContext(ctx).Where("id = ?", id).First(&idea).Error; err != nil {
		return nil, err
	}
	return &idea, nil
}

// UpdatePendingIdea rewrites title and description of a pending idea owned
// by ownerID. It reports false when no row matched, which happens when the
// idea left pending concurrently.
func UpdatePendingIdea(ctx context.Context, db *gorm.DB, id, ownerID, title, description string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Idea{}).
		Where("id = ? AND user_id = ? AND status = ?", id, ownerID, domain.StatusPending).
		Updates(map[string]any{
			"title":       title,
			"description": description,
			"updated_at":  now.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CompareAndSetStatus moves an idea from status `from` to `to` only if it is
// still in `from`. It reports whether the swap happened.
func CompareAndSetStatus(ctx context.Context, db *gorm.DB, id string, from, to domain.Status, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Idea{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": now.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeletePendingIdea removes a pending idea owned by ownerID together with
// its tags, votes and comments. Children are removed explicitly so the
// result does not depend on the driver enforcing ON DELETE CASCADE.
//
// It reports false when the idea row did not match (not pending anymore or
// not owned); callers running inside a transaction must then roll back so
// the child deletes are undone.
func DeletePendingIdea(ctx context.Context, db *gorm.DB, id, ownerID string) (bool, error) {
	tx := db.WithContext(ctx)
	if err := tx.Where("idea_id = ?", id).Delete(&domain.IdeaCategory{}).Error; err != nil {
		return false, err
	}
	if err := tx.Where("idea_id = ?", id).Delete(&domain.Vote{}).Error; err != nil {
		return false, err
	}
	if err := tx.Where("idea_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
		return false, err
	}
	res := tx.Where("id = ? AND user_id = ? AND status = ?", id, ownerID, domain.StatusPending).Delete(&domain.Idea{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
