// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small per-user statistics queries used
// by the activity dashboard.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-ideas-backend/internal/domain"
)

// UserActivity summarizes one user's footprint.
type UserActivity struct {
	IdeasByStatus map[domain.Status]int64
	IdeasTotal    int64
	NetVotesCast  int64 // sum of the values the user has cast
	VotesCast     int64 // ideas the user currently holds a non-zero vote on
	Comments      int64
}

// UserActivityStats counts ideas per status, votes and comments authored by
// userID. Users with no activity get zero counts, not an error.
func UserActivityStats(ctx context.Context, db *gorm.DB, userID string) (UserActivity, error) {
	out := UserActivity{IdeasByStatus: make(map[domain.Status]int64, len(domain.Statuses))}

	var byStatus []struct {
		Status domain.Status
		Total  int64
	}
	if err := db.WithContext(ctx).
		Model(&domain.Idea{}).
		Select("status, COUNT(*) AS total").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return out, err
	}
	for _, r := range byStatus {
		out.IdeasByStatus[r.Status] = r.Total
		out.IdeasTotal += r.Total
	}

	var votes struct {
		Net   int64
		Count int64
	}
	if err := db.WithContext(ctx).
		Model(&domain.Vote{}).
		Select("COALESCE(SUM(value), 0) AS net, COALESCE(SUM(CASE WHEN value <> 0 THEN 1 ELSE 0 END), 0) AS count").
		Where("user_id = ?", userID).
		Scan(&votes).Error; err != nil {
		return out, err
	}
	out.NetVotesCast = votes.Net
	out.VotesCast = votes.Count

	if err := db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("user_id = ?", userID).
		Count(&out.Comments).Error; err != nil {
		return out, err
	}
	return out, nil
}
