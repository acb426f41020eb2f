package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-ideas-backend/internal/domain"
)

// CreateComment appends a comment by userID to ideaID.
func CreateComment(ctx context.Context, db *gorm.DB, ideaID, userID, content string, now time.Time) (*domain.Comment, error) {
	c := &domain.Comment{
		ID:        uuid.NewString(),
		IdeaID:    ideaID,
		UserID:    userID,
		Content:   content,
		CreatedAt: now.UTC(),
	}
	if err := db.WithContext(ctx).Omit("Idea").Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetComment fetches one comment by id, or ErrNotFound.
func GetComment(ctx context.Context, db *gorm.DB, id string) (*domain.Comment, error) {
	var c domain.Comment
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListComments returns every comment on ideaID, oldest first; ties on
// created_at are broken by id so the order is total.
func ListComments(ctx context.Context, db *gorm.DB, ideaID string) ([]domain.Comment, error) {
	var out []domain.Comment
	err := db.WithContext(ctx).
		Where("idea_id = ?", ideaID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CommentCounts returns the comment count of each idea in ideaIDs. Ideas
// without comments are absent from the map.
func CommentCounts(ctx context.Context, db *gorm.DB, ideaIDs []string) (map[string]int64, error) {
	return sumByIdea(ctx, db, &domain.Comment{}, "COUNT(*)", ideaIDs)
}
