package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-ideas-backend/internal/domain"
)

// EnsureProfile inserts a profile row for userID if none exists. Existing
// rows are never modified. An empty username falls back to the user id.
func EnsureProfile(ctx context.Context, db *gorm.DB, userID, username string, now time.Time) error {
	username = strings.TrimSpace(username)
	if username == "" {
		username = userID
	}
	p := &domain.Profile{ID: userID, Username: username, CreatedAt: now.UTC()}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(p).Error
}

// AuthorsByID resolves display attributes for userIDs. Ids without a
// profile get the anonymous display name.
func AuthorsByID(ctx context.Context, db *gorm.DB, userIDs []string) (map[string]domain.Author, error) {
	out := make(map[string]domain.Author, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	err := inChunks(distinct(userIDs), func(ids []string) error {
		var profiles []domain.Profile
		if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
			return err
		}
		for _, p := range profiles {
			out[p.ID] = domain.Author{UserID: p.ID, Username: p.Username, AvatarURL: p.AvatarURL}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, id := range userIDs {
		if _, ok := out[id]; !ok {
			out[id] = domain.Author{UserID: id, Username: domain.AnonymousName}
		}
	}
	return out, nil
}
