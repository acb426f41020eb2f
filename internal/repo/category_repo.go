package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-ideas-backend/internal/domain"
)

// AddIdeaCategories tags ideaID with every id in ids. Duplicates must be
// removed by the caller; the composite primary key rejects them.
func AddIdeaCategories(ctx context.Context, db *gorm.DB, ideaID string, ids []domain.CategoryID) error {
	if len(ids) == 0 {
		return nil
	}
	rows := make([]domain.IdeaCategory, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, domain.IdeaCategory{IdeaID: ideaID, CategoryID: id})
	}
	return db.WithContext(ctx).Omit("Idea", "Category").Create(&rows).Error
}

// ReplaceIdeaCategories swaps the tag set of ideaID for ids. Run it inside a
// transaction; otherwise a failure between the delete and the insert leaves
// the idea untagged.
func ReplaceIdeaCategories(ctx context.Context, db *gorm.DB, ideaID string, ids []domain.CategoryID) error {
	if err := db.WithContext(ctx).Where("idea_id = ?", ideaID).Delete(&domain.IdeaCategory{}).Error; err != nil {
		return err
	}
	return AddIdeaCategories(ctx, db, ideaID, ids)
}

// CategoriesForIdeas returns the categories of each idea in ideaIDs, keyed
// by idea id and ordered by category name.
func CategoriesForIdeas(ctx context.Context, db *gorm.DB, ideaIDs []string) (map[string][]domain.Category, error) {
	out := make(map[string][]domain.Category, len(ideaIDs))
	if len(ideaIDs) == 0 {
		return out, nil
	}
	// an idea's tags all land in the chunk holding its id, so per-idea
	// order survives batching
	err := inChunks(distinct(ideaIDs), func(ids []string) error {
		var rows []struct {
			IdeaID      string
			ID          domain.CategoryID
			Name        string
			Description string
			IconName    string
		}
		err := db.WithContext(ctx).
			Table("idea_categories").
			Select("idea_categories.idea_id, categories.id, categories.name, categories.description, categories.icon_name").
			Joins("JOIN categories ON categories.id = idea_categories.category_id").
			Where("idea_categories.idea_id IN ?", ids).
			Order("categories.name ASC").
			Scan(&rows).Error
		if err != nil {
			return err
		}
		for _, r := range rows {
			out[r.IdeaID] = append(out[r.IdeaID], domain.Category{
				ID:          r.ID,
				Name:        r.Name,
				Description: r.Description,
				IconName:    r.IconName,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
