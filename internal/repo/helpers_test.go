package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-ideas-backend/internal/domain"
)

// newTestDB opens a private in-memory database. Pass migrate=false to get
// an empty schema for error-path tests.
func newTestDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	db.Exec("PRAGMA foreign_keys=ON;")
	if migrate {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
		if err := SyncCategories(context.Background(), db, []domain.Category{
			{ID: "education", Name: "education", IconName: "BookOpen"},
			{ID: "health", Name: "health", IconName: "Heart"},
		}); err != nil {
			t.Fatalf("sync categories: %v", err)
		}
	}
	return db
}

// seedIdea inserts an idea directly with the given status and creation time.
func seedIdea(t *testing.T, db *gorm.DB, id, owner string, status domain.Status, at time.Time) domain.Idea {
	t.Helper()
	i := domain.Idea{ID: id, UserID: owner, Title: "title " + id, Description: "desc " + id, Status: status, CreatedAt: at, UpdatedAt: at}
	if err := db.Create(&i).Error; err != nil {
		t.Fatalf("seed idea %s: %v", id, err)
	}
	return i
}
