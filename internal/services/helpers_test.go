package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-ideas-backend/internal/catalog"
	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/repo"
)

var (
	alice = domain.Caller{UserID: "alice", Username: "Alice"}
	bob   = domain.Caller{UserID: "bob", Username: "Bob"}
	mod   = domain.Caller{UserID: "mod", Username: "Mo", IsModerator: true}
	anon  = domain.Caller{}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
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
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := repo.SyncCategories(context.Background(), db, catalog.Default().All()); err != nil {
		t.Fatalf("sync categories: %v", err)
	}
	return db
}

// tick returns a clock that advances one second per call.
func tick(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

type fixture struct {
	db       *gorm.DB
	ideas    *IdeaService
	votes    *VoteService
	comments *CommentService
	mod      *ModerationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	clock := tick(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	ideas := NewIdeaService(db, catalog.Default())
	ideas.Now = clock
	return &fixture{
		db:       db,
		ideas:    ideas,
		votes:    &VoteService{DB: db, Now: clock},
		comments: &CommentService{DB: db, MaxRunes: DefaultLimits.MaxCommentRunes, Now: clock},
		mod:      &ModerationService{DB: db, Now: clock},
	}
}

func (f *fixture) submit(t *testing.T, caller domain.Caller, title string, cats ...string) *domain.IdeaView {
	t.Helper()
	v, err := f.ideas.Submit(context.Background(), caller, IdeaInput{
		Title:       title,
		Description: "about " + title,
		Categories:  cats,
	})
	if err != nil {
		t.Fatalf("submit %q: %v", title, err)
	}
	return v
}

func (f *fixture) approve(t *testing.T, id string) {
	t.Helper()
	if _, err := f.mod.Transition(context.Background(), mod, id, domain.StatusApproved); err != nil {
		t.Fatalf("approve %s: %v", id, err)
	}
}
