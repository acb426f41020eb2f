package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-ideas-backend/internal/catalog"
	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/http/middleware"
	"github.com/tbourn/go-ideas-backend/internal/repo"
	"github.com/tbourn/go-ideas-backend/internal/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
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

// testAPI is the API mounted on real services over an in-memory store, with
// the identity and idempotency middleware the router installs.
type testAPI struct {
	t  *testing.T
	r  *gin.Engine
	db *gorm.DB
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	clock := tick(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	cat := catalog.Default()

	ideas := services.NewIdeaService(db, cat)
	ideas.Now = clock
	h := New(Services{
		Ideas:       ideas,
		Votes:       &services.VoteService{DB: db, Now: clock},
		Comments:    &services.CommentService{DB: db, MaxRunes: 50, Now: clock},
		Moderation:  &services.ModerationService{DB: db, Now: clock},
		Stats:       &services.StatsService{DB: db},
		Idempotency: &services.IdempotencyService{DB: db},
		Categories:  cat,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identity(), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	api := r.Group("/api/v1")
	api.GET("/categories", h.ListCategories)
	api.GET("/ideas", h.ListIdeas)
	api.GET("/ideas/:id", h.GetIdea)
	api.GET("/ideas/:id/vote", h.GetUserVote)
	api.GET("/ideas/:id/comments", h.ListComments)
	w := api.Group("", middleware.RequireUser())
	w.POST("/ideas", h.SubmitIdea)
	w.PUT("/ideas/:id", h.EditIdea)
	w.DELETE("/ideas/:id", h.DeleteIdea)
	w.POST("/ideas/:id/status", h.TransitionIdea)
	w.PUT("/ideas/:id/vote", h.CastVote)
	w.POST("/ideas/:id/comments", h.AddComment)
	w.GET("/users/:id/stats", h.UserStats)

	return &testAPI{t: t, r: r, db: db}
}

// who selects the identity headers of a request.
type who struct {
	id, name string
	mod      bool
}

var (
	asAlice = who{id: "alice", name: "Alice"}
	asBob   = who{id: "bob", name: "Bob"}
	asMod   = who{id: "mod", name: "Mo", mod: true}
	asAnon  = who{}
)

func (a *testAPI) do(method, path string, as who, body any, hdr ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as.id != "" {
		req.Header.Set(middleware.HeaderUserID, as.id)
	}
	if as.name != "" {
		req.Header.Set(middleware.HeaderUserName, as.name)
	}
	if as.mod {
		req.Header.Set(middleware.HeaderUserRole, middleware.RoleModerator)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

// submit creates an idea as `as` and returns it.
func (a *testAPI) submit(as who, title string, cats ...string) domain.IdeaView {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/ideas", as, IdeaRequest{
		Title: title, Description: title + " description", Categories: cats,
	})
	if w.Code != http.StatusCreated {
		a.t.Fatalf("submit %q: %d %s", title, w.Code, w.Body.String())
	}
	var v domain.IdeaView
	decode(a.t, w, &v)
	return v
}

func (a *testAPI) setStatus(id string, st domain.Status) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/ideas/"+id+"/status", asMod, StatusRequest{Status: string(st)})
	if w.Code != http.StatusOK {
		a.t.Fatalf("set status %s: %d %s", st, w.Code, w.Body.String())
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

// wantError asserts the status and envelope code of an error response.
func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	var er ErrorResponse
	decode(t, w, &er)
	if er.Code != code {
		t.Fatalf("code = %q, want %q (message %q)", er.Code, code, er.Message)
	}
	if er.RequestID == "" {
		t.Fatalf("missing request_id in %s", w.Body.String())
	}
}
