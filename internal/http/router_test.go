package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-ideas-backend/internal/catalog"
	"github.com/tbourn/go-ideas-backend/internal/config"
	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/http/handlers"
	"github.com/tbourn/go-ideas-backend/internal/http/middleware"
	"github.com/tbourn/go-ideas-backend/internal/repo"
	"github.com/tbourn/go-ideas-backend/internal/services"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
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
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := repo.SyncCategories(context.Background(), db, catalog.Default().All()); err != nil {
		t.Fatalf("sync categories: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:         "/api/v1",
		RateRPS:             100,
		RateBurst:           100,
		MaxTitleRunes:       120,
		MaxDescriptionRunes: 5000,
		MaxCommentRunes:     2000,
		IdempotencyTTL:      time.Hour,
		OTEL:                config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, db, catalog.Default(), cfg)
	return r, db
}

type header struct{ k, v string }

func send(r http.Handler, method, path string, body any, hdrs ...header) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range hdrs {
		req.Header.Set(h.k, h.v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var (
	alice = header{middleware.HeaderUserID, "alice"}
	mod   = header{middleware.HeaderUserRole, "moderator"}
	modID = header{middleware.HeaderUserID, "mia"}
)

func TestRegisterRoutes_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := send(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("/health: %d %s", w.Code, w.Body.String())
	}

	w = send(r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("/metrics: %d", w.Code)
	}

	w = send(r, http.MethodGet, "/nope", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"code":"`+handlers.ErrCodeNotFound+`"`) {
		t.Fatalf("NoRoute: %d %s", w.Code, w.Body.String())
	}

	w = send(r, http.MethodDelete, "/health", nil)
	if w.Code != http.StatusMethodNotAllowed || !strings.Contains(w.Body.String(), handlers.ErrCodeMethodNotAllowed) {
		t.Fatalf("NoMethod: %d %s", w.Code, w.Body.String())
	}

	// swagger is off unless enabled
	if w := send(r, http.MethodGet, "/swagger/doc.json", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger disabled: %d", w.Code)
	}
}

func TestHealth_StoreDown(t *testing.T) {
	r, db := newRouter(t, testConfig())
	sqlDB, _ := db.DB()
	_ = sqlDB.Close()

	w := send(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "unavailable") {
		t.Fatalf("/health with closed store: %d %s", w.Code, w.Body.String())
	}
}

func TestSwagger_Enabled(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r, _ := newRouter(t, cfg)

	w := send(r, http.MethodGet, "/swagger/doc.json", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("doc.json: %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Ideas Board API", "/ideas/{id}/vote", "handlers.ErrorResponse"} {
		if !strings.Contains(body, want) {
			t.Fatalf("doc.json missing %q", want)
		}
	}
}

func TestCORS_AllowAll(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := send(r, http.MethodGet, "/health", nil, header{"Origin", "https://any.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("ACAO = %q, want *", got)
	}

	// preflight for a write carrying the identity headers
	w = send(r, http.MethodOptions, "/api/v1/ideas", nil,
		header{"Origin", "https://any.example"},
		header{"Access-Control-Request-Method", http.MethodPost},
		header{"Access-Control-Request-Headers", "X-User-ID,Idempotency-Key,Content-Type"},
	)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight ACAO = %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCORS_Allowlist(t *testing.T) {
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"https://ideas.example"}
	r, _ := newRouter(t, cfg)

	w := send(r, http.MethodGet, "/health", nil, header{"Origin", "https://ideas.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://ideas.example" {
		t.Fatalf("ACAO = %q", got)
	}

	w = send(r, http.MethodGet, "/health", nil, header{"Origin", "https://evil.example"})
	if w.Code != http.StatusForbidden || w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign origin: %d ACAO=%q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCorsConfig(t *testing.T) {
	c := corsConfig(nil)
	if !c.AllowAllOrigins || c.AllowCredentials {
		t.Fatalf("default config = %+v", c)
	}
	c = corsConfig([]string{"https://a.example"})
	if c.AllowAllOrigins || len(c.AllowOrigins) != 1 {
		t.Fatalf("allowlist config = %+v", c)
	}
	joined := strings.Join(c.AllowHeaders, ",")
	for _, h := range []string{middleware.HeaderUserID, middleware.HeaderUserRole, middleware.HeaderIdempotencyKey} {
		if !strings.Contains(joined, h) {
			t.Fatalf("AllowHeaders missing %s: %v", h, c.AllowHeaders)
		}
	}
	if !strings.Contains(strings.Join(c.ExposeHeaders, ","), handlers.HeaderReplayed) {
		t.Fatalf("ExposeHeaders = %v", c.ExposeHeaders)
	}
}

func TestLimitBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(16))
	r.POST("/echo", func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, string(b))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("short")))
	if w.Code != http.StatusOK || w.Body.String() != "short" {
		t.Fatalf("small body: %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body: %d", w.Code)
	}
}

func TestGroupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct{ prefix, path string }{
		{"", "/ping"},
		{"/", "/ping"},
		{"/api/v2", "/api/v2/ping"},
	} {
		r := gin.New()
		groupWithPrefix(r, tc.prefix).GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("prefix %q: GET %s = %d", tc.prefix, tc.path, w.Code)
		}
	}
}

func TestPipeline_Headers(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := send(r, http.MethodGet, "/api/v1/categories", nil, header{"X-Request-ID", "rid-123"})
	if w.Code != http.StatusOK {
		t.Fatalf("categories: %d", w.Code)
	}
	if got := w.Header().Get("X-Request-ID"); got != "rid-123" {
		t.Fatalf("X-Request-ID = %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("nosniff = %q", got)
	}
	vary := strings.Join(w.Header().Values("Vary"), ",")
	if !strings.Contains(vary, middleware.HeaderUserID) {
		t.Fatalf("Vary = %q", vary)
	}

	// writes require an identity
	w = send(r, http.MethodPost, "/api/v1/ideas", handlers.IdeaRequest{Title: "t", Description: "d"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous submit: %d", w.Code)
	}
}

func TestEndToEnd_SubmitModerateList(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	req := handlers.IdeaRequest{Title: "Bike lanes", Description: "Protected lanes on Main St.", Categories: []string{"Environment"}}
	key := header{middleware.HeaderIdempotencyKey, "submit-1"}

	w := send(r, http.MethodPost, "/api/v1/ideas", req, alice, key)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}
	var created domain.IdeaView
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("json: %v", err)
	}
	if created.Status != domain.StatusPending || w.Header().Get("Location") == "" {
		t.Fatalf("created = %+v, Location %q", created, w.Header().Get("Location"))
	}

	// a retry with the same key replays the first result
	w = send(r, http.MethodPost, "/api/v1/ideas", req, alice, key)
	var replay domain.IdeaView
	_ = json.Unmarshal(w.Body.Bytes(), &replay)
	if w.Code != http.StatusCreated || replay.ID != created.ID || w.Header().Get(handlers.HeaderReplayed) != "true" {
		t.Fatalf("replay: %d id=%s header=%q", w.Code, replay.ID, w.Header().Get(handlers.HeaderReplayed))
	}

	var list handlers.ListIdeasResponse
	w = send(r, http.MethodGet, "/api/v1/ideas", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if w.Code != http.StatusOK || len(list.Ideas) != 0 {
		t.Fatalf("pending idea listed publicly: %d %+v", w.Code, list.Ideas)
	}

	w = send(r, http.MethodPost, "/api/v1/ideas/"+created.ID+"/status", handlers.StatusRequest{Status: "approved"}, modID, mod)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", w.Code, w.Body.String())
	}

	w = send(r, http.MethodGet, "/api/v1/ideas?category=environment", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if w.Code != http.StatusOK || len(list.Ideas) != 1 || list.Ideas[0].ID != created.ID || list.Pagination.Total != 1 {
		t.Fatalf("public listing: %d %+v", w.Code, list)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.01
	cfg.RateBurst = 2
	r, _ := newRouter(t, cfg)

	for i := 0; i < 2; i++ {
		if w := send(r, http.MethodGet, "/api/v1/categories", nil, alice); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	w := send(r, http.MethodGet, "/api/v1/categories", nil, alice)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("third request: %d Retry-After=%q", w.Code, w.Header().Get("Retry-After"))
	}
	if !strings.Contains(w.Body.String(), handlers.ErrCodeRateLimited) {
		t.Fatalf("429 body = %s", w.Body.String())
	}

	// another user has their own bucket; health checks are never limited
	if w := send(r, http.MethodGet, "/api/v1/categories", nil, header{middleware.HeaderUserID, "bob"}); w.Code != http.StatusOK {
		t.Fatalf("bob: %d", w.Code)
	}
	if w := send(r, http.MethodGet, "/health", nil, alice); w.Code != http.StatusOK {
		t.Fatalf("/health limited: %d", w.Code)
	}
}

func TestIdempotencyLookup(t *testing.T) {
	svc := &services.IdempotencyService{DB: newTestDB(t), TTL: time.Hour}
	look := idempotencyLookup(svc)

	found, err := look(context.Background(), "alice", "api/v1/ideas", "k1", time.Now())
	if err != nil || found {
		t.Fatalf("empty store: %v %v", found, err)
	}
	if err := svc.Remember(context.Background(), "alice", "api/v1/ideas", "k1", "idea-1", http.StatusCreated); err != nil {
		t.Fatalf("remember: %v", err)
	}
	found, err = look(context.Background(), "alice", "api/v1/ideas", "k1", time.Now())
	if err != nil || !found {
		t.Fatalf("after remember: %v %v", found, err)
	}
	if found, _ := look(context.Background(), "bob", "api/v1/ideas", "k1", time.Now()); found {
		t.Fatalf("key leaked across users")
	}
}
