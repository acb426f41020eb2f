package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/http/middleware"
)

func TestComments_AddAndList(t *testing.T) {
	api := newTestAPI(t)
	v := api.submit(asAlice, "Repair cafe")
	api.setStatus(v.ID, domain.StatusApproved)
	path := "/api/v1/ideas/" + v.ID + "/comments"

	w := api.do(http.MethodPost, path, asBob, CommentRequest{Content: "  use Option<T> here "})
	if w.Code != http.StatusCreated {
		t.Fatalf("add: %d %s", w.Code, w.Body.String())
	}
	var cm domain.CommentView
	decode(t, w, &cm)
	if cm.Content != "use Option<T> here" || cm.IdeaID != v.ID || cm.Author.Username != "Bob" {
		t.Fatalf("comment = %+v", cm)
	}
	api.do(http.MethodPost, path, asAlice, CommentRequest{Content: "Thanks!"})

	w = api.do(http.MethodGet, path, asAnon, nil)
	var out ListCommentsResponse
	decode(t, w, &out)
	if w.Code != http.StatusOK || len(out.Comments) != 2 {
		t.Fatalf("list: %d %+v", w.Code, out)
	}
	if out.Comments[0].ID != cm.ID || out.Comments[1].Content != "Thanks!" {
		t.Fatalf("order = %+v", out.Comments)
	}

	g := api.do(http.MethodGet, "/api/v1/ideas/"+v.ID, asAnon, nil)
	var view domain.IdeaView
	decode(t, g, &view)
	if view.CommentCount != 2 {
		t.Fatalf("comment_count = %d", view.CommentCount)
	}
}

func TestComments_EmptyListIsArray(t *testing.T) {
	api := newTestAPI(t)
	v := api.submit(asAlice, "Quiet")
	w := api.do(http.MethodGet, "/api/v1/ideas/"+v.ID+"/comments", asAlice, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"comments":[]`) {
		t.Fatalf("empty list: %d %s", w.Code, w.Body.String())
	}
}

func TestComments_IdempotentReplay(t *testing.T) {
	api := newTestAPI(t)
	v := api.submit(asAlice, "Replay")
	path := "/api/v1/ideas/" + v.ID + "/comments"

	a := api.do(http.MethodPost, path, asAlice, CommentRequest{Content: "once"}, middleware.HeaderIdempotencyKey, "c-1")
	b := api.do(http.MethodPost, path, asAlice, CommentRequest{Content: "once"}, middleware.HeaderIdempotencyKey, "c-1")
	var ca, cb domain.CommentView
	decode(t, a, &ca)
	decode(t, b, &cb)
	if ca.ID == "" || ca.ID != cb.ID || b.Header().Get(HeaderReplayed) != "true" {
		t.Fatalf("replay: %+v vs %+v (header %q)", ca, cb, b.Header().Get(HeaderReplayed))
	}

	// The key is scoped to the collection: reusing it for an idea is a new request.
	w := api.do(http.MethodPost, "/api/v1/ideas", asAlice, IdeaRequest{Title: "t", Description: "d"}, middleware.HeaderIdempotencyKey, "c-1")
	if w.Code != http.StatusCreated || w.Header().Get(HeaderReplayed) != "" {
		t.Fatalf("cross-scope key replayed: %d", w.Code)
	}

	l := api.do(http.MethodGet, path, asAlice, nil)
	var out ListCommentsResponse
	decode(t, l, &out)
	if len(out.Comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(out.Comments))
	}
}

func TestComments_Rejections(t *testing.T) {
	api := newTestAPI(t)
	pending := api.submit(asAlice, "Pending")
	rejected := api.submit(asAlice, "Rejected")
	api.setStatus(rejected.ID, domain.StatusRejected)

	cases := []struct {
		name   string
		as     who
		id     string
		body   any
		status int
		code   string
	}{
		{"anonymous", asAnon, pending.ID, CommentRequest{Content: "hi"}, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"empty", asAlice, pending.ID, CommentRequest{Content: " \n\t "}, http.StatusBadRequest, ErrCodeValidation},
		{"too long", asAlice, pending.ID, CommentRequest{Content: strings.Repeat("é", 51)}, http.StatusBadRequest, ErrCodeValidation},
		{"hidden idea", asBob, pending.ID, CommentRequest{Content: "hi"}, http.StatusForbidden, ErrCodeForbidden},
		{"rejected idea", asAlice, rejected.ID, CommentRequest{Content: "hi"}, http.StatusForbidden, ErrCodeForbidden},
		{"missing idea", asAlice, "nope", CommentRequest{Content: "hi"}, http.StatusNotFound, ErrCodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wantError(t, api.do(http.MethodPost, "/api/v1/ideas/"+tc.id+"/comments", tc.as, tc.body), tc.status, tc.code)
		})
	}

	wantError(t, api.do(http.MethodGet, "/api/v1/ideas/"+pending.ID+"/comments", asBob, nil), http.StatusForbidden, ErrCodeForbidden)
}
