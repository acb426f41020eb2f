package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tbourn/go-ideas-backend/internal/domain"
)

func TestAddComment_StoresTextAsTypedAndAttributes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.submit(t, alice, "Reading corner")
	f.approve(t, v.ID)

	c, err := f.comments.Add(ctx, bob, v.ID, "  Love it &amp; <b>more</b>\r\n\r\n\r\n\r\nplease ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.Content != "Love it &amp; <b>more</b>\n\nplease" {
		t.Fatalf("content = %q", c.Content)
	}
	if c.Author.UserID != "bob" || c.Author.Username != "Bob" {
		t.Fatalf("author = %+v", c.Author)
	}

	got, err := f.comments.Get(ctx, anon, c.ID)
	if err != nil || got.Content != c.Content {
		t.Fatalf("get = %+v, %v", got, err)
	}
}

func TestAddComment_AngleBracketsRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.submit(t, alice, "Typed collections")

	for _, text := range []string{"a<b>c", "use Option<T> here", "<not markup>", "if a<b and c>d then x", "Tom & Jerry"} {
		c, err := f.comments.Add(ctx, alice, v.ID, " "+text+"\n")
		if err != nil {
			t.Fatalf("add %q: %v", text, err)
		}
		if c.Content != text {
			t.Fatalf("add %q stored %q", text, c.Content)
		}
	}

	list, err := f.comments.List(ctx, alice, v.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 5 || list[0].Content != "a<b>c" || list[2].Content != "<not markup>" {
		t.Fatalf("list = %+v", list)
	}
}

func TestAddComment_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.submit(t, alice, "pending")
	rejected := f.submit(t, alice, "rejected")
	if _, err := f.mod.Transition(ctx, mod, rejected.ID, domain.StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	cases := []struct {
		name   string
		caller domain.Caller
		id     string
		text   string
		want   error
	}{
		{"anonymous", anon, pending.ID, "hi", ErrAuthRequired},
		{"empty", alice, pending.ID, "  \n ", ErrEmptyComment},
		{"whitespace only", alice, pending.ID, "\r\n\t ", ErrEmptyComment},
		{"invalid utf-8", alice, pending.ID, "ok \xff", ErrInvalidText},
		{"too long", alice, pending.ID, strings.Repeat("a", 2001), ErrCommentTooLong},
		{"missing", alice, "missing", "hi", ErrIdeaNotFound},
		{"hidden", bob, pending.ID, "hi", ErrIdeaHidden},
		{"rejected", alice, rejected.ID, "hi", ErrNotCommentable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.comments.Add(ctx, tc.caller, tc.id, tc.text); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestListComments_OldestFirstAndVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.submit(t, alice, "Car-free Sunday")

	if _, err := f.comments.Add(ctx, alice, v.ID, "first"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.comments.Add(ctx, mod, v.ID, "second"); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := f.comments.List(ctx, bob, v.ID); !errors.Is(err, ErrIdeaHidden) {
		t.Fatalf("bob list pending: %v", err)
	}
	f.approve(t, v.ID)
	if _, err := f.comments.Add(ctx, bob, v.ID, "third"); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := f.comments.List(ctx, anon, v.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("got %d comments", len(got))
	}
	for i := range want {
		if got[i].Content != want[i] {
			t.Fatalf("order[%d] = %q, want %q", i, got[i].Content, want[i])
		}
	}
	if got[1].Author.Username != "Mo" {
		t.Fatalf("moderator author = %+v", got[1].Author)
	}

	if _, err := f.comments.Get(ctx, anon, "missing"); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("get missing: %v", err)
	}
}
