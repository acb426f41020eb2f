package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-ideas-backend/internal/domain"
)

func TestUpsertVote_SingleRowLastValueWins(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()
	now := time.Now().UTC()
	seedIdea(t, db, "i", "owner", domain.StatusApproved, now)

	for k, v := range []int{1, -1, 0, 1, -1} {
		if err := UpsertVote(ctx, db, "i", "u1", v, now.Add(time.Duration(k)*time.Second)); err != nil {
			t.Fatalf("UpsertVote(%d): %v", v, err)
		}
	}
	var rows []domain.Vote
	if err := db.Where("idea_id = ? AND user_id = ?", "i", "u1").Find(&rows).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 || rows[0].Value != -1 {
		t.Fatalf("want one row with -1, got %+v", rows)
	}
	if !rows[0].UpdatedAt.After(rows[0].CreatedAt) {
		t.Fatalf("updated_at should advance: %+v", rows[0])
	}
	v, err := GetVote(ctx, db, "i", "u1")
	if err != nil || v != -1 {
		t.Fatalf("GetVote = %d, %v", v, err)
	}
}

func TestGetVote_ZeroWhenAbsent(t *testing.T) {
	db := newTestDB(t, true)
	v, err := GetVote(context.Background(), db, "nope", "u1")
	if err != nil || v != 0 {
		t.Fatalf("want 0,nil got %d,%v", v, err)
	}
}

func TestGetVote_ErrorWithoutTable(t *testing.T) {
	db := newTestDB(t, false)
	if _, err := GetVote(context.Background(), db, "i", "u1"); err == nil {
		t.Fatalf("expected error with no votes table")
	}
}

func TestVoteTally_SumsAllUsers(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()
	now := time.Now().UTC()
	seedIdea(t, db, "a", "owner", domain.StatusApproved, now)
	seedIdea(t, db, "b", "owner", domain.StatusApproved, now)

	votes := []struct {
		idea, user string
		v          int
	}{
		{"a", "u1", 1}, {"a", "u2", 1}, {"a", "u3", -1}, {"a", "u4", 0},
		{"b", "u1", -1},
		{"a", "u3", 1}, // u3 changes their mind
	}
	for _, x := range votes {
		if err := UpsertVote(ctx, db, x.idea, x.user, x.v, now); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}
	total, err := VoteTally(ctx, db, "a")
	if err != nil || total != 3 {
		t.Fatalf("tally(a) = %d, %v; want 3", total, err)
	}
	if total, _ := VoteTally(ctx, db, "none"); total != 0 {
		t.Fatalf("tally(none) = %d", total)
	}

	m, err := VoteTallies(ctx, db, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("VoteTallies: %v", err)
	}
	if m["a"] != 3 || m["b"] != -1 || m["c"] != 0 {
		t.Fatalf("tallies = %v", m)
	}
	if m, _ := VoteTallies(ctx, db, nil); len(m) != 0 {
		t.Fatalf("empty input should give empty map")
	}
}
