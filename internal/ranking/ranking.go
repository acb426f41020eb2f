// Package ranking orders idea aggregates for listings. It is pure: it reads
// only the rows it is given, so every ranking reflects the aggregate values
// current at read time.
//
// Filtering (category, free text) always happens before ordering, and both
// policies end on the idea id so the order is total and deterministic.
package ranking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tbourn/go-ideas-backend/internal/domain"
	"github.com/tbourn/go-ideas-backend/internal/search"
)

// Policy selects the ordering of a listing.
type Policy string

const (
	// Popular orders by vote_count desc, then created_at desc, then id asc.
	Popular Policy = "popular"
	// Newest orders by created_at desc, then id asc.
	Newest Policy = "newest"
)

// DefaultPolicy is used when the caller does not pick one.
const DefaultPolicy = Popular

// ParsePolicy maps user input to a Policy. Blank input yields DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultPolicy, nil
	case Popular:
		return Popular, nil
	case Newest:
		return Newest, nil
	}
	return "", fmt.Errorf("unknown sort %q (want popular or newest)", s)
}

// Criteria narrows the rows before ranking. Zero values disable a filter.
type Criteria struct {
	Category domain.CategoryID
	Query    *search.Matcher
}

// Filter keeps the rows tagged with c.Category (when set) whose title or
// description matches c.Query (when set). The input is not modified.
func Filter(rows []domain.IdeaView, c Criteria) []domain.IdeaView {
	out := make([]domain.IdeaView, 0, len(rows))
	for _, r := range rows {
		if c.Category != "" && !hasCategory(r, c.Category) {
			continue
		}
		if !c.Query.Match(r.Title, r.Description) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort orders rows in place according to p.
func Sort(rows []domain.IdeaView, p Policy) {
	sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j], p) })
}

// Rank filters rows by c and returns them ordered by p.
func Rank(rows []domain.IdeaView, c Criteria, p Policy) []domain.IdeaView {
	out := Filter(rows, c)
	Sort(out, p)
	return out
}

func less(a, b domain.IdeaView, p Policy) bool {
	if p == Popular && a.VoteCount != b.VoteCount {
		return a.VoteCount > b.VoteCount
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

func hasCategory(r domain.IdeaView, id domain.CategoryID) bool {
	for _, c := range r.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}
