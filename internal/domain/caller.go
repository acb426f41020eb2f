package domain

import (
	"strings"
	"time"
)

// CategoryID is the stable slug of a catalog category (e.g. "education").
type CategoryID string

// NormalizeCategoryID lowercases and trims a category reference so that
// lookups by display name or id agree.
func NormalizeCategoryID(s string) CategoryID {
	return CategoryID(strings.ToLower(strings.TrimSpace(s)))
}

// Caller is the identity on whose behalf an operation runs. It is supplied
// by the transport layer on every call; an empty UserID means anonymous.
type Caller struct {
	UserID      string
	Username    string
	IsModerator bool
}

// Anonymous reports whether the caller carries no user id.
func (c Caller) Anonymous() bool { return strings.TrimSpace(c.UserID) == "" }

// Owns reports whether the caller is the given owner.
func (c Caller) Owns(ownerID string) bool {
	return !c.Anonymous() && c.UserID == ownerID
}

// CanSee applies the visibility rule: public statuses for everyone, every
// status for the owner and for moderators.
func (c Caller) CanSee(idea *Idea) bool {
	if idea == nil {
		return false
	}
	return idea.Status.Public() || c.IsModerator || c.Owns(idea.UserID)
}

// Author is the display projection of a user.
type Author struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// AnonymousName is shown when a user id has no profile row.
const AnonymousName = "Anonymous"

// IdeaView is the aggregate read model of an idea: the row itself plus
// live engagement counts, its categories and the owner's display fields.
type IdeaView struct {
	Idea
	VoteCount    int64      `json:"vote_count"`
	CommentCount int64      `json:"comment_count"`
	Categories   []Category `json:"categories"`
	Owner        Author     `json:"owner"`
}

// CommentView is a comment with its author's display fields.
type CommentView struct {
	ID        string    `json:"id"`
	IdeaID    string    `json:"idea_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    Author    `json:"author"`
}
