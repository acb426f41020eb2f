// Package domain defines the persistence models for ideas, votes, comments,
// categories, and author profiles. These types are mapped with GORM and form
// the core data layer of the ideas board.
package domain

import "time"

// Idea is a community proposal owned by its submitter. Every idea starts
// in StatusPending and only moves forward through the moderation lifecycle.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the submitter; indexed for "my ideas" listings.
//   - Title / Description: free text, normalized by the service layer.
//   - Status: one of the closed Status values (enforced by DB constraint).
//   - CreatedAt / UpdatedAt: UTC timestamps assigned by the service layer.
//
// Ideas are hard-deleted; the owner may only do so while pending.
type Idea struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_idea_owner"`
	Title       string    `json:"title"       gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Status      Status    `json:"status"      gorm:"type:varchar(16);not null;default:'pending';index:idx_idea_status_created,priority:1;check:status IN ('pending','approved','rejected','in_progress','completed')"`
	CreatedAt   time.Time `json:"created_at"  gorm:"index:idx_idea_status_created,priority:2"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Idea.
func (Idea) TableName() string { return "ideas" }

// Category is a row mirrored from the category catalog so that idea tags
// can reference it with a real foreign key.
type Category struct {
	ID          CategoryID `json:"id"          gorm:"type:varchar(64);primaryKey"`
	Name        string     `json:"name"        gorm:"type:varchar(128);not null"`
	Description string     `json:"description" gorm:"type:text"`
	IconName    string     `json:"icon_name"   gorm:"type:varchar(64)"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// IdeaCategory tags an idea with a category. The composite primary key
// rules out duplicate (idea, category) pairs.
type IdeaCategory struct {
	IdeaID     string     `json:"idea_id"     gorm:"type:char(36);primaryKey"`
	CategoryID CategoryID `json:"category_id" gorm:"type:varchar(64);primaryKey;index:idx_idea_categories_category"`

	Idea     Idea     `json:"-" gorm:"foreignKey:IdeaID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Category Category `json:"-" gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for IdeaCategory.
func (IdeaCategory) TableName() string { return "idea_categories" }

// Vote is a user's current stance on an idea. There is at most one row per
// (idea, user); casting again overwrites Value. A Value of 0 records a
// retracted vote and contributes nothing to the tally.
type Vote struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	IdeaID    string    `json:"idea_id"    gorm:"type:char(36);not null;index;uniqueIndex:ux_votes_idea_user"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;index;uniqueIndex:ux_votes_idea_user"`
	Value     int       `json:"value"      gorm:"not null;check:value IN (-1,0,1)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Idea Idea `json:"-" gorm:"foreignKey:IdeaID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Vote.
func (Vote) TableName() string { return "votes" }

// Comment is an append-only remark on an idea. There is no update path.
type Comment struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	IdeaID    string    `json:"idea_id"    gorm:"type:char(36);not null;index:idx_idea_comments,priority:1"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;index"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_idea_comments,priority:2"`

	Idea Idea `json:"-" gorm:"foreignKey:IdeaID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// Profile carries display attributes for a user id. Rows are created from
// the identity claim of the first write a user makes and are never edited
// here.
type Profile struct {
	ID        string    `json:"id"         gorm:"type:varchar(64);primaryKey"`
	Username  string    `json:"username"   gorm:"type:varchar(64);not null"`
	AvatarURL string    `json:"avatar_url" gorm:"type:varchar(512)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }
