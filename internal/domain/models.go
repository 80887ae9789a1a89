// Package domain defines the persistence models for roadmaps and the users
// whose credit ledger meters generation, plus the tree shape returned to
// clients. These types are mapped with GORM and form the core data layer of
// the roadmap backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Visibility controls who may view a stored roadmap.
type Visibility string

const (
	// VisibilityPublic roadmaps appear in explore listings and are readable by anyone.
	VisibilityPublic Visibility = "PUBLIC"
	// VisibilityPrivate roadmaps are readable by their author only.
	VisibilityPrivate Visibility = "PRIVATE"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Roadmap is a persisted, generated learning roadmap.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Title: the query exactly as the user typed it (display + prompt casing).
//   - NormalizedTitle: trimmed, lower-cased title used for dedup lookups.
//     Indexed but not unique: concurrent generations of the same novel query
//     may both persist.
//   - Content: JSON-serialized []Node tree.
//   - SearchCount: popularity counter bumped on every dedup hit.
//   - Visibility: PUBLIC or PRIVATE.
//   - AuthorID: identifier of the user who triggered generation.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Roadmap struct {
	ID              string         `json:"id"               gorm:"type:char(36);primaryKey"`
	Title           string         `json:"title"            gorm:"type:varchar(255);not null"`
	NormalizedTitle string         `json:"-"                gorm:"type:varchar(255);not null;index:idx_roadmap_norm_title"`
	Content         string         `json:"-"                gorm:"type:text;not null"`
	SearchCount     int64          `json:"search_count"     gorm:"not null;default:0;index:idx_roadmap_popularity,priority:2"`
	Visibility      Visibility     `json:"visibility"       gorm:"type:varchar(16);not null;default:'PUBLIC';index:idx_roadmap_popularity,priority:1;check:visibility IN ('PUBLIC','PRIVATE')"`
	AuthorID        string         `json:"author_id"        gorm:"type:varchar(64);not null;index"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-"                gorm:"index"`
}

// TableName returns the database table name for Roadmap.
func (Roadmap) TableName() string { return "roadmaps" }

// User holds the per-user credit ledger. Rows are created lazily the first
// time a user needs to be charged.
type User struct {
	ID        string    `json:"id"      gorm:"type:varchar(64);primaryKey"`
	Credits   int       `json:"credits" gorm:"not null;default:0;check:credits >= 0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }
