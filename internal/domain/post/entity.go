package post

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Category represents post category (matches post_category enum)
type Category string

const (
	CategoryComplaint  Category = "complaint"
	CategoryAppeal     Category = "appeal"
	CategoryQuestion   Category = "question"
	CategorySuggestion Category = "suggestion"
)

// IsValid checks if category is known
func (c Category) IsValid() bool {
	switch c {
	case CategoryComplaint, CategoryAppeal, CategoryQuestion, CategorySuggestion:
		return true
	}
	return false
}

// Status represents post moderation status (matches post_status enum)
type Status string

const (
	StatusOpen     Status = "open"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusResolved Status = "resolved"
)

// Post represents a forum post (matches posts table)
type Post struct {
	ID          uuid.UUID      `db:"id"`
	AuthorID    uuid.UUID      `db:"author_id"`
	Category    Category       `db:"category"`
	Title       string         `db:"title"`
	Content     string         `db:"content"`
	Status      Status         `db:"status"`
	Reason      sql.NullString `db:"reason"`
	IsPinned    bool           `db:"is_pinned"`
	IsHot       bool           `db:"is_hot"`
	ModeratedBy uuid.NullUUID  `db:"moderated_by"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// IsOpen returns true while the post awaits moderation
func (p *Post) IsOpen() bool {
	return p.Status == StatusOpen
}
