package post

import (
	"time"

	"github.com/google/uuid"
)

// CreatePostRequest for POST /posts
type CreatePostRequest struct {
	Category string `json:"category" validate:"required,oneof=complaint appeal question suggestion"`
	Title    string `json:"title" validate:"notblank,max=200"`
	Content  string `json:"content" validate:"notblank,max=20000"`
}

// RejectRequest for POST /posts/{id}/reject
type RejectRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// PostResponse represents post in API
type PostResponse struct {
	ID          uuid.UUID  `json:"id"`
	AuthorID    uuid.UUID  `json:"author_id"`
	Category    string     `json:"category"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Status      string     `json:"status"`
	Reason      *string    `json:"reason,omitempty"`
	IsPinned    bool       `json:"is_pinned"`
	IsHot       bool       `json:"is_hot"`
	ModeratedBy *uuid.UUID `json:"moderated_by,omitempty"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}

// PostResponseFromEntity converts entity to response
func PostResponseFromEntity(p *Post) *PostResponse {
	resp := &PostResponse{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Category:  string(p.Category),
		Title:     p.Title,
		Content:   p.Content,
		Status:    string(p.Status),
		IsPinned:  p.IsPinned,
		IsHot:     p.IsHot,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
	if p.Reason.Valid {
		resp.Reason = &p.Reason.String
	}
	if p.ModeratedBy.Valid {
		id := p.ModeratedBy.UUID
		resp.ModeratedBy = &id
	}
	return resp
}
