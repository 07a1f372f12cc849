package application

import (
	"time"

	"github.com/google/uuid"
)

// SubmitRequest for POST /applications
type SubmitRequest struct {
	Nickname   string `json:"nickname" validate:"notblank,max=50"`
	Age        int    `json:"age" validate:"gte=13,lte=99"`
	Hours      int    `json:"hours" validate:"gte=0,lte=168"`
	Experience string `json:"experience" validate:"max=2000"`
	Reason     string `json:"reason" validate:"notblank,max=2000"`
	Contact    string `json:"contact" validate:"notblank,max=200"`
}

// Profile converts the request into the submitted profile
func (r *SubmitRequest) Profile() Profile {
	return Profile{
		Nickname:   r.Nickname,
		Age:        r.Age,
		Hours:      r.Hours,
		Experience: r.Experience,
		Reason:     r.Reason,
		Contact:    r.Contact,
	}
}

// ApproveRequest for POST /applications/{id}/approve
type ApproveRequest struct {
	Role string `json:"role" validate:"required,forum_role"`
}

// RejectRequest for POST /applications/{id}/reject
type RejectRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// ApplicationResponse represents application in API
type ApplicationResponse struct {
	ID              uuid.UUID  `json:"id"`
	ApplicantID     uuid.UUID  `json:"applicant_id"`
	Nickname        string     `json:"nickname"`
	Age             int        `json:"age"`
	Hours           int        `json:"hours"`
	Experience      *string    `json:"experience,omitempty"`
	Reason          string     `json:"reason"`
	Contact         string     `json:"contact"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	GrantedRole     *string    `json:"granted_role,omitempty"`
	ReviewedBy      *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt      *string    `json:"reviewed_at,omitempty"`
	CreatedAt       string     `json:"created_at"`
}

// ApplicationResponseFromEntity converts entity to response
func ApplicationResponseFromEntity(a *Application) *ApplicationResponse {
	resp := &ApplicationResponse{
		ID:          a.ID,
		ApplicantID: a.ApplicantID,
		Nickname:    a.Nickname,
		Age:         a.Age,
		Hours:       a.Hours,
		Reason:      a.Reason,
		Contact:     a.Contact,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
	if a.Experience.Valid {
		resp.Experience = &a.Experience.String
	}
	if a.RejectionReason.Valid {
		resp.RejectionReason = &a.RejectionReason.String
	}
	if a.GrantedRole.Valid {
		resp.GrantedRole = &a.GrantedRole.String
	}
	if a.ReviewedBy.Valid {
		id := a.ReviewedBy.UUID
		resp.ReviewedBy = &id
	}
	if a.ReviewedAt.Valid {
		at := a.ReviewedAt.Time.Format(time.RFC3339)
		resp.ReviewedAt = &at
	}
	return resp
}

// ApplicationResponses converts a slice of entities
func ApplicationResponses(apps []*Application) []*ApplicationResponse {
	out := make([]*ApplicationResponse, len(apps))
	for i, a := range apps {
		out[i] = ApplicationResponseFromEntity(a)
	}
	return out
}

// CountResponse for GET /applications/count
type CountResponse struct {
	Pending int `json:"pending"`
}
