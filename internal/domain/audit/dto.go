package audit

import (
	"time"

	"github.com/google/uuid"
)

// EntryResponse represents an audit entry in API
type EntryResponse struct {
	ID         string     `json:"id"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	Kind       Kind       `json:"kind"`
	TargetType TargetType `json:"target_type"`
	TargetID   uuid.UUID  `json:"target_id"`
	Detail     string     `json:"detail,omitempty"`
	CreatedAt  string     `json:"created_at"`
}

// EntryResponseFromEntity converts entity to response
func EntryResponseFromEntity(e *Entry) *EntryResponse {
	resp := &EntryResponse{
		ID:         e.ID,
		Kind:       e.Kind,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Detail:     e.Detail,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
	if e.ActorID.Valid {
		id := e.ActorID.UUID
		resp.ActorID = &id
	}
	return resp
}
