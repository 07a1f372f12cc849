package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type represents notification type
type Type string

const (
	TypePostStatus  Type = "post_status" // Author: post moderated or reopened
	TypeRole        Type = "role"        // Target: role changed
	TypeApplication Type = "application" // Applicant: application decided
	TypeBan         Type = "ban"         // Target: banned or unbanned
)

// Event is a notification addressed to one user
type Event struct {
	UserID    uuid.UUID         `json:"user_id"`
	Type      Type              `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func newEvent(userID uuid.UUID, t Type, title, body string, data map[string]string) Event {
	return Event{
		UserID:    userID,
		Type:      t,
		Title:     title,
		Body:      body,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}

// PostStatusChanged notifies a post author about a moderation decision
func PostStatusChanged(authorID, postID uuid.UUID, title, status, reason string) Event {
	body := "Your post \"" + title + "\" is now " + status
	if reason != "" {
		body += ". Reason: " + reason
	}
	return newEvent(authorID, TypePostStatus, "Post status changed", body, map[string]string{
		"post_id": postID.String(),
		"status":  status,
	})
}

// RoleChanged notifies an actor about a new role
func RoleChanged(targetID uuid.UUID, oldRole, newRole string) Event {
	return newEvent(targetID, TypeRole, "Your role has changed", "Your role changed from "+oldRole+" to "+newRole, map[string]string{
		"old_role": oldRole,
		"new_role": newRole,
	})
}

// ApplicationDecided notifies an applicant about the review outcome
func ApplicationDecided(applicantID, applicationID uuid.UUID, status, grantedRole, reason string) Event {
	body := "Your staff application was " + status
	data := map[string]string{
		"application_id": applicationID.String(),
		"status":         status,
	}
	if grantedRole != "" {
		body += ", you are now " + grantedRole
		data["granted_role"] = grantedRole
	}
	if reason != "" {
		body += ". Reason: " + reason
	}
	return newEvent(applicantID, TypeApplication, "Staff application reviewed", body, data)
}

// BanChanged notifies an actor about a ban or its removal
func BanChanged(targetID uuid.UUID, banned bool, reason string) Event {
	if !banned {
		return newEvent(targetID, TypeBan, "You have been unbanned", "Your account is active again", nil)
	}
	body := "Your account has been banned"
	if reason != "" {
		body += ". Reason: " + reason
	}
	return newEvent(targetID, TypeBan, "You have been banned", body, map[string]string{"reason": reason})
}
