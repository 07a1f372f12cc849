package errorhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forumhq/forum-api/internal/domain/permission"
	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/domain/user"
	"github.com/forumhq/forum-api/internal/pkg/database"
	"github.com/forumhq/forum-api/internal/pkg/response"
)

func TestWorkflowMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "denied", err: fmt.Errorf("assign: %w", permission.Denied(permission.ReasonSelfTarget)), wantStatus: http.StatusForbidden, wantCode: "PERMISSION_DENIED"},
		{name: "actor not found", err: user.ErrActorNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "unknown role", err: fmt.Errorf("%w: %q", role.ErrUnknownRole, "owner"), wantStatus: http.StatusUnprocessableEntity, wantCode: "VALIDATION_ERROR"},
		{name: "conflict", err: database.ErrConcurrentConflict, wantStatus: http.StatusConflict, wantCode: "CONCURRENT_CONFLICT"},
		{name: "store failure", err: errors.New("connection refused"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Workflow(context.Background(), rec, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			var body response.Response
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error == nil || body.Error.Code != tc.wantCode {
				t.Fatalf("expected code %s, got %+v", tc.wantCode, body.Error)
			}
		})
	}
}

func TestWorkflowDeniedCarriesReason(t *testing.T) {
	rec := httptest.NewRecorder()
	Workflow(context.Background(), rec, permission.Denied(permission.ReasonProtectedRole))

	var body response.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Details["reason"] != string(permission.ReasonProtectedRole) {
		t.Fatalf("expected protected_role reason, got %v", body.Error.Details)
	}
}
