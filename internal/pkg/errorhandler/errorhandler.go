package errorhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/forumhq/forum-api/internal/domain/permission"
	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/domain/user"
	"github.com/forumhq/forum-api/internal/pkg/database"
	"github.com/forumhq/forum-api/internal/pkg/logger"
	"github.com/forumhq/forum-api/internal/pkg/response"
)

// HandleError logs err with request context and sends a formatted error response
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := logger.FromContext(ctx).Error().
		Str("error_code", code).
		Int("status_code", status)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(message)

	response.Error(w, status, code, message)
}

// Workflow writes the response for errors shared by every moderation workflow.
// Domain handlers check their own sentinel errors first and fall back here.
func Workflow(ctx context.Context, w http.ResponseWriter, err error) {
	if reason, ok := permission.ReasonOf(err); ok {
		logger.FromContext(ctx).Debug().Str("reason", string(reason)).Msg("permission denied")
		response.PermissionDenied(w, string(reason))
		return
	}

	switch {
	case errors.Is(err, user.ErrActorNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, role.ErrUnknownRole):
		response.ValidationError(w, map[string]string{"role": "Unknown role"})
	case errors.Is(err, database.ErrConcurrentConflict):
		response.Error(w, http.StatusConflict, "CONCURRENT_CONFLICT", "The resource was changed by another request, reload and try again")
	default:
		HandleError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
	}
}
