package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/middleware"
)

type fakeInbox struct {
	userID string
	limit  int64
	events []Event
}

func (f *fakeInbox) Inbox(_ context.Context, userID string, limit int64) ([]Event, error) {
	f.userID, f.limit = userID, limit
	return f.events, nil
}

func TestInboxHandler(t *testing.T) {
	userID := uuid.New()
	inbox := &fakeInbox{events: []Event{RoleChanged(userID, "user", "helper")}}
	h := NewHandler(inbox)

	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if inbox.userID != userID.String() || inbox.limit != DefaultInboxSize {
		t.Fatalf("unexpected inbox query %q %d", inbox.userID, inbox.limit)
	}
	var body struct {
		Data []Event `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Type != TypeRole {
		t.Fatalf("unexpected events %+v", body.Data)
	}
}

func TestInboxHandlerRequiresUser(t *testing.T) {
	h := NewHandler(&fakeInbox{})
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
