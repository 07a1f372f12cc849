package post

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteErrorInvalidCategory(t *testing.T) {
	h := NewHandler(nil)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/posts", nil)

	h.writeError(w, r, fmt.Errorf("%w: %q", ErrInvalidCategory, "rant"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}
