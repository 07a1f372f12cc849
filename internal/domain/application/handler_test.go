package application_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/application"
	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/middleware"
	"github.com/forumhq/forum-api/internal/pkg/response"
)

const submitBody = `{"nickname":"newbie","age":19,"hours":20,"reason":"I want to help","contact":"newbie#0001"}`

func passthrough(next http.Handler) http.Handler { return next }

func (f *fixture) router(as uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), as)))
		})
	})
	r.Mount("/applications", application.NewHandler(f.svc).Routes(passthrough))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp response.Response
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v (%s)", err, w.Body.String())
		}
	}
	return w, resp
}

func TestHandler_Submit(t *testing.T) {
	f := newFixture()
	applicant := f.actor("newbie", role.User)
	h := f.router(applicant)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "submitted", body: submitBody, wantCode: http.StatusCreated},
		{name: "second pending", body: submitBody, wantCode: http.StatusConflict, wantErr: "DUPLICATE_PENDING"},
		{name: "too young", body: `{"nickname":"kid","age":9,"hours":1,"reason":"x","contact":"y"}`, wantCode: http.StatusUnprocessableEntity, wantErr: "VALIDATION_ERROR"},
		{name: "blank reason", body: `{"nickname":"a","age":20,"hours":1,"reason":" ","contact":"y"}`, wantCode: http.StatusUnprocessableEntity, wantErr: "VALIDATION_ERROR"},
		{name: "bad json", body: `{`, wantCode: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := do(t, h, http.MethodPost, "/applications/", tc.body)
			if w.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
			if tc.wantErr != "" && (resp.Error == nil || resp.Error.Code != tc.wantErr) {
				t.Fatalf("expected %s, got %s", tc.wantErr, w.Body.String())
			}
		})
	}
}

func TestHandler_Review(t *testing.T) {
	f := newFixture()
	mod := f.actor("mod", role.Moderator)
	applicant := f.actor("newbie", role.User)
	other := f.actor("other", role.User)
	a := f.submit(t, applicant)
	b := f.submit(t, other)
	h := f.router(mod)

	tests := []struct {
		name     string
		as       uuid.UUID
		path     string
		body     string
		wantCode int
		wantErr  string
		reason   string
	}{
		{name: "applicant cannot review", as: applicant, path: "/" + b.ID.String() + "/approve", body: `{"role":"helper"}`, wantCode: http.StatusForbidden, reason: "insufficient_rank"},
		{name: "grant at own rank", as: mod, path: "/" + a.ID.String() + "/approve", body: `{"role":"moderator"}`, wantCode: http.StatusForbidden, reason: "insufficient_rank"},
		{name: "unknown role", as: mod, path: "/" + a.ID.String() + "/approve", body: `{"role":"owner"}`, wantCode: http.StatusUnprocessableEntity, wantErr: "VALIDATION_ERROR"},
		{name: "unknown application", as: mod, path: "/" + uuid.NewString() + "/approve", body: `{"role":"helper"}`, wantCode: http.StatusNotFound},
		{name: "bad id", as: mod, path: "/nope/reject", wantCode: http.StatusBadRequest},
		{name: "approve", as: mod, path: "/" + a.ID.String() + "/approve", body: `{"role":"helper"}`, wantCode: http.StatusOK},
		{name: "approve twice", as: mod, path: "/" + a.ID.String() + "/approve", body: `{"role":"helper"}`, wantCode: http.StatusConflict, wantErr: "INVALID_TRANSITION"},
		{name: "reject decided", as: mod, path: "/" + a.ID.String() + "/reject", wantCode: http.StatusConflict, wantErr: "INVALID_TRANSITION"},
		{name: "reject without body", as: mod, path: "/" + b.ID.String() + "/reject", wantCode: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := do(t, f.router(tc.as), http.MethodPost, "/applications"+tc.path, tc.body)
			if w.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
			if tc.wantErr != "" && (resp.Error == nil || resp.Error.Code != tc.wantErr) {
				t.Fatalf("expected %s, got %s", tc.wantErr, w.Body.String())
			}
			if tc.reason != "" && (resp.Error == nil || resp.Error.Details["reason"] != tc.reason) {
				t.Fatalf("expected reason %s, got %s", tc.reason, w.Body.String())
			}
		})
	}

	if got := f.roleOf(t, applicant); got != role.Helper {
		t.Fatalf("expected helper after approval, got %s", got)
	}

	w, _ := do(t, h, http.MethodGet, "/applications/?status=rejected", "")
	var list struct {
		Data []application.ApplicationResponse `json:"data"`
		Meta response.Meta                     `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].ID != b.ID || list.Meta.Total != 1 {
		t.Fatalf("unexpected rejected list %+v", list)
	}

	if w, _ := do(t, h, http.MethodGet, "/applications/?status=lost", ""); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown status, got %d", w.Code)
	}
}

func TestHandler_CountAndMine(t *testing.T) {
	f := newFixture()
	mod := f.actor("mod", role.Moderator)
	applicant := f.actor("newbie", role.User)
	f.submit(t, applicant)

	w, _ := do(t, f.router(mod), http.MethodGet, "/applications/count", "")
	var count struct {
		Data application.CountResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &count); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusOK || count.Data.Pending != 1 {
		t.Fatalf("expected one pending, got %d %+v", w.Code, count.Data)
	}

	if w, _ := do(t, f.router(applicant), http.MethodGet, "/applications/count", ""); w.Code != http.StatusForbidden {
		t.Fatalf("applicants must not see the queue, got %d", w.Code)
	}

	w, _ = do(t, f.router(applicant), http.MethodGet, "/applications/mine", "")
	var mine struct {
		Data []application.ApplicationResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &mine); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(mine.Data) != 1 || mine.Data[0].Status != "pending" || mine.Data[0].Nickname != "newbie" {
		t.Fatalf("unexpected own applications %+v", mine.Data)
	}
}
