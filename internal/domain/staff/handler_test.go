package staff_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/domain/staff"
	"github.com/forumhq/forum-api/internal/middleware"
	"github.com/forumhq/forum-api/internal/pkg/response"
)

func passthrough(next http.Handler) http.Handler { return next }

func (f *fixture) router(as uuid.UUID) http.Handler {
	h := staff.NewHandler(f.svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), as)))
		})
	})
	r.Get("/roles", h.ListRoles)
	r.Mount("/staff", h.Routes(passthrough))
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

func TestHandler_AssignRole(t *testing.T) {
	f := newFixture()
	admin := f.actor("admin", role.Admin)
	mod := f.actor("mod", role.Moderator)
	target := f.actor("target", role.User)

	w, resp := do(t, f.router(admin), http.MethodPut, "/staff/"+target.String()+"/role", `{"role":"Moderator"}`)
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := f.roleOf(t, target); got != role.Moderator {
		t.Fatalf("expected moderator, got %s", got)
	}

	w, resp = do(t, f.router(mod), http.MethodPut, "/staff/"+target.String()+"/role", `{"role":"admin"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != "PERMISSION_DENIED" || resp.Error.Details["reason"] != "insufficient_rank" {
		t.Fatalf("unexpected error body: %s", w.Body.String())
	}
}

func TestHandler_AssignRoleValidation(t *testing.T) {
	f := newFixture()
	admin := f.actor("admin", role.Admin)
	target := f.actor("target", role.User)
	h := f.router(admin)

	if w, _ := do(t, h, http.MethodPut, "/staff/not-a-uuid/role", `{"role":"helper"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", w.Code)
	}
	if w, _ := do(t, h, http.MethodPut, "/staff/"+target.String()+"/role", `{"role":"owner"}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown role, got %d", w.Code)
	}
	if w, _ := do(t, h, http.MethodPut, "/staff/"+target.String()+"/role", `{`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", w.Code)
	}
	if w, _ := do(t, h, http.MethodPut, "/staff/"+uuid.NewString()+"/role", `{"role":"helper"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown target, got %d", w.Code)
	}
}

func TestHandler_SelfDemotion(t *testing.T) {
	f := newFixture()
	mgmt := f.actor("boss", role.Management)

	w, resp := do(t, f.router(mgmt), http.MethodPost, "/staff/"+mgmt.String()+"/demote", "")
	if w.Code != http.StatusForbidden || resp.Error.Details["reason"] != "self_target" {
		t.Fatalf("expected self_target denial, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandler_BanTwice(t *testing.T) {
	f := newFixture()
	mod := f.actor("mod", role.Moderator)
	target := f.actor("target", role.User)
	h := f.router(mod)

	if w, _ := do(t, h, http.MethodPost, "/staff/"+target.String()+"/ban", `{"reason":"spam"}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w, resp := do(t, h, http.MethodPost, "/staff/"+target.String()+"/ban", "")
	if w.Code != http.StatusConflict || resp.Error.Code != "INVALID_TRANSITION" {
		t.Fatalf("expected 409 INVALID_TRANSITION, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandler_RolesAndGrantable(t *testing.T) {
	f := newFixture()
	admin := f.actor("admin", role.Admin)
	h := f.router(admin)

	w, _ := do(t, h, http.MethodGet, "/roles", "")
	var roles struct {
		Data []staff.RoleResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &roles); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(roles.Data) != len(role.All()) || roles.Data[4].Name != "management" || roles.Data[4].Rank != 4 {
		t.Fatalf("unexpected roles: %+v", roles.Data)
	}

	w, _ = do(t, h, http.MethodGet, "/staff/grantable", "")
	if err := json.Unmarshal(w.Body.Bytes(), &roles); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(roles.Data) != 3 || roles.Data[2].Name != "moderator" {
		t.Fatalf("expected user, helper, moderator; got %+v", roles.Data)
	}
}

func TestRoutesRegistered(t *testing.T) {
	h := staff.NewHandler(newFixture().svc)
	want := map[string]bool{
		"GET /":             false,
		"GET /grantable":    false,
		"PUT /{id}/role":    false,
		"POST /{id}/demote": false,
		"POST /{id}/ban":    false,
		"POST /{id}/unban":  false,
	}
	err := chi.Walk(h.Routes(passthrough), func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		key := method + " " + route
		if _, ok := want[key]; ok {
			want[key] = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	for route, seen := range want {
		if !seen {
			t.Fatalf("route %s not registered", route)
		}
	}
}

func TestHandler_RosterHidesBanState(t *testing.T) {
	f := newFixture()
	admin := f.actor("admin", role.Admin)
	helper := f.actor("helper", role.Helper)
	viewer := f.actor("viewer", role.User)

	if _, err := f.svc.Ban(context.Background(), admin, helper, "leaked logs"); err != nil {
		t.Fatalf("ban: %v", err)
	}

	w, _ := do(t, f.router(viewer), http.MethodGet, "/staff/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "is_banned") || strings.Contains(body, "leaked logs") {
		t.Fatalf("roster must not expose ban state: %s", body)
	}

	var roster struct {
		Data []staff.RosterResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &roster); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(roster.Data) != 2 || roster.Data[0].Username != "admin" || roster.Data[1].Role != "helper" {
		t.Fatalf("unexpected roster %+v", roster.Data)
	}
}
