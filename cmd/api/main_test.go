package main

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/config"
	"github.com/forumhq/forum-api/internal/domain/application"
	"github.com/forumhq/forum-api/internal/domain/audit"
	"github.com/forumhq/forum-api/internal/domain/notification"
	"github.com/forumhq/forum-api/internal/domain/post"
	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/domain/staff"
	"github.com/forumhq/forum-api/internal/domain/user"
	"github.com/forumhq/forum-api/internal/middleware"
	"github.com/forumhq/forum-api/internal/store/memory"
)

func passthrough(next http.Handler) http.Handler { return next }

func testRouter(t *testing.T, as uuid.UUID, withInbox bool) (chi.Router, *memory.Store) {
	t.Helper()
	mem := memory.New()
	dispatcher := notification.Sync{Next: notification.LogNotifier{}}

	staffService := staff.NewService(mem.Staff(), dispatcher)
	h := handlers{
		staff:        staff.NewHandler(staffService),
		posts:        post.NewHandler(post.NewService(mem.Posts(), dispatcher)),
		applications: application.NewHandler(application.NewService(mem.Applications(), staffService, dispatcher)),
		audit:        audit.NewHandler(audit.NewService(mem.Audit(), mem)),
	}
	if withInbox {
		h.notifications = notification.NewHandler(nil)
	}

	auth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), as)))
		})
	}
	cfg := &config.Config{AllowedOrigins: []string{"http://localhost:3000"}}
	return newRouter(cfg, auth, passthrough, h), mem
}

func TestRouterRegistersWorkflowRoutes(t *testing.T) {
	r, _ := testRouter(t, uuid.New(), true)

	var routes []string
	err := chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+strings.TrimSuffix(route, "/"))
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	sort.Strings(routes)

	want := []string{
		"GET /health",
		"GET /api/v1/roles",
		"GET /api/v1/staff",
		"PUT /api/v1/staff/{id}/role",
		"POST /api/v1/staff/{id}/ban",
		"POST /api/v1/posts",
		"POST /api/v1/posts/{id}/approve",
		"POST /api/v1/posts/{id}/reopen",
		"POST /api/v1/applications/{id}/approve",
		"GET /api/v1/applications/count",
		"GET /api/v1/audit",
		"GET /api/v1/notifications",
	}
	for _, w := range want {
		i := sort.SearchStrings(routes, w)
		if i == len(routes) || routes[i] != w {
			t.Errorf("route %q not registered", w)
		}
	}
}

func TestRouterSkipsInboxWithoutRedis(t *testing.T) {
	r, _ := testRouter(t, uuid.New(), false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without Redis, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r, _ := testRouter(t, uuid.Nil, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), version) {
		t.Fatalf("health must report version, got %s", w.Body.String())
	}
}

func TestRouterServesRoles(t *testing.T) {
	admin := uuid.New()
	r, mem := testRouter(t, admin, false)
	mem.PutActor(user.Actor{ID: admin, Username: "admin", Role: role.Admin})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"management"`) {
		t.Fatalf("roles must list the catalog, got %s", w.Body.String())
	}
}
