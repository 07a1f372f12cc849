package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/forumhq/forum-api/internal/config"
	"github.com/forumhq/forum-api/internal/domain/application"
	"github.com/forumhq/forum-api/internal/domain/audit"
	"github.com/forumhq/forum-api/internal/domain/notification"
	"github.com/forumhq/forum-api/internal/domain/post"
	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/domain/staff"
	"github.com/forumhq/forum-api/internal/domain/user"
	"github.com/forumhq/forum-api/internal/middleware"
	"github.com/forumhq/forum-api/internal/pkg/database"
	"github.com/forumhq/forum-api/internal/pkg/jwt"
	"github.com/forumhq/forum-api/internal/pkg/logger"
	"github.com/forumhq/forum-api/internal/pkg/metrics"
	pkgresponse "github.com/forumhq/forum-api/internal/pkg/response"
	"github.com/forumhq/forum-api/internal/store/memory"
	"github.com/forumhq/forum-api/internal/store/postgres"
)

const version = "1.0.0"

// backend is the storage the workflows run against
type backend interface {
	user.Reader
	Staff() staff.Store
	Posts() post.Store
	Applications() application.Store
	Audit() audit.Repository
}

// handlers groups everything newRouter mounts
type handlers struct {
	staff         *staff.Handler
	posts         *post.Handler
	applications  *application.Handler
	audit         *audit.Handler
	notifications *notification.Handler // nil without Redis
}

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}
	metrics.Init()

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Forum API")

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTIssuer)

	// ---------- Storage ----------
	var store backend
	if cfg.UsesMemoryStore() {
		mem := memory.New()
		seedDevelopment(mem, jwtService)
		store = mem
	} else {
		db, err := database.NewPostgres(cfg.DatabaseURL, database.DefaultPool)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer database.ClosePostgres(db)
		store = postgres.New(db)
	}

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	// ---------- Notifications ----------
	var notifier notification.Notifier = notification.LogNotifier{}
	var notificationHandler *notification.Handler
	if redisClient != nil {
		publisher := notification.NewRedisPublisher(redisClient, cfg.NotifyInboxSize)
		notifier = publisher
		notificationHandler = notification.NewHandler(publisher)
	}
	dispatcher := notification.NewAsync(notifier, cfg.NotifyTimeout)

	// ---------- Services ----------
	staffService := staff.NewService(store.Staff(), dispatcher)
	postService := post.NewService(store.Posts(), dispatcher)
	applicationService := application.NewService(store.Applications(), staffService, dispatcher)
	auditService := audit.NewService(store.Audit(), store)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	stopSweep := make(chan struct{})
	go limiter.Run(stopSweep)

	r := newRouter(cfg, middleware.Auth(jwtService), limiter.Middleware, handlers{
		staff:         staff.NewHandler(staffService),
		posts:         post.NewHandler(postService),
		applications:  application.NewHandler(applicationService),
		audit:         audit.NewHandler(auditService),
		notifications: notificationHandler,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	close(stopSweep)
	// Drain notifications for already committed decisions
	dispatcher.Close()

	log.Info().Msg("Server exited properly")
}

func newRouter(cfg *config.Config, auth, writeLimit func(http.Handler) http.Handler, h handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(metrics.Instrument)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Use(auth)

		r.Get("/roles", h.staff.ListRoles)
		r.Mount("/staff", h.staff.Routes(writeLimit))
		r.Mount("/posts", h.posts.Routes(writeLimit))
		r.Mount("/applications", h.applications.Routes(writeLimit))
		r.Mount("/audit", h.audit.Routes())
		if h.notifications != nil {
			r.Mount("/notifications", h.notifications.Routes())
		}
	})

	return r
}

// seedDevelopment creates a management account in the in-memory store
// and logs a token for it, so a fresh local API is usable right away.
func seedDevelopment(mem *memory.Store, jwtService *jwt.Service) {
	id := uuid.New()
	mem.PutActor(user.Actor{ID: id, Username: "management", Role: role.Management})

	token, err := jwtService.GenerateAccessToken(id)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue development token")
		return
	}
	log.Warn().
		Str("user_id", id.String()).
		Str("token", token).
		Msg("Using in-memory store with a seeded management account")
}
