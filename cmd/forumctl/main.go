package main

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/forumhq/forum-api/internal/config"
	"github.com/forumhq/forum-api/internal/pkg/database"
	"github.com/forumhq/forum-api/internal/pkg/jwt"
	"github.com/forumhq/forum-api/internal/pkg/logger"
	"github.com/forumhq/forum-api/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	open := func(ctx context.Context) (operatorStore, func(), error) {
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("DATABASE_URL is not set")
		}
		db, err := database.NewPostgres(cfg.DatabaseURL, database.PoolConfig{MaxOpenConns: 2, MaxIdleConns: 1})
		if err != nil {
			return nil, nil, err
		}
		return postgresOperator{postgres.New(db), db}, func() { database.ClosePostgres(db) }, nil
	}

	tokens := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTIssuer)
	root := newRootCmd(open, tokens)
	root.SetOut(os.Stdout)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
