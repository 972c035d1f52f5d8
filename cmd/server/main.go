package main

import (
	"context"
	"database/sql"
	"errors"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/vncsmyrnk/dood/doodle"
	"github.com/vncsmyrnk/dood/internal/adapters/auth/jwt"
	gateway "github.com/vncsmyrnk/dood/internal/adapters/gateway/doodle"
	"github.com/vncsmyrnk/dood/internal/adapters/handler/http"
	"github.com/vncsmyrnk/dood/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/dood/internal/config"
	"github.com/vncsmyrnk/dood/internal/core/services"
	"github.com/vncsmyrnk/dood/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.Env)

	db, err := sql.Open("postgres", cfg.Postgres.ConnString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatal().Err(err).Str("host", cfg.Postgres.Host).Msg("database unreachable")
	}

	client := doodle.NewClient(cfg.Doodle.ConsumerKey, cfg.Doodle.ConsumerSecret,
		doodle.WithBaseURL(cfg.Doodle.BaseURL),
		doodle.WithTimeout(cfg.Doodle.Timeout),
		doodle.WithLogger(log.With().Str("component", "doodle").Logger()),
	)

	pollRecordRepo := postgres.NewPollRecordRepository(db)
	pollService := services.NewPollService(gateway.NewGateway(client), pollRecordRepo, log)
	pollHandler := http.NewPollHandler(pollService)

	handler := http.NewHandler(pollHandler, jwt.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer), log)
	server := &stdhttp.Server{Addr: cfg.Addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("shutdown failed")
	}
}
