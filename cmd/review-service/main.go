package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Clark-Hu/reactive-movies/db"
	"github.com/Clark-Hu/reactive-movies/internal/broadcast"
	"github.com/Clark-Hu/reactive-movies/internal/config"
	"github.com/Clark-Hu/reactive-movies/internal/domain"
	httpserver "github.com/Clark-Hu/reactive-movies/internal/http"
	"github.com/Clark-Hu/reactive-movies/internal/logger"
	"github.com/Clark-Hu/reactive-movies/internal/repository"
	"github.com/Clark-Hu/reactive-movies/internal/store"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New(string(config.RoleReviews), os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load(config.RoleReviews)
	if err != nil {
		log.Errorf("config error: %v", err)
		os.Exit(1)
	}
	log = logger.New(string(cfg.Role), cfg.LogLevel)

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 log,
	})
	if err != nil {
		log.Errorf("connect database: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	if cfg.DBMigrate {
		if err := st.Migrate(dbCtx, db.Migrations, "migrations"); err != nil {
			log.Errorf("migrate database: %v", err)
			os.Exit(1)
		}
	}

	sink := broadcast.New[domain.Review](broadcast.WithHistoryLimit(cfg.StreamHistoryLimit))
	defer sink.Close()

	repo := repository.New(st)
	server := httpserver.NewReviewServer(cfg, st, repo.Reviews, sink, log)

	run(ctx, server, sink.Close, log)
}

// run serves until ctx is done, then ends open streams and drains requests.
func run(ctx context.Context, server *httpserver.Server, closeStreams func(), log logger.Logger) {
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server error: %v", err)
		}
	case <-ctx.Done():
	}

	closeStreams()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("graceful shutdown error: %v", err)
	}
	log.Infof("shutdown complete")
}
