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

	"github.com/Clark-Hu/reactive-movies/internal/config"
	httpserver "github.com/Clark-Hu/reactive-movies/internal/http"
	"github.com/Clark-Hu/reactive-movies/internal/logger"
	"github.com/Clark-Hu/reactive-movies/internal/movies"
	"github.com/Clark-Hu/reactive-movies/internal/upstream"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New(string(config.RoleMovies), os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load(config.RoleMovies)
	if err != nil {
		log.Errorf("config error: %v", err)
		os.Exit(1)
	}
	log = logger.New(string(cfg.Role), cfg.LogLevel)

	clientOpts := upstream.Options{
		Timeout: time.Duration(cfg.UpstreamTimeoutSecs) * time.Second,
		Logger:  log,
	}
	infoClient, err := upstream.NewMovieInfoClient(cfg.MovieInfoURL, clientOpts)
	if err != nil {
		log.Errorf("init movie info client: %v", err)
		os.Exit(1)
	}
	reviewClient, err := upstream.NewReviewClient(cfg.ReviewsURL, clientOpts)
	if err != nil {
		log.Errorf("init review client: %v", err)
		os.Exit(1)
	}

	policy := cfg.RetryPolicy()
	log.Infof("upstream retry policy: max=%d delay=%s transport=%t", policy.MaxRetries, policy.Delay, policy.RetryTransport)
	service := movies.NewService(infoClient, reviewClient, policy, log)
	server := httpserver.NewMoviesServer(cfg, service, log)

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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("graceful shutdown error: %v", err)
	}
	log.Infof("shutdown complete")
}
