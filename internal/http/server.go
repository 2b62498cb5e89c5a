package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/Clark-Hu/reactive-movies/internal/broadcast"
	"github.com/Clark-Hu/reactive-movies/internal/config"
	"github.com/Clark-Hu/reactive-movies/internal/domain"
	"github.com/Clark-Hu/reactive-movies/internal/logger"
	"github.com/Clark-Hu/reactive-movies/internal/repository"
	"github.com/Clark-Hu/reactive-movies/internal/validation"
)

// Pinger reports backing store health.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// MovieInfoStore is the persistence the movie info service needs.
type MovieInfoStore interface {
	Create(ctx context.Context, params repository.MovieInfoParams) (domain.MovieInfo, error)
	GetByID(ctx context.Context, id string) (domain.MovieInfo, error)
	List(ctx context.Context, year *int) ([]domain.MovieInfo, error)
	Update(ctx context.Context, id string, params repository.MovieInfoParams) (domain.MovieInfo, error)
	Delete(ctx context.Context, id string) error
}

// ReviewStore is the persistence the review service needs.
type ReviewStore interface {
	Create(ctx context.Context, params repository.ReviewCreateParams) (domain.Review, error)
	GetByID(ctx context.Context, id string) (domain.Review, error)
	List(ctx context.Context, movieInfoID string) ([]domain.Review, error)
	Update(ctx context.Context, id string, params repository.ReviewUpdateParams) (domain.Review, error)
	Delete(ctx context.Context, id string) error
}

// MovieAggregator is the aggregator as seen by the movies service.
type MovieAggregator interface {
	GetMovie(ctx context.Context, id string) (domain.Movie, error)
	StreamMovieInfos(ctx context.Context, fn func(domain.MovieInfo) error) error
}

// Server wires HTTP routing, middleware, and handlers for one service role.
type Server struct {
	cfg       config.Config
	logger    logger.Logger
	router    chi.Router
	validator *validation.Validator
	httpSrv   *http.Server

	pinger     Pinger
	infos      MovieInfoStore
	infoSink   *broadcast.Sink[domain.MovieInfo]
	reviews    ReviewStore
	reviewSink *broadcast.Sink[domain.Review]
	aggregator MovieAggregator
}

func newServer(cfg config.Config, log logger.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if log == nil {
		log = logger.Discard()
	}

	return &Server{
		cfg:       cfg,
		logger:    log,
		router:    r,
		validator: validation.New(),
	}
}

// NewMovieInfoServer builds the movie info service.
func NewMovieInfoServer(cfg config.Config, pinger Pinger, infos MovieInfoStore, sink *broadcast.Sink[domain.MovieInfo], log logger.Logger) *Server {
	s := newServer(cfg, log)
	s.pinger = pinger
	s.infos = infos
	s.infoSink = sink
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Route("/v1/movieInfos", s.registerMovieInfoRoutes)
	return s
}

// NewReviewServer builds the review service.
func NewReviewServer(cfg config.Config, pinger Pinger, reviews ReviewStore, sink *broadcast.Sink[domain.Review], log logger.Logger) *Server {
	s := newServer(cfg, log)
	s.pinger = pinger
	s.reviews = reviews
	s.reviewSink = sink
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Route("/v1/reviews", s.registerReviewRoutes)
	return s
}

// NewMoviesServer builds the aggregating movies service. Routes are served
// under both /v1/movies and /movies.
func NewMoviesServer(cfg config.Config, aggregator MovieAggregator, log logger.Logger) *Server {
	s := newServer(cfg, log)
	s.aggregator = aggregator
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Route("/v1/movies", s.registerMovieRoutes)
	s.router.Route("/movies", s.registerMovieRoutes)
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	}).Handler(s.router)
}

// Start boots the HTTP server and blocks until ctx is done or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("http: listening on :%s", s.cfg.Port)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

type healthResponse struct {
	Status      string `json:"status"`
	Published   uint64 `json:"published,omitempty"`
	Subscribers int    `json:"subscribers,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.pinger != nil {
		if err := s.pinger.HealthCheck(ctx); err != nil {
			s.logger.Warnf("healthz: store unavailable: %v", err)
			s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Store unavailable")
			return
		}
	}

	resp := healthResponse{Status: "ok"}
	switch {
	case s.infoSink != nil:
		resp.Published, resp.Subscribers = s.infoSink.Len(), s.infoSink.Subscribers()
	case s.reviewSink != nil:
		resp.Published, resp.Subscribers = s.reviewSink.Len(), s.reviewSink.Subscribers()
	}
	s.respondJSON(w, http.StatusOK, resp)
}
