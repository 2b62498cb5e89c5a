package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/reactive-movies/internal/domain"
)

func (s *Server) registerMovieRoutes(r chi.Router) {
	r.Get("/stream", s.handleStreamMovies)
	r.Get("/{id}", s.handleGetMovie)
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	movie, err := s.aggregator.GetMovie(r.Context(), id)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

// handleStreamMovies relays the upstream movie info stream. Headers go out
// before the upstream is reached, so failures surface as an error event.
func (s *Server) handleStreamMovies(w http.ResponseWriter, r *http.Request) {
	ew, err := s.openEventStream(w)
	if err != nil {
		s.logger.Warnf("stream %s: %v", r.URL.Path, err)
		return
	}

	var writeErr error
	err = s.aggregator.StreamMovieInfos(r.Context(), func(info domain.MovieInfo) error {
		if err := ew.send(toMovieInfoResponse(info)); err != nil {
			writeErr = err
			return err
		}
		return nil
	})
	switch {
	case err == nil, r.Context().Err() != nil:
		return
	case writeErr != nil && errors.Is(err, writeErr):
		s.logger.Debugf("stream %s: client write failed: %v", r.URL.Path, err)
		return
	}

	status, code, message := translate(err)
	s.logger.Warnf("stream %s: upstream failed (%d): %v", r.URL.Path, status, err)
	_ = ew.sendError(errorResponse{Code: code, Message: message})
}
