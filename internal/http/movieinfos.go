package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/reactive-movies/internal/failure"
	"github.com/Clark-Hu/reactive-movies/internal/repository"
	"github.com/Clark-Hu/reactive-movies/internal/validation"
)

func (s *Server) registerMovieInfoRoutes(r chi.Router) {
	r.Get("/", s.handleListMovieInfos)
	r.Post("/", s.handleCreateMovieInfo)
	r.Get("/stream", s.handleStreamMovieInfos)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetMovieInfo)
		r.Put("/", s.handleUpdateMovieInfo)
		r.Delete("/", s.handleDeleteMovieInfo)
	})
}

func (s *Server) handleCreateMovieInfo(w http.ResponseWriter, r *http.Request) {
	params, ok := s.decodeMovieInfo(w, r)
	if !ok {
		return
	}

	info, err := s.infos.Create(r.Context(), params)
	if err != nil {
		s.respondFailure(w, r, fmt.Errorf("create movie info: %w", err))
		return
	}

	if err := s.infoSink.Publish(info.Clone()); err != nil {
		s.logger.Warnf("%v", failure.New(failure.SinkDelivery, 0, "movie info "+info.ID+" not published", err))
	}

	w.Header().Set("Location", "/v1/movieInfos/"+url.PathEscape(info.ID))
	s.respondJSON(w, http.StatusCreated, toMovieInfoResponse(info))
}

func (s *Server) handleListMovieInfos(w http.ResponseWriter, r *http.Request) {
	year, err := parseYearFilter(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	infos, err := s.infos.List(r.Context(), year)
	if err != nil {
		s.respondFailure(w, r, fmt.Errorf("list movie infos: %w", err))
		return
	}

	items := make([]movieInfoResponse, 0, len(infos))
	for _, info := range infos {
		items = append(items, toMovieInfoResponse(info))
	}
	s.respondJSON(w, http.StatusOK, items)
}

func parseYearFilter(query url.Values) (*int, error) {
	val := strings.TrimSpace(query.Get("year"))
	if val == "" {
		return nil, nil
	}
	year, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("invalid year value")
	}
	return &year, nil
}

func (s *Server) handleGetMovieInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, err := s.infos.GetByID(r.Context(), id)
	if err != nil {
		s.respondFailure(w, r, movieInfoError(id, err))
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieInfoResponse(info))
}

func (s *Server) handleUpdateMovieInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	params, ok := s.decodeMovieInfo(w, r)
	if !ok {
		return
	}

	info, err := s.infos.Update(r.Context(), id, params)
	if err != nil {
		s.respondFailure(w, r, movieInfoError(id, err))
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieInfoResponse(info))
}

func (s *Server) handleDeleteMovieInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.infos.Delete(r.Context(), id); err != nil {
		s.respondFailure(w, r, movieInfoError(id, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStreamMovieInfos(w http.ResponseWriter, r *http.Request) {
	streamSink(s, w, r, s.infoSink, toMovieInfoResponse)
}

// decodeMovieInfo parses and validates a movie info body. On failure the
// response has already been written.
func (s *Server) decodeMovieInfo(w http.ResponseWriter, r *http.Request) (repository.MovieInfoParams, bool) {
	var req movieInfoRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return repository.MovieInfoParams{}, false
	}

	input := validation.MovieInfoInput{Name: req.Name, Year: req.Year, Cast: req.Cast}
	if err := s.validator.Struct(input); err != nil {
		s.respondFailure(w, r, err)
		return repository.MovieInfoParams{}, false
	}
	releaseDate, ok := parseReleaseDate(req.ReleaseDate)
	if !ok {
		s.respondFailure(w, r, failure.New(failure.Validation, 0, "movieInfo.release_date must be a date formatted as yyyy-MM-dd", nil))
		return repository.MovieInfoParams{}, false
	}

	cast := make([]string, 0, len(req.Cast))
	for _, member := range req.Cast {
		cast = append(cast, strings.TrimSpace(member))
	}
	return repository.MovieInfoParams{
		Name:        strings.TrimSpace(req.Name),
		Year:        *req.Year,
		Cast:        cast,
		ReleaseDate: releaseDate,
	}, true
}

func movieInfoError(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return failure.New(failure.MovieInfoNotFound, 0, "MovieInfo not found for the given MovieInfo id "+id, err)
	}
	return err
}
