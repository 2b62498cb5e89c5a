package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/reactive-movies/internal/failure"
	"github.com/Clark-Hu/reactive-movies/internal/repository"
	"github.com/Clark-Hu/reactive-movies/internal/validation"
)

func (s *Server) registerReviewRoutes(r chi.Router) {
	r.Get("/", s.handleListReviews)
	r.Post("/", s.handleCreateReview)
	r.Get("/stream", s.handleStreamReviews)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetReview)
		r.Put("/", s.handleUpdateReview)
		r.Delete("/", s.handleDeleteReview)
	})
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validator.Struct(validation.ReviewInput{MovieInfoID: req.MovieInfoID, Rating: req.Rating}); err != nil {
		s.respondFailure(w, r, err)
		return
	}

	review, err := s.reviews.Create(r.Context(), repository.ReviewCreateParams{
		MovieInfoID: strings.TrimSpace(*req.MovieInfoID),
		Comment:     req.Comment,
		Rating:      req.Rating,
	})
	if err != nil {
		s.respondFailure(w, r, fmt.Errorf("create review: %w", err))
		return
	}

	if err := s.reviewSink.Publish(review); err != nil {
		s.logger.Warnf("%v", failure.New(failure.SinkDelivery, 0, "review "+review.ID+" not published", err))
	}

	w.Header().Set("Location", "/v1/reviews/"+url.PathEscape(review.ID))
	s.respondJSON(w, http.StatusCreated, toReviewResponse(review))
}

// handleListReviews answers an empty list, never 404, when nothing matches.
func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	movieInfoID := strings.TrimSpace(r.URL.Query().Get("movieInfoId"))
	reviews, err := s.reviews.List(r.Context(), movieInfoID)
	if err != nil {
		s.respondFailure(w, r, fmt.Errorf("list reviews: %w", err))
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponses(reviews))
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	review, err := s.reviews.GetByID(r.Context(), id)
	if err != nil {
		s.respondFailure(w, r, reviewError(id, err))
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(review))
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req reviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validator.Struct(validation.ReviewUpdateInput{Rating: req.Rating}); err != nil {
		s.respondFailure(w, r, err)
		return
	}

	review, err := s.reviews.Update(r.Context(), id, repository.ReviewUpdateParams{
		Comment: req.Comment,
		Rating:  req.Rating,
	})
	if err != nil {
		s.respondFailure(w, r, reviewError(id, err))
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(review))
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.reviews.Delete(r.Context(), id); err != nil {
		s.respondFailure(w, r, reviewError(id, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStreamReviews(w http.ResponseWriter, r *http.Request) {
	streamSink(s, w, r, s.reviewSink, toReviewResponse)
}

func reviewError(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return failure.New(failure.ReviewNotFound, 0, "Review not found for the given Review id "+id, err)
	}
	return err
}
