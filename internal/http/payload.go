package httpserver

import (
	"time"

	"github.com/Clark-Hu/reactive-movies/internal/domain"
)

const dateLayout = "2006-01-02"

type movieInfoRequest struct {
	// MovieInfoID is accepted for wire compatibility and ignored; the store
	// assigns identifiers.
	MovieInfoID *string  `json:"movieInfoId"`
	Name        string   `json:"name"`
	Year        *int     `json:"year"`
	Cast        []string `json:"cast"`
	ReleaseDate *string  `json:"release_date"`
}

type movieInfoResponse struct {
	ID          string   `json:"movieInfoId"`
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Cast        []string `json:"cast"`
	ReleaseDate *string  `json:"release_date"`
}

type reviewRequest struct {
	ReviewID    *string `json:"reviewId"`
	MovieInfoID *string `json:"movieInfoId"`
	Comment     string  `json:"comment"`
	Rating      float64 `json:"rating"`
}

type reviewResponse struct {
	ID          string  `json:"reviewId"`
	MovieInfoID string  `json:"movieInfoId"`
	Comment     string  `json:"comment"`
	Rating      float64 `json:"rating"`
}

type movieResponse struct {
	MovieInfo  movieInfoResponse `json:"movieInfo"`
	ReviewList []reviewResponse  `json:"reviewList"`
}

func toMovieInfoResponse(info domain.MovieInfo) movieInfoResponse {
	resp := movieInfoResponse{
		ID:   info.ID,
		Name: info.Name,
		Year: info.Year,
		Cast: info.Cast,
	}
	if resp.Cast == nil {
		resp.Cast = []string{}
	}
	if info.ReleaseDate != nil {
		d := info.ReleaseDate.Format(dateLayout)
		resp.ReleaseDate = &d
	}
	return resp
}

func toReviewResponse(review domain.Review) reviewResponse {
	return reviewResponse{
		ID:          review.ID,
		MovieInfoID: review.MovieInfoID,
		Comment:     review.Comment,
		Rating:      review.Rating,
	}
}

func toReviewResponses(reviews []domain.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		out = append(out, toReviewResponse(review))
	}
	return out
}

func toMovieResponse(movie domain.Movie) movieResponse {
	return movieResponse{
		MovieInfo:  toMovieInfoResponse(movie.Info),
		ReviewList: toReviewResponses(movie.Reviews),
	}
}

func parseReleaseDate(raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	d, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, false
	}
	return &d, true
}
