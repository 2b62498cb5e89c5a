package domain

import "time"

// Review is a single comment and rating for a movie info. MovieInfoID is not
// checked against the movie info service.
type Review struct {
	ID          string
	MovieInfoID string
	Comment     string
	Rating      float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
