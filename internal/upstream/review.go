package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/Clark-Hu/reactive-movies/internal/domain"
)

// ReviewClient talks to the review service.
type ReviewClient struct {
	base *baseClient
}

// NewReviewClient builds a client rooted at baseURL, for example
// http://localhost:8081/v1/reviews.
func NewReviewClient(baseURL string, opts Options) (*ReviewClient, error) {
	base, err := newBaseClient(ReviewServiceName, baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &ReviewClient{base: base}, nil
}

// List fetches the reviews recorded for movieInfoID. The review service
// answers an empty list rather than 404 when there are none.
func (c *ReviewClient) List(ctx context.Context, movieInfoID string) ([]domain.Review, error) {
	query := url.Values{}
	query.Set("movieInfoId", movieInfoID)

	resp, err := c.base.get(ctx, c.base.endpoint("", query), "application/json")
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, c.base.classify(resp, fmt.Sprintf("There are no Reviews for the passed in MovieInfo id: %s", movieInfoID))
	}
	defer resp.Body.Close()

	var payload []reviewPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, c.base.decodeFailure(err)
	}
	reviews := make([]domain.Review, 0, len(payload))
	for _, p := range payload {
		reviews = append(reviews, p.toDomain())
	}
	return reviews, nil
}
