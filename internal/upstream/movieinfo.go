package upstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Clark-Hu/reactive-movies/internal/domain"
	"github.com/Clark-Hu/reactive-movies/internal/failure"
)

// MovieInfoClient talks to the movie info service.
type MovieInfoClient struct {
	base *baseClient
}

// NewMovieInfoClient builds a client rooted at baseURL, for example
// http://localhost:8080/v1/movieInfos.
func NewMovieInfoClient(baseURL string, opts Options) (*MovieInfoClient, error) {
	base, err := newBaseClient(MovieInfoServiceName, baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &MovieInfoClient{base: base}, nil
}

// Get fetches a single movie info by id.
func (c *MovieInfoClient) Get(ctx context.Context, id string) (domain.MovieInfo, error) {
	resp, err := c.base.get(ctx, c.base.endpoint(id, nil), "application/json")
	if err != nil {
		return domain.MovieInfo{}, err
	}
	if !isSuccess(resp.StatusCode) {
		return domain.MovieInfo{}, c.base.classify(resp, fmt.Sprintf("There is no Movie Info for the passed in ID: %s", id))
	}
	defer resp.Body.Close()

	var payload movieInfoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.MovieInfo{}, c.base.decodeFailure(err)
	}
	info, err := payload.toDomain()
	if err != nil {
		return domain.MovieInfo{}, c.base.decodeFailure(err)
	}
	return info, nil
}

// Stream subscribes to the movie info event stream and calls fn for every
// item until ctx is done, the upstream ends the stream, or fn fails. A clean
// end of stream returns nil; a cancelled ctx returns ctx.Err().
func (c *MovieInfoClient) Stream(ctx context.Context, fn func(domain.MovieInfo) error) error {
	resp, err := c.base.get(ctx, c.base.endpoint("stream", nil), "text/event-stream")
	if err != nil {
		return err
	}
	if !isSuccess(resp.StatusCode) {
		return c.base.classify(resp, "MovieInfo stream is not available")
	}
	defer resp.Body.Close()

	var handlerErr error
	err = ReadEvents(resp.Body, func(data []byte) error {
		var payload movieInfoPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return c.base.decodeFailure(err)
		}
		info, err := payload.toDomain()
		if err != nil {
			return c.base.decodeFailure(err)
		}
		if err := fn(info); err != nil {
			handlerErr = err
			return err
		}
		return nil
	})
	switch {
	case handlerErr != nil:
		return handlerErr
	case ctx.Err() != nil:
		return ctx.Err()
	case err == nil:
		return nil
	}
	if _, ok := failure.As(err); ok {
		return err
	}
	return failure.New(failure.Transport, 0, fmt.Sprintf("Transport failure reading %s stream", c.base.service), err)
}
