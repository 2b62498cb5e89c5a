// Package movies composes a movie from the movie info and review services.
package movies

import (
	"context"
	"errors"
	"time"

	"github.com/Clark-Hu/reactive-movies/internal/domain"
	"github.com/Clark-Hu/reactive-movies/internal/logger"
	"github.com/Clark-Hu/reactive-movies/internal/retry"
)

// InfoFetcher is the primary upstream.
type InfoFetcher interface {
	Get(ctx context.Context, id string) (domain.MovieInfo, error)
	Stream(ctx context.Context, fn func(domain.MovieInfo) error) error
}

// ReviewFetcher is the secondary upstream. Its failures never fail a request.
type ReviewFetcher interface {
	List(ctx context.Context, movieInfoID string) ([]domain.Review, error)
}

// Service aggregates movie infos with their reviews.
type Service struct {
	infos   InfoFetcher
	reviews ReviewFetcher
	policy  retry.Policy
	logger  logger.Logger
}

// NewService wires the aggregator. A nil log discards output.
func NewService(infos InfoFetcher, reviews ReviewFetcher, policy retry.Policy, log logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{infos: infos, reviews: reviews, policy: policy, logger: log}
}

// GetMovie fetches the movie info for id and then its reviews. Info failures
// are returned with their classification intact. Review failures degrade to
// an empty review list.
func (s *Service) GetMovie(ctx context.Context, id string) (domain.Movie, error) {
	info, err := retry.Do(ctx, s.policy, func(ctx context.Context) (domain.MovieInfo, error) {
		return s.infos.Get(ctx, id)
	}, s.notify("movie info", id))
	if err != nil {
		return domain.Movie{}, err
	}

	reviews, err := retry.Do(ctx, s.policy, func(ctx context.Context) ([]domain.Review, error) {
		return s.reviews.List(ctx, id)
	}, s.notify("reviews", id))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Movie{}, ctxErr
		}
		s.logger.Warnf("movies: reviews unavailable for %s, serving movie without reviews: %v", id, err)
		reviews = []domain.Review{}
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}

	return domain.Movie{Info: info, Reviews: reviews}, nil
}

// StreamMovieInfos relays the upstream movie info stream to fn. Connecting is
// retried under the policy; once an item has been delivered any failure ends
// the relay, since reconnecting would replay history and duplicate items.
func (s *Service) StreamMovieInfos(ctx context.Context, fn func(domain.MovieInfo) error) error {
	delivered := false
	var handlerErr error

	_, err := retry.Do(ctx, s.policy, func(ctx context.Context) (struct{}, error) {
		err := s.infos.Stream(ctx, func(info domain.MovieInfo) error {
			delivered = true
			if err := fn(info); err != nil {
				handlerErr = err
				return err
			}
			return nil
		})
		if err != nil && (delivered || handlerErr != nil) {
			return struct{}{}, retry.Permanent(err)
		}
		return struct{}{}, err
	}, s.notify("movie info stream", ""))

	if handlerErr != nil && errors.Is(err, handlerErr) {
		return handlerErr
	}
	return err
}

func (s *Service) notify(what, id string) retry.Option {
	return retry.WithNotify(func(attempt int, err error, wait time.Duration) {
		if id != "" {
			s.logger.Warnf("movies: %s call for %s failed (attempt %d), retrying in %s: %v", what, id, attempt, wait, err)
			return
		}
		s.logger.Warnf("movies: %s call failed (attempt %d), retrying in %s: %v", what, attempt, wait, err)
	})
}
