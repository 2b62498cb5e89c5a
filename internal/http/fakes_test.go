package httpserver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Clark-Hu/reactive-movies/internal/config"
	"github.com/Clark-Hu/reactive-movies/internal/domain"
	"github.com/Clark-Hu/reactive-movies/internal/repository"
)

func testConfig() config.Config {
	return config.Config{
		Port:               "0",
		CORSAllowedOrigins: []string{"*"},
		ReadTimeoutSecs:    15,
		WriteTimeoutSecs:   15,
		IdleTimeoutSecs:    60,
	}
}

type fakePinger struct{ err error }

func (p fakePinger) HealthCheck(context.Context) error { return p.err }

// memInfoStore is an in-memory MovieInfoStore. writes counts every call that
// would touch the database.
type memInfoStore struct {
	mu      sync.Mutex
	seq     int
	order   []string
	items   map[string]domain.MovieInfo
	writes  atomic.Int32
	failErr error
}

func newMemInfoStore() *memInfoStore {
	return &memInfoStore{items: make(map[string]domain.MovieInfo)}
}

func (m *memInfoStore) Create(_ context.Context, p repository.MovieInfoParams) (domain.MovieInfo, error) {
	m.writes.Add(1)
	if m.failErr != nil {
		return domain.MovieInfo{}, m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	now := time.Now().UTC()
	info := domain.MovieInfo{
		ID:          fmt.Sprintf("mi-%d", m.seq),
		Name:        p.Name,
		Year:        p.Year,
		Cast:        slices.Clone(p.Cast),
		ReleaseDate: p.ReleaseDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.items[info.ID] = info
	m.order = append(m.order, info.ID)
	return info.Clone(), nil
}

func (m *memInfoStore) GetByID(_ context.Context, id string) (domain.MovieInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.items[id]
	if !ok {
		return domain.MovieInfo{}, repository.ErrNotFound
	}
	return info.Clone(), nil
}

func (m *memInfoStore) List(_ context.Context, year *int) ([]domain.MovieInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MovieInfo, 0)
	for _, id := range m.order {
		info, ok := m.items[id]
		if !ok || (year != nil && info.Year != *year) {
			continue
		}
		out = append(out, info.Clone())
	}
	return out, nil
}

func (m *memInfoStore) Update(_ context.Context, id string, p repository.MovieInfoParams) (domain.MovieInfo, error) {
	m.writes.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.items[id]
	if !ok {
		return domain.MovieInfo{}, repository.ErrNotFound
	}
	info.Name, info.Year, info.Cast, info.ReleaseDate = p.Name, p.Year, slices.Clone(p.Cast), p.ReleaseDate
	info.UpdatedAt = time.Now().UTC()
	m.items[id] = info
	return info.Clone(), nil
}

func (m *memInfoStore) Delete(_ context.Context, id string) error {
	m.writes.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memReviewStore struct {
	mu     sync.Mutex
	seq    int
	order  []string
	items  map[string]domain.Review
	writes atomic.Int32
}

func newMemReviewStore() *memReviewStore {
	return &memReviewStore{items: make(map[string]domain.Review)}
}

func (m *memReviewStore) Create(_ context.Context, p repository.ReviewCreateParams) (domain.Review, error) {
	m.writes.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	review := domain.Review{
		ID:          fmt.Sprintf("rv-%d", m.seq),
		MovieInfoID: p.MovieInfoID,
		Comment:     p.Comment,
		Rating:      p.Rating,
	}
	m.items[review.ID] = review
	m.order = append(m.order, review.ID)
	return review, nil
}

func (m *memReviewStore) GetByID(_ context.Context, id string) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	review, ok := m.items[id]
	if !ok {
		return domain.Review{}, repository.ErrNotFound
	}
	return review, nil
}

func (m *memReviewStore) List(_ context.Context, movieInfoID string) ([]domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Review, 0)
	for _, id := range m.order {
		review, ok := m.items[id]
		if !ok || (movieInfoID != "" && review.MovieInfoID != movieInfoID) {
			continue
		}
		out = append(out, review)
	}
	return out, nil
}

func (m *memReviewStore) Update(_ context.Context, id string, p repository.ReviewUpdateParams) (domain.Review, error) {
	m.writes.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	review, ok := m.items[id]
	if !ok {
		return domain.Review{}, repository.ErrNotFound
	}
	review.Comment, review.Rating = p.Comment, p.Rating
	m.items[id] = review
	return review, nil
}

func (m *memReviewStore) Delete(_ context.Context, id string) error {
	m.writes.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type fakeAggregator struct {
	getMovie func(ctx context.Context, id string) (domain.Movie, error)
	stream   func(ctx context.Context, fn func(domain.MovieInfo) error) error
}

func (f fakeAggregator) GetMovie(ctx context.Context, id string) (domain.Movie, error) {
	if f.getMovie == nil {
		return domain.Movie{}, errors.New("not configured")
	}
	return f.getMovie(ctx, id)
}

func (f fakeAggregator) StreamMovieInfos(ctx context.Context, fn func(domain.MovieInfo) error) error {
	if f.stream == nil {
		return errors.New("not configured")
	}
	return f.stream(ctx, fn)
}
