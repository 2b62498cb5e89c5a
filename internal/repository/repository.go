package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/reactive-movies/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// Repository aggregates the repositories backed by one pool. Each service
// only uses the half it owns.
type Repository struct {
	MovieInfos *MovieInfosRepository
	Reviews    *ReviewsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		MovieInfos: &MovieInfosRepository{pool: pool},
		Reviews:    &ReviewsRepository{pool: pool},
	}
}
