package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/reactive-movies/internal/domain"
)

// ReviewsRepository provides helpers for movie reviews.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

const reviewColumns = `id, movie_info_id, comment, rating, created_at, updated_at`

// ReviewCreateParams captures the payload required to create a review.
type ReviewCreateParams struct {
	MovieInfoID string
	Comment     string
	Rating      float64
}

// ReviewUpdateParams captures the fields a review update may overwrite.
type ReviewUpdateParams struct {
	Comment string
	Rating  float64
}

// Create inserts a review with a fresh identifier.
func (r *ReviewsRepository) Create(ctx context.Context, params ReviewCreateParams) (domain.Review, error) {
	query := fmt.Sprintf(`
        INSERT INTO reviews (id, movie_info_id, comment, rating)
        VALUES ($1,$2,$3,$4)
        RETURNING %s
    `, reviewColumns)

	review, err := scanReview(r.pool.QueryRow(ctx, query, uuid.NewString(), params.MovieInfoID, params.Comment, params.Rating))
	if err != nil {
		return domain.Review{}, fmt.Errorf("insert review: %w", err)
	}
	return review, nil
}

// GetByID fetches a review by its identifier.
func (r *ReviewsRepository) GetByID(ctx context.Context, id string) (domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)
	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// List returns reviews in creation order. An empty movieInfoID lists every
// review. No match yields an empty slice, never ErrNotFound.
func (r *ReviewsRepository) List(ctx context.Context, movieInfoID string) ([]domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews`, reviewColumns)
	var args []any
	if movieInfoID != "" {
		query += ` WHERE movie_info_id = $1`
		args = append(args, movieInfoID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update overwrites comment and rating of an existing review.
func (r *ReviewsRepository) Update(ctx context.Context, id string, params ReviewUpdateParams) (domain.Review, error) {
	query := fmt.Sprintf(`
        UPDATE reviews
        SET comment = $2,
            rating = $3,
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, reviewColumns)

	review, err := scanReview(r.pool.QueryRow(ctx, query, id, params.Comment, params.Rating))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// Delete removes a review.
func (r *ReviewsRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(
		&review.ID,
		&review.MovieInfoID,
		&review.Comment,
		&review.Rating,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}
