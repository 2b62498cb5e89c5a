package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/reactive-movies/internal/domain"
)

// MovieInfosRepository provides persistence helpers for movie infos.
type MovieInfosRepository struct {
	pool *pgxpool.Pool
}

const movieInfoColumns = `
    id,
    name,
    year,
    "cast",
    release_date,
    created_at,
    updated_at
`

// MovieInfoParams bundles the writable fields of a movie info.
type MovieInfoParams struct {
	Name        string
	Year        int
	Cast        []string
	ReleaseDate *time.Time
}

// Create inserts a new movie info with a fresh identifier.
func (r *MovieInfosRepository) Create(ctx context.Context, params MovieInfoParams) (domain.MovieInfo, error) {
	query := fmt.Sprintf(`
        INSERT INTO movie_infos (id, name, year, "cast", release_date)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING %s
    `, movieInfoColumns)

	row := r.pool.QueryRow(ctx, query, uuid.NewString(), params.Name, params.Year, castOrEmpty(params.Cast), params.ReleaseDate)
	info, err := scanMovieInfo(row)
	if err != nil {
		return domain.MovieInfo{}, fmt.Errorf("insert movie info: %w", err)
	}
	return info, nil
}

// GetByID fetches a movie info by its identifier.
func (r *MovieInfosRepository) GetByID(ctx context.Context, id string) (domain.MovieInfo, error) {
	query := fmt.Sprintf(`SELECT %s FROM movie_infos WHERE id = $1`, movieInfoColumns)
	info, err := scanMovieInfo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MovieInfo{}, ErrNotFound
		}
		return domain.MovieInfo{}, err
	}
	return info, nil
}

// List returns movie infos in creation order, optionally restricted to a year.
func (r *MovieInfosRepository) List(ctx context.Context, year *int) ([]domain.MovieInfo, error) {
	query := fmt.Sprintf(`SELECT %s FROM movie_infos`, movieInfoColumns)
	var args []any
	if year != nil {
		query += ` WHERE year = $1`
		args = append(args, *year)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.MovieInfo, 0)
	for rows.Next() {
		info, err := scanMovieInfo(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update overwrites the writable fields; the identifier is preserved.
func (r *MovieInfosRepository) Update(ctx context.Context, id string, params MovieInfoParams) (domain.MovieInfo, error) {
	query := fmt.Sprintf(`
        UPDATE movie_infos
        SET name = $2,
            year = $3,
            "cast" = $4,
            release_date = $5,
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, movieInfoColumns)

	row := r.pool.QueryRow(ctx, query, id, params.Name, params.Year, castOrEmpty(params.Cast), params.ReleaseDate)
	info, err := scanMovieInfo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MovieInfo{}, ErrNotFound
		}
		return domain.MovieInfo{}, err
	}
	return info, nil
}

// Delete removes a movie info.
func (r *MovieInfosRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM movie_infos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMovieInfo(row pgx.Row) (domain.MovieInfo, error) {
	var (
		info        domain.MovieInfo
		releaseDate *time.Time
	)
	err := row.Scan(
		&info.ID,
		&info.Name,
		&info.Year,
		&info.Cast,
		&releaseDate,
		&info.CreatedAt,
		&info.UpdatedAt,
	)
	if err != nil {
		return domain.MovieInfo{}, err
	}
	if releaseDate != nil {
		d := time.Date(releaseDate.Year(), releaseDate.Month(), releaseDate.Day(), 0, 0, 0, 0, time.UTC)
		info.ReleaseDate = &d
	}
	return info, nil
}

// castOrEmpty keeps the NOT NULL column satisfied for a nil slice.
func castOrEmpty(cast []string) []string {
	if cast == nil {
		return []string{}
	}
	return cast
}
