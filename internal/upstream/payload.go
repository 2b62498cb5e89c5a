package upstream

import (
	"time"

	"github.com/Clark-Hu/reactive-movies/internal/domain"
)

const dateLayout = "2006-01-02"

type movieInfoPayload struct {
	ID          string   `json:"movieInfoId"`
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Cast        []string `json:"cast"`
	ReleaseDate *string  `json:"release_date"`
}

type reviewPayload struct {
	ID          string  `json:"reviewId"`
	MovieInfoID string  `json:"movieInfoId"`
	Comment     string  `json:"comment"`
	Rating      float64 `json:"rating"`
}

func (p movieInfoPayload) toDomain() (domain.MovieInfo, error) {
	info := domain.MovieInfo{
		ID:   p.ID,
		Name: p.Name,
		Year: p.Year,
		Cast: p.Cast,
	}
	if p.ReleaseDate != nil && *p.ReleaseDate != "" {
		d, err := time.Parse(dateLayout, *p.ReleaseDate)
		if err != nil {
			return domain.MovieInfo{}, err
		}
		info.ReleaseDate = &d
	}
	return info, nil
}

func (p reviewPayload) toDomain() domain.Review {
	return domain.Review{
		ID:          p.ID,
		MovieInfoID: p.MovieInfoID,
		Comment:     p.Comment,
		Rating:      p.Rating,
	}
}
