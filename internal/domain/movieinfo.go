package domain

import (
	"slices"
	"time"
)

// MovieInfo is the descriptive record owned by the movie info service.
type MovieInfo struct {
	ID          string
	Name        string
	Year        int
	Cast        []string
	ReleaseDate *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone returns a copy that shares no mutable state with m, suitable for
// publishing as a stream snapshot.
func (m MovieInfo) Clone() MovieInfo {
	out := m
	out.Cast = slices.Clone(m.Cast)
	if m.ReleaseDate != nil {
		d := *m.ReleaseDate
		out.ReleaseDate = &d
	}
	return out
}
