package domain

// Movie is the aggregator's composite view: one movie info plus its reviews.
// It is built per request and never stored.
type Movie struct {
	Info    MovieInfo
	Reviews []Review
}
