package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/reactive-movies/internal/broadcast"
	"github.com/Clark-Hu/reactive-movies/internal/domain"
	"github.com/Clark-Hu/reactive-movies/internal/failure"
	"github.com/Clark-Hu/reactive-movies/internal/movies"
	"github.com/Clark-Hu/reactive-movies/internal/retry"
	"github.com/Clark-Hu/reactive-movies/internal/upstream"
)

func TestGetMovie(t *testing.T) {
	release := time.Date(2005, time.June, 15, 0, 0, 0, 0, time.UTC)
	agg := fakeAggregator{getMovie: func(_ context.Context, id string) (domain.Movie, error) {
		return domain.Movie{
			Info:    domain.MovieInfo{ID: id, Name: "Batman Begins", Year: 2005, Cast: []string{"Christian Bale"}, ReleaseDate: &release},
			Reviews: []domain.Review{{ID: "rv-1", MovieInfoID: id, Comment: "Awesome Movie", Rating: 9}},
		}, nil
	}}
	srv := NewMoviesServer(testConfig(), agg, nil)

	for _, path := range []string{"/v1/movies/abc", "/movies/abc"} {
		rec := do(t, srv.Handler(), http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.JSONEq(t, `{
			"movieInfo": {"movieInfoId":"abc","name":"Batman Begins","year":2005,"cast":["Christian Bale"],"release_date":"2005-06-15"},
			"reviewList": [{"reviewId":"rv-1","movieInfoId":"abc","comment":"Awesome Movie","rating":9}]
		}`, rec.Body.String())
	}
}

func TestGetMovieEmptyReviewsRenderAsList(t *testing.T) {
	agg := fakeAggregator{getMovie: func(_ context.Context, id string) (domain.Movie, error) {
		return domain.Movie{Info: domain.MovieInfo{ID: id, Name: "Batman Begins", Year: 2005, Cast: []string{"Christian Bale"}}}, nil
	}}
	rec := do(t, NewMoviesServer(testConfig(), agg, nil).Handler(), http.MethodGet, "/v1/movies/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.JSONEq(t, `[]`, string(body["reviewList"]))
}

func TestGetMovieFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", failure.New(failure.NotFoundClient, 404, "There is no Movie Info for the passed in ID: abc", nil), 404, "There is no Movie Info for the passed in ID: abc"},
		{"client error", failure.New(failure.OtherClient, 422, "bad id format", nil), 422, "bad id format"},
		{"server error", failure.New(failure.UpstreamServer, 500, "Server Exception in MoviesInfoService: boom", nil), 500, "Server Exception in MoviesInfoService: boom"},
		{"transport", failure.New(failure.Transport, 0, "Transport failure calling MoviesInfoService", errors.New("refused")), 500, "Transport failure calling MoviesInfoService"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := fakeAggregator{getMovie: func(context.Context, string) (domain.Movie, error) {
				return domain.Movie{}, tt.err
			}}
			rec := do(t, NewMoviesServer(testConfig(), agg, nil).Handler(), http.MethodGet, "/v1/movies/abc", "")
			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantMsg, decodeBody[errorResponse](t, rec).Message)
		})
	}
}

func TestStreamMovies(t *testing.T) {
	agg := fakeAggregator{stream: func(ctx context.Context, fn func(domain.MovieInfo) error) error {
		for _, id := range []string{"a", "b"} {
			if err := fn(domain.MovieInfo{ID: id, Name: "n", Year: 2000, Cast: []string{"c"}}); err != nil {
				return err
			}
		}
		<-ctx.Done()
		return ctx.Err()
	}}
	ts := httptest.NewServer(NewMoviesServer(testConfig(), agg, nil).Handler())
	t.Cleanup(ts.Close)

	events := readEvents(t, ts, "/v1/movies/stream")
	for _, want := range []string{"a", "b"} {
		var got movieInfoResponse
		require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events)), &got))
		require.Equal(t, want, got.ID)
	}
}

func TestStreamMoviesReportsUpstreamFailure(t *testing.T) {
	agg := fakeAggregator{stream: func(context.Context, func(domain.MovieInfo) error) error {
		return failure.New(failure.UpstreamServer, 503, "Server Exception in MoviesInfoService: down", nil)
	}}
	ts := httptest.NewServer(NewMoviesServer(testConfig(), agg, nil).Handler())
	t.Cleanup(ts.Close)

	events := readEvents(t, ts, "/v1/movies/stream")
	var got errorResponse
	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events)), &got))
	require.Equal(t, "UPSTREAM_SERVER_ERROR", got.Code)
	require.Equal(t, "Server Exception in MoviesInfoService: down", got.Message)
}

// TestMoviesEndToEnd runs the three services in-process: the aggregator
// reaches the movie info and review services over real HTTP.
func TestMoviesEndToEnd(t *testing.T) {
	infoSink := broadcast.New[domain.MovieInfo]()
	t.Cleanup(infoSink.Close)
	reviewSink := broadcast.New[domain.Review]()
	t.Cleanup(reviewSink.Close)

	infoSrv := NewMovieInfoServer(testConfig(), fakePinger{}, newMemInfoStore(), infoSink, nil)
	reviewSrv := NewReviewServer(testConfig(), fakePinger{}, newMemReviewStore(), reviewSink, nil)
	infoTS := httptest.NewServer(infoSrv.Handler())
	t.Cleanup(infoTS.Close)
	reviewTS := httptest.NewServer(reviewSrv.Handler())
	t.Cleanup(reviewTS.Close)

	infoClient, err := upstream.NewMovieInfoClient(infoTS.URL+"/v1/movieInfos", upstream.Options{Timeout: time.Second})
	require.NoError(t, err)
	reviewClient, err := upstream.NewReviewClient(reviewTS.URL+"/v1/reviews", upstream.Options{Timeout: time.Second})
	require.NoError(t, err)
	policy := retry.Policy{MaxRetries: 3, Delay: time.Millisecond, RetryTransport: true}
	moviesSrv := NewMoviesServer(testConfig(), movies.NewService(infoClient, reviewClient, policy, nil), nil)

	rec := do(t, infoSrv.Handler(), http.MethodPost, "/v1/movieInfos", batmanBegins)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[movieInfoResponse](t, rec).ID

	rec = do(t, reviewSrv.Handler(), http.MethodPost, "/v1/reviews", `{"movieInfoId":"`+id+`","comment":"Awesome Movie","rating":9.0}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, moviesSrv.Handler(), http.MethodGet, "/v1/movies/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[movieResponse](t, rec)
	require.Equal(t, "Batman Begins", got.MovieInfo.Name)
	require.Len(t, got.ReviewList, 1)
	require.Equal(t, "Awesome Movie", got.ReviewList[0].Comment)

	rec = do(t, moviesSrv.Handler(), http.MethodGet, "/v1/movies/missing", "")
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND", "There is no Movie Info for the passed in ID: missing")
}
