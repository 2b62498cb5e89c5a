package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/reactive-movies/internal/broadcast"
	"github.com/Clark-Hu/reactive-movies/internal/domain"
)

type reviewFixture struct {
	store *memReviewStore
	sink  *broadcast.Sink[domain.Review]
	srv   *Server
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	store := newMemReviewStore()
	sink := broadcast.New[domain.Review]()
	t.Cleanup(sink.Close)
	return &reviewFixture{
		store: store,
		sink:  sink,
		srv:   NewReviewServer(testConfig(), fakePinger{}, store, sink, nil),
	}
}

func TestCreateReview(t *testing.T) {
	f := newReviewFixture(t)

	rec := do(t, f.srv.Handler(), http.MethodPost, "/v1/reviews", `{"reviewId":null,"movieInfoId":"mi-1","comment":"Awesome Movie","rating":9.0}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decodeBody[reviewResponse](t, rec)
	require.Equal(t, "rv-1", got.ID)
	require.Equal(t, "mi-1", got.MovieInfoID)
	require.Equal(t, "Awesome Movie", got.Comment)
	require.Equal(t, 9.0, got.Rating)
	require.Equal(t, uint64(1), f.sink.Len())
}

func TestCreateReviewValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "null movie info and negative rating",
			body: `{"movieInfoId":null,"comment":"Awesome Movie","rating":-9.0}`,
			want: "rating.movieInfoId : must not be null,rating.negative : please pass a non-negative value",
		},
		{
			name: "missing movie info",
			body: `{"comment":"Awesome Movie","rating":9.0}`,
			want: "rating.movieInfoId : must not be null",
		},
		{
			name: "negative rating",
			body: `{"movieInfoId":"mi-1","rating":-0.5}`,
			want: "rating.negative : please pass a non-negative value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReviewFixture(t)
			rec := do(t, f.srv.Handler(), http.MethodPost, "/v1/reviews", tt.body)
			requireError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR", tt.want)
			require.Zero(t, f.store.writes.Load())
			require.Zero(t, f.sink.Len())
		})
	}
}

func TestListReviews(t *testing.T) {
	f := newReviewFixture(t)
	h := f.srv.Handler()

	for _, body := range []string{
		`{"movieInfoId":"mi-1","comment":"Great","rating":8}`,
		`{"movieInfoId":"mi-1","comment":"Fine","rating":6}`,
		`{"movieInfoId":"mi-2","comment":"Meh","rating":4}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/v1/reviews", body).Code)
	}

	rec := do(t, h, http.MethodGet, "/v1/reviews", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[[]reviewResponse](t, rec), 3)

	rec = do(t, h, http.MethodGet, "/v1/reviews?movieInfoId=mi-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[[]reviewResponse](t, rec)
	require.Len(t, got, 2)
	require.Equal(t, "Great", got[0].Comment)

	rec = do(t, h, http.MethodGet, "/v1/reviews?movieInfoId=unknown", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestReviewUpdateAndDelete(t *testing.T) {
	f := newReviewFixture(t)
	h := f.srv.Handler()

	rec := do(t, h, http.MethodPost, "/v1/reviews", `{"movieInfoId":"mi-1","comment":"Awesome Movie","rating":9.0}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[reviewResponse](t, rec).ID

	rec = do(t, h, http.MethodPut, "/v1/reviews/"+id, `{"movieInfoId":"mi-1","comment":"Not an Awesome Movie","rating":8.0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[reviewResponse](t, rec)
	require.Equal(t, id, updated.ID)
	require.Equal(t, "Not an Awesome Movie", updated.Comment)
	require.Equal(t, 8.0, updated.Rating)

	rec = do(t, h, http.MethodPut, "/v1/reviews/"+id, `{"rating":-1}`)
	requireError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR", "rating.negative : please pass a non-negative value")

	rec = do(t, h, http.MethodGet, "/v1/reviews/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/v1/reviews/"+id, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec = do(t, h, method, "/v1/reviews/"+id, "")
		requireError(t, rec, http.StatusNotFound, "NOT_FOUND", "Review not found for the given Review id "+id)
	}
	rec = do(t, h, http.MethodPut, "/v1/reviews/abc", `{"comment":"x","rating":1}`)
	requireError(t, rec, http.StatusNotFound, "NOT_FOUND", "Review not found for the given Review id abc")
}

func TestStreamReviews(t *testing.T) {
	f := newReviewFixture(t)
	ts := httptest.NewServer(f.srv.Handler())
	t.Cleanup(ts.Close)
	h := f.srv.Handler()

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/v1/reviews", `{"movieInfoId":"mi-1","comment":"one","rating":1}`).Code)
	events := readEvents(t, ts, "/v1/reviews/stream")
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/v1/reviews", `{"movieInfoId":"mi-1","comment":"two","rating":2}`).Code)

	for _, want := range []string{"one", "two"} {
		var got reviewResponse
		require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events)), &got))
		require.Equal(t, want, got.Comment)
	}
}

func TestStreamEndsWhenSinkCloses(t *testing.T) {
	f := newReviewFixture(t)
	ts := httptest.NewServer(f.srv.Handler())
	t.Cleanup(ts.Close)

	events := readEvents(t, ts, "/v1/reviews/stream")
	f.sink.Close()

	select {
	case _, ok := <-events:
		require.False(t, ok, "expected stream to end without events")
	case <-timeout():
		t.Fatalf("stream did not end after sink close")
	}
}
