package upstream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Clark-Hu/reactive-movies/internal/logger"
)

// RequestIDHeader carries the inbound request id to upstream services.
const RequestIDHeader = "X-Request-Id"

// loggingRoundTripper stamps the request id on every outbound call and logs
// its outcome.
type loggingRoundTripper struct {
	inner   http.RoundTripper
	service string
	logger  logger.Logger
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	requestID := middleware.GetReqID(req.Context())
	if requestID == "" {
		requestID = req.Header.Get(RequestIDHeader)
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req = req.Clone(req.Context())
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := l.inner.RoundTrip(req)
	if err != nil {
		l.logger.Warnf("upstream %s %s %s failed request_id=%s duration=%s: %v",
			l.service, req.Method, req.URL.String(), requestID, time.Since(start), err)
		return nil, err
	}
	l.logger.Debugf("upstream %s %s %s status=%d request_id=%s duration=%s",
		l.service, req.Method, req.URL.String(), resp.StatusCode, requestID, time.Since(start))
	return resp, nil
}
