package httpserver

import (
	"net/http"

	"github.com/Clark-Hu/reactive-movies/internal/failure"
)

const internalErrorMessage = "Internal server error"

// translate maps an error to the status, code and message exposed to
// clients. Unclassified errors never leak their text.
func translate(err error) (int, string, string) {
	fe, ok := failure.As(err)
	if !ok {
		return http.StatusInternalServerError, "INTERNAL_ERROR", internalErrorMessage
	}

	switch fe.Kind {
	case failure.NotFoundClient:
		return clientStatus(fe.Status, http.StatusNotFound), "NOT_FOUND", fe.Message
	case failure.OtherClient:
		return clientStatus(fe.Status, http.StatusBadRequest), "UPSTREAM_CLIENT_ERROR", fe.Message
	case failure.UpstreamServer:
		return http.StatusInternalServerError, "UPSTREAM_SERVER_ERROR", fe.Message
	case failure.Transport:
		return http.StatusInternalServerError, "UPSTREAM_UNAVAILABLE", fe.Message
	case failure.Validation:
		return http.StatusBadRequest, "VALIDATION_ERROR", fe.Message
	case failure.ReviewNotFound, failure.MovieInfoNotFound:
		return http.StatusNotFound, "NOT_FOUND", fe.Message
	case failure.SinkDelivery:
		return http.StatusInternalServerError, "INTERNAL_ERROR", internalErrorMessage
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", internalErrorMessage
	}
}

// clientStatus echoes an upstream 4xx, falling back when none was observed.
func clientStatus(status, fallback int) int {
	if status >= 400 && status < 500 {
		return status
	}
	return fallback
}
