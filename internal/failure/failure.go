// Package failure defines the closed set of error kinds that cross service
// boundaries. Errors are classified once, close to where they happen, and
// travel unchanged until the HTTP layer translates them.
package failure

import (
	"errors"
	"fmt"
)

// Kind enumerates every classified failure. The set is closed: callers switch
// over it exhaustively.
type Kind int

const (
	// NotFoundClient means an upstream answered 404 for the requested entity.
	NotFoundClient Kind = iota + 1
	// OtherClient covers every other 4xx answer from an upstream.
	OtherClient
	// UpstreamServer covers 5xx answers from an upstream.
	UpstreamServer
	// Transport covers dial, timeout and wire decoding problems.
	Transport
	// Validation is raised by the write path before touching the store.
	Validation
	// ReviewNotFound is raised when a review update/delete targets an unknown id.
	ReviewNotFound
	// MovieInfoNotFound is raised when a movie info update/delete targets an unknown id.
	MovieInfoNotFound
	// SinkDelivery is raised when a stream publish fails. It is logged, never returned to callers.
	SinkDelivery
)

func (k Kind) String() string {
	switch k {
	case NotFoundClient:
		return "NotFoundClient"
	case OtherClient:
		return "OtherClient"
	case UpstreamServer:
		return "UpstreamServer"
	case Transport:
		return "Transport"
	case Validation:
		return "Validation"
	case ReviewNotFound:
		return "ReviewNotFound"
	case MovieInfoNotFound:
		return "MovieInfoNotFound"
	case SinkDelivery:
		return "SinkDelivery"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a classified failure. Status holds the upstream HTTP status when
// one was observed, zero otherwise.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds a classified error.
func New(kind Kind, status int, message string, cause error) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Err: cause}
}

// As extracts the classified error from err's chain.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// KindOf returns the kind of err, or zero when err is not classified.
func KindOf(err error) Kind {
	if fe, ok := As(err); ok {
		return fe.Kind
	}
	return 0
}

// Is reports whether err is classified with the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
