// Package upstream calls the movie info and review services and classifies
// every outcome into a failure.Kind. Clients make exactly one attempt per
// call; retrying is the caller's business.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Clark-Hu/reactive-movies/internal/failure"
	"github.com/Clark-Hu/reactive-movies/internal/logger"
)

const (
	MovieInfoServiceName = "MoviesInfoService"
	ReviewServiceName    = "ReviewsService"

	maxErrorBody = 64 << 10
)

// Options controls the HTTP behaviour shared by all clients.
type Options struct {
	// Timeout bounds dialing, TLS and response headers. It does not bound the
	// whole exchange so that streams can stay open.
	Timeout time.Duration
	Logger  logger.Logger
	// Transport overrides the default transport, mostly for tests.
	Transport http.RoundTripper
}

type baseClient struct {
	service string
	baseURL *url.URL
	client  *http.Client
	logger  logger.Logger
}

func newBaseClient(service, rawURL string, opts Options) (*baseClient, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	parsed, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse %s url: %w", service, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse %s url: %q is not absolute", service, rawURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	inner := opts.Transport
	if inner == nil {
		inner = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	return &baseClient{
		service: service,
		baseURL: parsed,
		client: &http.Client{
			Transport: &loggingRoundTripper{inner: inner, service: service, logger: log},
		},
		logger: log,
	}, nil
}

// endpoint joins the base URL with an optional path segment and query.
func (c *baseClient) endpoint(segment string, query url.Values) string {
	u := *c.baseURL
	if segment != "" {
		u = *c.baseURL.JoinPath(segment)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *baseClient) get(ctx context.Context, endpoint, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, failure.New(failure.Transport, 0, fmt.Sprintf("Transport failure calling %s", c.service), err)
	}
	req.Header.Set("Accept", accept)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, failure.New(failure.Transport, 0, fmt.Sprintf("Transport failure calling %s", c.service), err)
	}
	return resp, nil
}

// classify turns a non-2xx response into a classified error. It consumes and
// closes the body.
func (c *baseClient) classify(resp *http.Response, notFoundMessage string) error {
	defer resp.Body.Close()
	body := readBody(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return failure.New(failure.NotFoundClient, resp.StatusCode, notFoundMessage, nil)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.logger.Infof("%s: client error status %d", c.service, resp.StatusCode)
		return failure.New(failure.OtherClient, resp.StatusCode, body, nil)
	case resp.StatusCode >= 500:
		c.logger.Infof("%s: server error status %d", c.service, resp.StatusCode)
		return failure.New(failure.UpstreamServer, resp.StatusCode, fmt.Sprintf("Server Exception in %s: %s", c.service, body), nil)
	default:
		return failure.New(failure.Transport, resp.StatusCode, fmt.Sprintf("Unexpected status %d from %s", resp.StatusCode, c.service), nil)
	}
}

func (c *baseClient) decodeFailure(err error) error {
	return failure.New(failure.Transport, 0, fmt.Sprintf("Transport failure decoding %s response", c.service), err)
}

func readBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
