package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Panahifarah/kalpak/internal/utils"
)

// DefaultAttemptTimeout bounds a single request/response cycle. A timed
// out attempt counts as a retryable error, never as run failure.
const DefaultAttemptTimeout = 10 * time.Second

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError marks a response status that abandons the URL immediately,
// without consuming further attempts.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d %s", e.Code, http.StatusText(e.Code))
}

var errNoLocation = errors.New("redirect response without Location header")

type Config struct {
	// MaxConnections caps concurrently in-flight requests across every
	// Fetch call sharing this Fetcher. Values below 1 are clamped.
	MaxConnections int
	AttemptTimeout time.Duration
	// UserAgent supplies the identification string for each attempt.
	// Defaults to a random pick from the built-in browser pool.
	UserAgent func() string
	// Client overrides the HTTP client, mainly for tests.
	Client HTTPDoer
}

// Fetcher retrieves single URLs through a retry/redirect loop. The
// embedded semaphore is the connection pool shared by all concurrent
// invocations; it is the only state shared between them.
type Fetcher struct {
	client  HTTPDoer
	pool    *semaphore.Weighted
	agent   func() string
	timeout time.Duration
}

func New(cfg Config) *Fetcher {
	if cfg.MaxConnections < 1 {
		cfg.MaxConnections = 1
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.UserAgent == nil {
		cfg.UserAgent = utils.GetRandomUserAgent
	}
	if cfg.Client == nil {
		cfg.Client = newHTTPClient(cfg.AttemptTimeout)
	}
	return &Fetcher{
		client:  cfg.Client,
		pool:    semaphore.NewWeighted(int64(cfg.MaxConnections)),
		agent:   cfg.UserAgent,
		timeout: cfg.AttemptTimeout,
	}
}

// newHTTPClient builds a client with redirects disabled; redirect
// chasing is handled by the retry loop so each hop counts against the
// attempt budget.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100, // for connection reuse
			IdleConnTimeout:     90 * time.Second,
			DisableCompression:  true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type action int

const (
	actSuccess action = iota
	actRedirect
	actRetry
	actAbort
)

// classify maps a response to the next transition of the retry loop. A
// redirect with a Location header rewrites the working URL; one without
// is retried like a transport error. Anything that is not a 200 or a
// 301/302/303 abandons the URL.
func classify(status int, location string) action {
	switch status {
	case http.StatusOK:
		return actSuccess
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther:
		if location == "" {
			return actRetry
		}
		return actRedirect
	default:
		return actAbort
	}
}

// Fetch runs the attempt sequence for one URL and returns the body of
// the first 200 response. Each redirect hop and each retryable error
// consumes one attempt of the budget. retries must be >= 1; the caller
// validates that at configuration time.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, retries int, resume bool) ([]byte, error) {
	log := utils.GetLogger("fetcher")
	target := rawURL
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		log.Debug().Str("url", target).Int("attempt", attempt).Msg("Attempting to fetch URL")
		body, redirect, err := f.attempt(ctx, target, resume)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				log.Error().Str("url", target).Int("status", statusErr.Code).Msg("Failed to fetch URL")
				return nil, err
			}
			lastErr = err
			log.Warn().Err(err).Str("url", target).Int("attempt", attempt).Msg("Network error")
			continue
		}
		if redirect != "" {
			log.Info().Str("url", target).Str("location", redirect).Msg("Redirected")
			target = redirect
			continue
		}
		log.Info().Str("url", target).Int("size", len(body)).Msg("Successfully fetched URL")
		return body, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all %d attempts failed for %s: %w", retries, rawURL, lastErr)
	}
	return nil, fmt.Errorf("all %d attempts failed for %s", retries, rawURL)
}

// attempt performs one request/response cycle. The pool slot is held for
// the duration of the network I/O, including the body read.
func (f *Fetcher) attempt(ctx context.Context, target string, resume bool) (body []byte, redirect string, err error) {
	if err := f.pool.Acquire(ctx, 1); err != nil {
		return nil, "", err
	}
	defer f.pool.Release(1)

	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", f.agent())
	if resume {
		req.Header.Set("Range", "bytes=0-")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	switch classify(resp.StatusCode, resp.Header.Get("Location")) {
	case actSuccess:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", err
		}
		return data, "", nil
	case actRedirect:
		return nil, resp.Header.Get("Location"), nil
	case actAbort:
		return nil, "", &StatusError{Code: resp.StatusCode}
	default:
		return nil, "", errNoLocation
	}
}
