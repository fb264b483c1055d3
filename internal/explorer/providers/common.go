package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/city-explorer/internal/explorer"
	"github.com/i474232898/city-explorer/internal/observability"
)

var (
	errCircuitOpen    = errors.New("circuit breaker open")
	errNoHTTPClient   = errors.New("http client not configured")
	errMissingAPIKey  = errors.New("api key is not configured")
	errUnexpected     = errors.New("unexpected status code")
	errMalformedReply = errors.New("malformed response")
)

// Option customizes a provider.
type Option func(*upstream)

// WithBaseURL points a provider at a different endpoint.
func WithBaseURL(u string) Option {
	return func(up *upstream) { up.baseURL = u }
}

// upstream is the HTTP plumbing shared by every provider: one circuit
// breaker per provider, no retries.
type upstream struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func newUpstream(name, baseURL string, client *http.Client, opts ...Option) upstream {
	up := upstream{
		name:    name,
		baseURL: baseURL,
		client:  client,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
	for _, o := range opts {
		o(&up)
	}
	return up
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: %d", errUnexpected, e.code)
}

func (e *statusError) Unwrap() error {
	return errUnexpected
}

// getJSON issues a GET to rawURL and decodes a 2xx JSON body into out.
// Every failure is reported as an *explorer.UpstreamError.
func (u upstream) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	if u.client == nil {
		return u.fail(0, errNoHTTPClient)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return u.fail(0, fmt.Errorf("cannot build a request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	result, err := u.circuit.Execute(func() (interface{}, error) {
		resp, execErr := u.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			drain(resp)
			return nil, &statusError{code: resp.StatusCode}
		}
		return resp, nil
	})
	observability.ObserveUpstream(u.name, err, time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return u.fail(0, fmt.Errorf("%w: %v", errCircuitOpen, err))
		}
		var se *statusError
		if errors.As(err, &se) {
			return u.fail(se.code, errUnexpected)
		}
		return u.fail(0, fmt.Errorf("cannot send a request: %w", err))
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return u.fail(0, fmt.Errorf("unexpected result type from circuit breaker"))
	}
	defer drain(resp)

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return u.fail(0, fmt.Errorf("cannot parse a response: %w", err))
	}
	return nil
}

func (u upstream) fail(status int, err error) error {
	return &explorer.UpstreamError{Provider: u.name, StatusCode: status, Err: err}
}

func (u upstream) malformed(what string) error {
	return u.fail(0, fmt.Errorf("%w: %s", errMalformedReply, what))
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// formatCoord renders a coordinate without trailing zeros, e.g. 47.6062.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
