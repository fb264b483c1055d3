package explorer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch is returned when the geocoder has no result for a query.
	ErrNoMatch = errors.New("no location matches query")
	// ErrInvalidQuery is returned for blank search queries.
	ErrInvalidQuery = errors.New("search query is empty")

	ErrUpstream = errors.New("upstream provider failure")
	ErrStore    = errors.New("store failure")
)

// UpstreamError describes a failed call to an external provider: transport
// failure, non-2xx response, open circuit or a payload we could not map.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// StoreError wraps a failed relational store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// NewUpstreamError wraps err unless it already is an *UpstreamError.
func NewUpstreamError(provider string, status int, err error) error {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Provider: provider, StatusCode: status, Err: err}
}

// NewStoreError wraps err unless it already is a *StoreError.
func NewStoreError(op string, err error) error {
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
