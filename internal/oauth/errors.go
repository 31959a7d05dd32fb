package oauth

import (
	"errors"
	"fmt"
)

// Sentinel errors for token exchange failures.
var (
	ErrInvalidGrant      = errors.New("oauth: invalid grant")
	ErrUpstreamAuth      = errors.New("oauth: upstream authorization server rejected the exchange")
	ErrMalformedResponse = errors.New("oauth: malformed upstream token response")
	ErrTransport         = errors.New("oauth: upstream unreachable")
)

// UpstreamError carries the upstream status and body for diagnostics.
// It matches ErrUpstreamAuth with errors.Is.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", ErrUpstreamAuth, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamAuth
}
