// Package oauth proxies OAuth2 token exchanges to an upstream authorization server.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kiranshivaraju/credgate/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const maxDiagnosticBody = 4 << 10

// Exchanger forwards grant requests to a fixed token endpoint.
type Exchanger struct {
	tokenURL   string
	httpClient *http.Client
}

// NewExchanger creates an Exchanger. A nil client gets a default with timeout.
func NewExchanger(tokenURL string, client *http.Client, timeout time.Duration) *Exchanger {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Exchanger{tokenURL: tokenURL, httpClient: withJSONBodyTransport(client)}
}

// Validate checks that the grant carries the credential its type requires.
// It never touches the network.
func Validate(req models.GrantRequest) error {
	switch req.GrantType {
	case models.GrantTypeAuthorizationCode:
		if req.Code == "" {
			return fmt.Errorf("%w: code is required for grant_type %s", ErrInvalidGrant, req.GrantType)
		}
	case models.GrantTypeRefreshToken:
		if req.RefreshToken == "" {
			return fmt.Errorf("%w: refresh_token is required for grant_type %s", ErrInvalidGrant, req.GrantType)
		}
	default:
		return fmt.Errorf("%w: unsupported grant_type %q", ErrInvalidGrant, req.GrantType)
	}
	return nil
}

// Exchange validates req, posts it to the token endpoint and normalizes the
// response. On any error the returned result is nil.
func (e *Exchanger) Exchange(ctx context.Context, req models.GrantRequest) (*models.TokenResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	cfg := &oauth2.Config{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  e.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)

	var (
		tok *oauth2.Token
		err error
	)
	switch req.GrantType {
	case models.GrantTypeAuthorizationCode:
		tok, err = cfg.Exchange(ctx, req.Code)
	case models.GrantTypeRefreshToken:
		tok, err = cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: req.RefreshToken}).Token()
	}
	if err != nil {
		err = classifyError(err)
		log.Ctx(ctx).Warn().Err(err).
			Str("grant_type", req.GrantType).
			Str("client_id", req.ClientID).
			Msg("token exchange failed")
		return nil, err
	}

	return normalize(tok)
}

// classifyError maps x/oauth2 and transport errors to sentinel errors.
func classifyError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		status := 0
		if rErr.Response != nil {
			status = rErr.Response.StatusCode
		}
		body := rErr.Body
		if len(body) > maxDiagnosticBody {
			body = body[:maxDiagnosticBody]
		}
		return &UpstreamError{StatusCode: status, Body: string(body)}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	// x/oauth2 reports unparseable bodies and a missing access_token as
	// plain errors.
	return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
}

// normalize reads the fields from the raw upstream body rather than from the
// parsed token: x/oauth2 echoes the request's refresh token when the
// response omits one.
func normalize(tok *oauth2.Token) (*models.TokenResult, error) {
	accessToken, ok := stringField(tok.Extra("access_token"))
	if !ok || accessToken == "" {
		return nil, fmt.Errorf("%w: access_token missing or not a string", ErrMalformedResponse)
	}
	tokenType, ok := stringField(tok.Extra("token_type"))
	if !ok || tokenType == "" {
		return nil, fmt.Errorf("%w: token_type missing or not a string", ErrMalformedResponse)
	}
	expiresIn, ok := intField(tok.Extra("expires_in"))
	if !ok {
		return nil, fmt.Errorf("%w: expires_in missing or not an integer", ErrMalformedResponse)
	}

	result := &models.TokenResult{
		AccessToken: accessToken,
		TokenType:   tokenType,
		ExpiresIn:   expiresIn,
	}
	if v, ok := stringField(tok.Extra("refresh_token")); ok && v != "" {
		result.RefreshToken = &v
	}
	if v, ok := stringField(tok.Extra("scope")); ok && v != "" {
		result.Scope = &v
	}
	return result, nil
}

func stringField(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// intField accepts JSON numbers with no fractional part and decimal strings.
// Form-encoded responses surface integers as int64 through Token.Extra.
func intField(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n < 0 || n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case int64:
		return n, n >= 0
	case json.Number:
		i, err := n.Int64()
		return i, err == nil && i >= 0
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil && i >= 0
	default:
		return 0, false
	}
}
