package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/kiranshivaraju/credgate/internal/api/response"
	"github.com/kiranshivaraju/credgate/internal/oauth"
	"github.com/kiranshivaraju/credgate/pkg/models"
	"github.com/rs/zerolog/log"
)

// TokenExchanger defines the interface the token handler depends on.
type TokenExchanger interface {
	Exchange(ctx context.Context, req models.GrantRequest) (*models.TokenResult, error)
}

// NewTokenHandler returns an http.HandlerFunc for POST /auth/token.
func NewTokenHandler(ex TokenExchanger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := bindParams(r)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
			return
		}

		req := models.GrantRequest{
			ClientID:     params.Get("client_id"),
			ClientSecret: params.Get("client_secret"),
			GrantType:    params.Get("grant_type"),
			Code:         params.Get("code"),
			RefreshToken: params.Get("refresh_token"),
		}
		for _, required := range []struct{ name, value string }{
			{"client_id", req.ClientID},
			{"client_secret", req.ClientSecret},
			{"grant_type", req.GrantType},
		} {
			if required.value == "" {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", required.name+" is required")
				return
			}
		}

		result, err := ex.Exchange(r.Context(), req)
		if err != nil {
			logger := log.Ctx(r.Context())
			switch {
			case errors.Is(err, oauth.ErrInvalidGrant):
				response.Error(w, http.StatusBadRequest, "INVALID_GRANT", err.Error())
			case errors.Is(err, oauth.ErrUpstreamAuth):
				logger.Warn().Err(err).Msg("upstream rejected token exchange")
				response.Error(w, http.StatusBadGateway, "UPSTREAM_AUTH_FAILED",
					"The authorization server rejected the request")
			case errors.Is(err, oauth.ErrMalformedResponse):
				logger.Error().Err(err).Msg("malformed upstream token response")
				response.Error(w, http.StatusBadGateway, "MALFORMED_UPSTREAM_RESPONSE",
					"The authorization server returned an invalid response")
			case errors.Is(err, oauth.ErrTransport):
				logger.Error().Err(err).Msg("token endpoint unreachable")
				response.Error(w, http.StatusInternalServerError, "UPSTREAM_UNREACHABLE",
					"The authorization server could not be reached")
			default:
				logger.Error().Err(err).Msg("token exchange")
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
			}
			return
		}

		response.JSON(w, result)
	}
}
