package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/kiranshivaraju/credgate/internal/api/response"
	"github.com/kiranshivaraju/credgate/internal/apikey"
	"github.com/kiranshivaraju/credgate/pkg/models"
	"github.com/rs/zerolog/log"
)

// KeyIssuer defines the interface the API key handler depends on.
type KeyIssuer interface {
	Issue(ctx context.Context, userID, purpose string) (*models.IssuedAPIKey, error)
}

// NewCreateAPIKeyHandler returns an http.HandlerFunc for POST /auth/api-key.
func NewCreateAPIKeyHandler(issuer KeyIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := bindParams(r)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
			return
		}

		userID := params.Get("userId")
		if userID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "userId is required")
			return
		}

		issued, err := issuer.Issue(r.Context(), userID, params.Get("apiKeyPurpose"))
		if err != nil {
			switch {
			case errors.Is(err, apikey.ErrReferenceNotFound):
				response.Error(w, http.StatusNotFound, "USER_NOT_FOUND", "User does not exist")
			case errors.Is(err, apikey.ErrPersistence):
				log.Ctx(r.Context()).Error().Err(err).Msg("issue api key")
				response.Error(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Failed to store API key")
			default:
				log.Ctx(r.Context()).Error().Err(err).Msg("issue api key")
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
			}
			return
		}

		response.JSON(w, issued)
	}
}
