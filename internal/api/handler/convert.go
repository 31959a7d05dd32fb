package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/credgate/internal/api/response"
	"github.com/kiranshivaraju/credgate/internal/rates"
	"github.com/kiranshivaraju/credgate/pkg/models"
	"github.com/rs/zerolog/log"
)

// RateProvider defines the interface the conversion handler depends on.
type RateProvider interface {
	GetRate(ctx context.Context, base, target string) (float64, error)
}

// NewConvertHandler returns an http.HandlerFunc for GET /convert/{base}/{target}/{amount}.
func NewConvertHandler(provider RateProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := chi.URLParam(r, "base")
		target := chi.URLParam(r, "target")

		amount, err := strconv.ParseFloat(chi.URLParam(r, "amount"), 64)
		if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "amount must be a number")
			return
		}

		rate, err := provider.GetRate(r.Context(), base, target)
		if err != nil {
			if errors.Is(err, rates.ErrUnsupportedCurrency) {
				response.Error(w, http.StatusBadRequest, "UNSUPPORTED_CURRENCY", err.Error())
				return
			}
			log.Ctx(r.Context()).Error().Err(err).Str("base", base).Str("target", target).Msg("rate lookup")
			response.Error(w, http.StatusBadGateway, "RATE_PROVIDER_UNAVAILABLE",
				"The exchange rate provider is not available")
			return
		}

		response.JSON(w, models.Conversion{ConvertedAmount: amount * rate})
	}
}
