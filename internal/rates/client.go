package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sentinel errors for exchange-rate provider failures.
var (
	ErrProviderUnreachable = errors.New("rate provider unreachable")
	ErrProviderError       = errors.New("rate provider error")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// Client looks up the current rate for converting base into target.
type Client interface {
	GetRate(ctx context.Context, base, target string) (float64, error)
}

// HTTPClient implements Client against a Frankfurter-compatible API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new rate provider HTTP client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) GetRate(ctx context.Context, base, target string) (float64, error) {
	base = strings.ToUpper(base)
	target = strings.ToUpper(target)
	if !isCurrencyCode(base) {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, base)
	}
	if !isCurrencyCode(target) {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, target)
	}
	if base == target {
		return 1, nil
	}

	params := url.Values{
		"from": {base},
		"to":   {target},
	}
	u := fmt.Sprintf("%s/latest?%s", c.baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity:
		return 0, fmt.Errorf("%w: %s/%s", ErrUnsupportedCurrency, base, target)
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("%w: status %d", ErrProviderError, resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: decoding response: %v", ErrProviderError, err)
	}

	rate, ok := body.Rates[target]
	if !ok {
		return 0, fmt.Errorf("%w: no rate for %s in response", ErrUnsupportedCurrency, target)
	}
	return rate, nil
}

// isCurrencyCode reports whether s looks like an ISO 4217 alphabetic code.
func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

type latestResponse struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
