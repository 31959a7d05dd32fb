package oauth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// ResolveTokenURL returns tokenURL when set, otherwise discovers the token
// endpoint from the issuer's OpenID configuration. It runs once at startup;
// the result is fixed for the life of the process.
func ResolveTokenURL(ctx context.Context, tokenURL, issuerURL string) (string, error) {
	if tokenURL != "" {
		return tokenURL, nil
	}
	if issuerURL == "" {
		return "", fmt.Errorf("no token URL or issuer URL configured")
	}

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return "", fmt.Errorf("discover issuer %s: %w", issuerURL, err)
	}

	endpoint := provider.Endpoint()
	if endpoint.TokenURL == "" {
		return "", fmt.Errorf("issuer %s advertises no token endpoint", issuerURL)
	}
	return endpoint.TokenURL, nil
}
