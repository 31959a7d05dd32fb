package models

// Supported OAuth2 grant types.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
)

// GrantRequest carries the client credentials and grant for a token exchange.
// Only one of Code or RefreshToken is meaningful, depending on GrantType.
type GrantRequest struct {
	ClientID     string
	ClientSecret string
	GrantType    string
	Code         string
	RefreshToken string
}

// TokenResult is the normalized upstream token response.
type TokenResult struct {
	AccessToken  string  `json:"access_token"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    int64   `json:"expires_in"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	Scope        *string `json:"scope,omitempty"`
}
