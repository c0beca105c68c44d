package authapi

// Placeholders the coordination service leaves in LoginIntent.SignInURL for
// the client to fill in.
const (
	PlaceholderCodeChallenge = "TEMP_CODE_CHALLENGE"
	PlaceholderState         = "TEMP_STATE_VERIFIER"
)

// LoginIntent is returned by the login-intent endpoint.
type LoginIntent struct {
	// SignInURL is the identity provider's authorize URL with the PKCE
	// challenge and state replaced by placeholders.
	// Example: "https://idp/auth?code_challenge=TEMP_CODE_CHALLENGE&state=TEMP_STATE_VERIFIER"
	SignInURL string `json:"signInUrl"`

	// CSRFToken must accompany later state-changing API calls.
	CSRFToken string `json:"csrfToken"`
}

// TokenExchangeRequest is posted to the token-exchange endpoint.
type TokenExchangeRequest struct {
	// Code is the authorization code from the redirect back.
	Code string `json:"code"`

	// CodeVerifier is the PKCE verifier stored before the redirect out.
	CodeVerifier string `json:"codeVerifier"`
}

// TokenResponse is returned by the token-exchange and refresh endpoints.
type TokenResponse struct {
	// BearerToken is a compact JWT used as "Authorization: Bearer <token>".
	// Lifespan: short; renewed through the refresh endpoint.
	BearerToken string `json:"bearerToken"`
}

// LogoutIntent is returned by the logout-intent endpoint.
type LogoutIntent struct {
	// LogoutURL is the identity provider's logout page.
	LogoutURL string `json:"logoutUrl"`
}
