// Data Transfer Objects for the auth API: the request and response payloads
// exchanged with clients during registration, login and token refresh.
package auth

// RegisterRequest represents the registration request payload.
type RegisterRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Name     string `json:"name" example:"Example User"`
	Password string `json:"password" example:"strongpassword123"`
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"strongpassword123"`
}

// TokenResponse represents the authentication token response returned to the
// client upon successful login or token refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int64  `json:"expires_in" example:"3600"` // Unix timestamp of access token expiry
}

// RefreshTokenRequest represents the token refresh request payload.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}
