// HTTP handlers for the auth API. Handlers decode and validate the request
// payload, delegate to the AuthService, and write the response; all error
// responses go through the shared apperror mapping.
package auth

import (
	"encoding/json"
	"net/http"

	"github.com/user/recipebox-go/apperror"
)

// Handlers wraps the AuthService to provide HTTP handlers.
type Handlers struct {
	service *AuthService
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *AuthService) *Handlers {
	return &Handlers{service: service}
}

// HandleRegister godoc
// @Summary User Registration
// @Description Registers a new user in the system.
// @Tags Auth
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "User registration details"
// @Success 201 {object} auth.User "User created successfully"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid input or missing fields"
// @Failure 409 {object} apperror.ErrorResponse "Conflict - Email already registered"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /auth/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		user, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, user)
	}
}

// HandleLogin godoc
// @Summary User Login
// @Description Logs in an existing user and returns access and refresh tokens.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "User login credentials"
// @Success 200 {object} auth.TokenResponse "Login successful, tokens provided"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid input or missing fields"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid credentials"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /auth/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if req.Email == "" || req.Password == "" {
			WriteError(w, r, apperror.NewBadRequestError("email and password are required", nil))
			return
		}

		resp, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleRefreshToken godoc
// @Summary Refresh Access Token
// @Description Provides a new access token using a valid refresh token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param refreshBody body auth.RefreshTokenRequest true "Refresh token details"
// @Success 200 {object} auth.TokenResponse "Tokens refreshed successfully"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid input or missing refresh token"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or expired refresh token"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /auth/refresh [post]
func (h *Handlers) HandleRefreshToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if req.RefreshToken == "" {
			WriteError(w, r, apperror.NewBadRequestError("refresh_token is required", nil))
			return
		}

		resp, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// writeJSON serializes data to JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}

// WriteError writes a standardized error response. Errors that are not already
// an *apperror.AppError are wrapped in a generic InternalError so every failure
// reaches the client in the same shape.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred: "+err.Error(), err)
	}

	writeJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
