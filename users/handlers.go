// HTTP handlers for user profile management.
package users

import (
	"encoding/json"
	"net/http"

	"github.com/user/recipebox-go/apperror"
	"github.com/user/recipebox-go/auth"
)

// UserHandlers provides HTTP handlers for user profile management.
type UserHandlers struct {
	service *UserService
}

// NewUserHandlers creates new UserHandlers.
func NewUserHandlers(service *UserService) *UserHandlers {
	return &UserHandlers{service: service}
}

// HandleGetUserProfile godoc
// @Summary Get current user's profile
// @Description Retrieves the profile information for the currently authenticated user.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserProfileResponse "Successfully retrieved user profile"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - User not found"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /users/me [get]
func (h *UserHandlers) HandleGetUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("user ID not found in context", nil))
			return
		}

		profile, err := h.service.GetUserProfile(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(profile)
	}
}

// HandleUpdateUserProfile godoc
// @Summary Update current user's profile
// @Description Updates the profile information (email, name, password) for the currently authenticated user. Only the provided fields are changed.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userProfile body UpdateUserProfileRequest true "User profile data to update"
// @Success 200 {object} UserProfileResponse "Successfully updated user profile"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid input data"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - User not found"
// @Failure 409 {object} apperror.ErrorResponse "Conflict - e.g., email already exists"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /users/me [put]
func (h *UserHandlers) HandleUpdateUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("user ID not found in context", nil))
			return
		}

		var req UpdateUserProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request payload", err))
			return
		}
		defer r.Body.Close()

		updatedProfile, err := h.service.UpdateUserProfile(r.Context(), userID, &req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(updatedProfile)
	}
}
