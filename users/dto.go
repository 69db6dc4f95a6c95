// Package users encapsulates user profile management: retrieving and updating
// the authenticated user's own record. This file defines the Data Transfer
// Objects exchanged between handlers, the service, and API clients.
package users

import "time"

// UserProfileResponse represents the data returned for a user profile.
// @Description User profile information
type UserProfileResponse struct {
	// The ID of the user
	// example: 1
	ID int `json:"id"`
	// The email address of the user
	// example: "johndoe@example.com"
	Email string `json:"email"`
	// The display name of the user
	// example: "John Doe"
	Name string `json:"name"`
	// The time the user was created
	// example: "2023-01-15T10:30:00Z"
	CreatedAt time.Time `json:"created_at"`
}

// UpdateUserProfileRequest represents the data for updating a user profile.
// Pointer fields distinguish "field absent" (nil, leave unchanged) from
// "field present" (update to the given value), which is what makes partial
// updates possible.
// @Description Request body for updating user profile
type UpdateUserProfileRequest struct {
	// The new email address for the user.
	// example: "john.doe.new@example.com"
	Email *string `json:"email,omitempty"`
	// The new display name for the user.
	// example: "John D. Doe"
	Name *string `json:"name,omitempty"`
	// A new password for the user.
	Password *string `json:"password,omitempty"`
}
