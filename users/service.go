// Business logic for user profile operations. The service only ever operates
// on the user id supplied by the auth middleware, so a user can read and
// modify nothing but their own record.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/recipebox-go/apperror"
	"github.com/user/recipebox-go/auth"
)

// UserService provides methods for user profile management.
type UserService struct {
	db *pgxpool.Pool
}

// NewUserService creates a new UserService.
func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *UserService) GetUserProfile(ctx context.Context, userID int) (*UserProfileResponse, error) {
	query := `SELECT id, email, name, created_at FROM users WHERE id = $1`

	var profile UserProfileResponse
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.Email,
		&profile.Name,
		&profile.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with ID %d not found", userID), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user profile", err)
	}

	return &profile, nil
}

// UpdateUserProfile updates a user's profile. Only the fields present in the
// request are changed; a supplied email is normalized the same way as at
// registration, and a supplied password is re-hashed before storage.
func (s *UserService) UpdateUserProfile(ctx context.Context, userID int, req *UpdateUserProfileRequest) (*UserProfileResponse, error) {
	// Build the UPDATE statement dynamically from the fields present in the
	// request, the same field-by-field merge the recipe update uses.
	var setClauses []string
	var args []interface{}
	argID := 1

	if req.Email != nil {
		if *req.Email == "" {
			return nil, apperror.NewValidationError("email must not be empty", nil)
		}
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argID))
		args = append(args, auth.NormalizeEmail(*req.Email))
		argID++
	}
	if req.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argID))
		args = append(args, *req.Name)
		argID++
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, apperror.NewValidationError("password must not be empty", nil)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperror.NewInternalError("failed to hash password", err)
		}
		setClauses = append(setClauses, fmt.Sprintf("password = $%d", argID))
		args = append(args, string(hashed))
		argID++
	}

	if len(setClauses) == 0 {
		// No fields to update, just return the current profile.
		return s.GetUserProfile(ctx, userID)
	}

	args = append(args, userID)

	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING id, email, name, created_at
	`, strings.Join(setClauses, ", "), argID)

	var profile UserProfileResponse
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&profile.ID,
		&profile.Email,
		&profile.Name,
		&profile.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with ID %d not found", userID), nil)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "email") {
			return nil, apperror.NewConflictError(fmt.Sprintf("email '%s' already exists", *req.Email), nil)
		}
		return nil, apperror.NewDatabaseError("failed to update user profile", err)
	}

	return &profile, nil
}
