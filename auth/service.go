package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/recipebox-go/apperror"
	"github.com/user/recipebox-go/config"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
	pgUniqueViolation = "23505"
)

// AuthService provides authentication-related services: registration, login,
// and token issuance/refresh.
type AuthService struct {
	dbPool     *pgxpool.Pool
	authConfig config.AuthConfig
}

// NewAuthService creates a new AuthService with its dependencies injected.
func NewAuthService(dbPool *pgxpool.Pool, authConfig config.AuthConfig) *AuthService {
	return &AuthService{
		dbPool:     dbPool,
		authConfig: authConfig,
	}
}

// CustomClaims defines the JWT payload. Embedding jwt.RegisteredClaims brings
// in the standard claims (exp, iat, nbf, ...).
type CustomClaims struct {
	UserID    int    `json:"user_id"`
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// Register creates a new user. Validation and email normalization happen
// before anything touches the database, so an empty email fails with a
// ValidationError and no row is persisted.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	user, err := NewUser(req.Email, req.Name)
	if err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, apperror.NewValidationError("password is required", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = string(hashedPassword)

	createdUser, err := s.createUser(ctx, user)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return nil, apperror.NewConflictError("email already exists", nil)
			}
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return createdUser, nil
}

// CreateSuperuser creates a user with staff and superuser flags forced on.
// It is used for provisioning (e.g. a bootstrap admin at startup), not exposed
// over HTTP.
func (s *AuthService) CreateSuperuser(ctx context.Context, email, password string) (*User, error) {
	user, err := NewSuperuser(email, "")
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperror.NewValidationError("password is required", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = string(hashedPassword)

	createdUser, err := s.createUser(ctx, user)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, apperror.NewConflictError("email already exists", nil)
		}
		return nil, apperror.NewDatabaseError("failed to create superuser", err)
	}
	return createdUser, nil
}

// Login authenticates a user by email and password and returns a token pair.
// Both "no such user" and "wrong password" produce the same invalid-credentials
// error so the response does not reveal which part was wrong.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.getUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewAuthError("invalid credentials", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, apperror.NewAuthError("invalid credentials", nil)
	}

	if !user.IsActive {
		return nil, apperror.NewAuthError("user account is disabled", nil)
	}

	return s.generateTokens(user.ID)
}

// RefreshToken generates a new access token based on a valid refresh token.
// The refresh token itself is returned unchanged; rotation is not implemented.
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenString string) (*TokenResponse, error) {
	claims, err := s.validateToken(refreshTokenString, tokenTypeRefresh)
	if err != nil {
		return nil, apperror.NewAuthError(fmt.Sprintf("invalid refresh token: %s", err.Error()), err)
	}

	newAccessToken, newAccessExpiresAt, err := s.generateSpecificToken(claims.UserID, tokenTypeAccess, s.authConfig.AccessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to generate new access token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: refreshTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    newAccessExpiresAt.Unix(),
	}, nil
}

// generateTokens creates both access and refresh tokens for a user.
func (s *AuthService) generateTokens(userID int) (*TokenResponse, error) {
	accessToken, accessExpiresAt, err := s.generateSpecificToken(userID, tokenTypeAccess, s.authConfig.AccessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, _, err := s.generateSpecificToken(userID, tokenTypeRefresh, s.authConfig.RefreshTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    accessExpiresAt.Unix(),
	}, nil
}

// generateSpecificToken creates a signed JWT with the given type and lifetime.
func (s *AuthService) generateSpecificToken(userID int, tokenType string, duration time.Duration) (string, time.Time, error) {
	expirationTime := time.Now().Add(duration)
	claims := &CustomClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "recipebox",
			Subject:   fmt.Sprintf("%d", userID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.authConfig.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expirationTime, nil
}

// validateToken parses and validates a JWT string, checking signature,
// expiration, and the expected token type.
func (s *AuthService) validateToken(tokenString string, expectedTokenType string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.authConfig.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("token is invalid")
	}

	if claims.TokenType != expectedTokenType {
		return nil, fmt.Errorf("invalid token type: expected %s, got %s", expectedTokenType, claims.TokenType)
	}

	return claims, nil
}

// --- Database helpers ---
// Direct database interactions for the AuthService, keeping the SQL localized.

func (s *AuthService) createUser(ctx context.Context, user *User) (*User, error) {
	query := `INSERT INTO users (email, name, password, is_active, is_staff, is_superuser)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at`
	err := s.dbPool.QueryRow(ctx, query,
		user.Email, user.Name, user.HashedPassword,
		user.IsActive, user.IsStaff, user.IsSuperuser,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) getUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	query := `SELECT id, email, name, password, is_active, is_staff, is_superuser, created_at
	          FROM users WHERE email = $1`
	err := s.dbPool.QueryRow(ctx, query, NormalizeEmail(email)).Scan(
		&user.ID, &user.Email, &user.Name, &user.HashedPassword,
		&user.IsActive, &user.IsStaff, &user.IsSuperuser, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.getUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with email '%s' not found", email), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by email", err)
	}
	return user, nil
}
