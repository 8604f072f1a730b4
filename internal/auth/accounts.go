package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidAccount     = errors.New("invalid account details")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// SignUp creates an account. The email is stored as entered; lookups ignore
// case.
func SignUp(ctx context.Context, db *sql.DB, email, fullName, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)

	if err := model.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccount, err)
	}
	if fullName == "" {
		return nil, fmt.Errorf("%w: full name required", ErrInvalidAccount)
	}
	if err := model.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccount, err)
	}

	existing, err := store.GetUserByEmail(ctx, db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return store.CreateUser(ctx, db, email, fullName, hash)
}

// SignIn checks an email and password pair.
func SignIn(ctx context.Context, db *sql.DB, email, password string) (*model.User, error) {
	user, err := store.GetUserByEmail(ctx, db, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func ChangePassword(ctx context.Context, db *sql.DB, userID, current, next string) error {
	user, err := store.GetUser(ctx, db, userID)
	if err != nil {
		return err
	}
	if user == nil || !CheckPassword(user.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if err := model.ValidatePassword(next); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAccount, err)
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return store.UpdateUserPassword(ctx, db, userID, hash)
}

// Authenticate validates a token and checks it has not been signed out.
func Authenticate(ctx context.Context, db *sql.DB, secret, token string) (*Claims, error) {
	claims, err := ValidateToken(secret, token)
	if err != nil {
		return nil, err
	}
	revoked, err := store.IsTokenRevoked(ctx, db, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke signs a token out until it expires.
func Revoke(ctx context.Context, db *sql.DB, claims *Claims) error {
	expires := time.Now().Add(TokenExpiry)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	return store.RevokeToken(ctx, db, claims.ID, expires)
}
