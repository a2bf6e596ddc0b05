package storage

import (
	"context"
	"errors"
	"time"

	"github.com/trailbook/trailbook-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures the persistence operations the auth core needs.
//
// Reads return active users only. Challenge and reset secrets are
// consumed by a single conditional update keyed on the stored digest,
// so each secret verifies at most once even under concurrent requests;
// expiry is exclusive (a secret consumed at exactly expiresAt fails).
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)

	// SetLoginChallenge overwrites any outstanding challenge on the user.
	SetLoginChallenge(ctx context.Context, id, digest string, expiresAt time.Time) error
	// ClearLoginChallenge rolls back an issued challenge, e.g. after a
	// failed email send.
	ClearLoginChallenge(ctx context.Context, id string) error
	// ConsumeLoginChallenge clears and returns the user holding an
	// unexpired challenge with the given digest, or ErrNotFound.
	ConsumeLoginChallenge(ctx context.Context, digest string, now time.Time) (models.User, error)

	SetResetToken(ctx context.Context, id, digest string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	// ConsumeResetToken atomically replaces the password, stamps
	// passwordChangedAt and clears the reset fields for the user holding
	// an unexpired reset token with the given digest.
	ConsumeResetToken(ctx context.Context, digest, newPasswordHash string, changedAt, now time.Time) (models.User, error)

	// UpdatePassword replaces the password hash and stamps
	// passwordChangedAt for an in-session password change.
	UpdatePassword(ctx context.Context, id, newPasswordHash string, changedAt time.Time) (models.User, error)
}
