package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailbook/trailbook-be/internal/models"
	"github.com/trailbook/trailbook-be/internal/storage"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

const userColumns = `id, name, email, photo, role, password_hash, password_changed_at,
	mfa_challenge_hash, mfa_challenge_expires_at, reset_token_hash, reset_token_expires_at,
	active, created_at`

// Store provides Postgres-backed persistence for users.
type Store struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new Store and runs migrations.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			photo TEXT NOT NULL DEFAULT 'default.jpg',
			role TEXT NOT NULL DEFAULT 'user',
			password_hash TEXT NOT NULL,
			password_changed_at TIMESTAMPTZ,
			mfa_challenge_hash TEXT,
			mfa_challenge_expires_at TIMESTAMPTZ,
			reset_token_hash TEXT,
			reset_token_expires_at TIMESTAMPTZ,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (email);`,
		`CREATE INDEX IF NOT EXISTS users_mfa_challenge_hash_idx ON users (mfa_challenge_hash) WHERE mfa_challenge_hash IS NOT NULL;`,
		`CREATE INDEX IF NOT EXISTS users_reset_token_hash_idx ON users (reset_token_hash) WHERE reset_token_hash IS NOT NULL;`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
		INSERT INTO users (id, name, email, photo, role, password_hash, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.Photo, user.Role, user.PasswordHash, user.Active)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByEmail fetches an active user by email address. Callers
// normalize the address before lookup.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND active`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// FindByID fetches an active user by id.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND active`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// SetLoginChallenge stores the challenge digest and expiry, replacing
// any outstanding challenge on the user.
func (s *Store) SetLoginChallenge(ctx context.Context, id, digest string, expiresAt time.Time) error {
	const query = `
		UPDATE users SET mfa_challenge_hash = $2, mfa_challenge_expires_at = $3
		WHERE id = $1 AND active`
	return s.execForUser(ctx, query, id, digest, expiresAt)
}

// ClearLoginChallenge removes a pending challenge without consuming it.
func (s *Store) ClearLoginChallenge(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET mfa_challenge_hash = NULL, mfa_challenge_expires_at = NULL
		WHERE id = $1`
	return s.execForUser(ctx, query, id)
}

// ConsumeLoginChallenge clears and returns the user holding an
// unexpired challenge matching the digest. The conditional update keeps
// consumption single-use under concurrent verification attempts.
func (s *Store) ConsumeLoginChallenge(ctx context.Context, digest string, now time.Time) (models.User, error) {
	query := `
		UPDATE users SET mfa_challenge_hash = NULL, mfa_challenge_expires_at = NULL
		WHERE mfa_challenge_hash = $1 AND mfa_challenge_expires_at > $2 AND active
		RETURNING ` + userColumns
	return scanUser(s.pool.QueryRow(ctx, query, digest, now))
}

// SetResetToken stores the reset digest and expiry, replacing any
// outstanding reset request on the user.
func (s *Store) SetResetToken(ctx context.Context, id, digest string, expiresAt time.Time) error {
	const query = `
		UPDATE users SET reset_token_hash = $2, reset_token_expires_at = $3
		WHERE id = $1 AND active`
	return s.execForUser(ctx, query, id, digest, expiresAt)
}

// ClearResetToken removes a pending reset request without consuming it.
func (s *Store) ClearResetToken(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET reset_token_hash = NULL, reset_token_expires_at = NULL
		WHERE id = $1`
	return s.execForUser(ctx, query, id)
}

// ConsumeResetToken replaces the password, stamps passwordChangedAt and
// clears the reset fields for the user holding an unexpired reset token
// matching the digest, all in one statement.
func (s *Store) ConsumeResetToken(ctx context.Context, digest, newPasswordHash string, changedAt, now time.Time) (models.User, error) {
	query := `
		UPDATE users SET password_hash = $2, password_changed_at = $3,
			reset_token_hash = NULL, reset_token_expires_at = NULL
		WHERE reset_token_hash = $1 AND reset_token_expires_at > $4 AND active
		RETURNING ` + userColumns
	return scanUser(s.pool.QueryRow(ctx, query, digest, newPasswordHash, changedAt, now))
}

// UpdatePassword replaces the password hash for an in-session change.
func (s *Store) UpdatePassword(ctx context.Context, id, newPasswordHash string, changedAt time.Time) (models.User, error) {
	query := `
		UPDATE users SET password_hash = $2, password_changed_at = $3
		WHERE id = $1 AND active
		RETURNING ` + userColumns
	return scanUser(s.pool.QueryRow(ctx, query, id, newPasswordHash, changedAt))
}

func (s *Store) execForUser(ctx context.Context, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var changedAt, mfaExpires, resetExpires *time.Time
	var mfaHash, resetHash *string
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Photo, &user.Role, &user.PasswordHash,
		&changedAt, &mfaHash, &mfaExpires, &resetHash, &resetExpires,
		&user.Active, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	if changedAt != nil {
		user.PasswordChangedAt = *changedAt
	}
	if mfaHash != nil {
		user.MFAChallengeHash = *mfaHash
	}
	if mfaExpires != nil {
		user.MFAChallengeExpiresAt = *mfaExpires
	}
	if resetHash != nil {
		user.ResetTokenHash = *resetHash
	}
	if resetExpires != nil {
		user.ResetTokenExpiresAt = *resetExpires
	}
	return user, nil
}
