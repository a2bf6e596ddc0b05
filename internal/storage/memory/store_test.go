package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailbook/trailbook-be/internal/models"
	"github.com/trailbook/trailbook-be/internal/storage"
)

func seedUser(t *testing.T, s *Store, id, email string) models.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), models.User{
		ID:           id,
		Name:         "Seed",
		Email:        email,
		Role:         models.RoleUser,
		PasswordHash: "hash",
		Active:       true,
	})
	require.NoError(t, err)
	return user
}

func TestCreateUserDuplicate(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "a@x.com")

	_, err := s.CreateUser(context.Background(), models.User{ID: "u2", Email: "a@x.com", Active: true})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestFindFiltersInactive(t *testing.T) {
	s := NewStore()
	user := seedUser(t, s, "u1", "a@x.com")

	user.Active = false
	s.Put(user)

	_, err := s.FindByEmail(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.FindByID(context.Background(), "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestConsumeLoginChallengeSingleUse(t *testing.T) {
	s := NewStore()
	user := seedUser(t, s, "u1", "a@x.com")
	now := time.Now()

	require.NoError(t, s.SetLoginChallenge(context.Background(), user.ID, "digest-1", now.Add(time.Minute)))

	got, err := s.ConsumeLoginChallenge(context.Background(), "digest-1", now)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, got.MFAChallengeHash, "consumption clears the challenge")

	_, err = s.ConsumeLoginChallenge(context.Background(), "digest-1", now)
	assert.ErrorIs(t, err, storage.ErrNotFound, "a consumed challenge never verifies again")
}

func TestConsumeLoginChallengeExpiryIsExclusive(t *testing.T) {
	s := NewStore()
	user := seedUser(t, s, "u1", "a@x.com")
	expiresAt := time.Now().Add(time.Minute)

	require.NoError(t, s.SetLoginChallenge(context.Background(), user.ID, "digest-1", expiresAt))

	// Consuming at exactly expiresAt must fail.
	_, err := s.ConsumeLoginChallenge(context.Background(), "digest-1", expiresAt)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// One instant earlier succeeds.
	_, err = s.ConsumeLoginChallenge(context.Background(), "digest-1", expiresAt.Add(-time.Nanosecond))
	assert.NoError(t, err)
}

func TestSetLoginChallengeOverwrites(t *testing.T) {
	s := NewStore()
	user := seedUser(t, s, "u1", "a@x.com")
	now := time.Now()

	require.NoError(t, s.SetLoginChallenge(context.Background(), user.ID, "digest-old", now.Add(time.Minute)))
	require.NoError(t, s.SetLoginChallenge(context.Background(), user.ID, "digest-new", now.Add(time.Minute)))

	_, err := s.ConsumeLoginChallenge(context.Background(), "digest-old", now)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.ConsumeLoginChallenge(context.Background(), "digest-new", now)
	assert.NoError(t, err)
}

func TestConsumeResetToken(t *testing.T) {
	s := NewStore()
	user := seedUser(t, s, "u1", "a@x.com")
	now := time.Now()
	changedAt := now.Add(-time.Second)

	require.NoError(t, s.SetResetToken(context.Background(), user.ID, "reset-digest", now.Add(time.Minute)))

	got, err := s.ConsumeResetToken(context.Background(), "reset-digest", "new-hash", changedAt, now)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, changedAt, got.PasswordChangedAt)
	assert.Empty(t, got.ResetTokenHash)

	_, err = s.ConsumeResetToken(context.Background(), "reset-digest", "other-hash", changedAt, now)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestConsumeResetTokenExpired(t *testing.T) {
	s := NewStore()
	user := seedUser(t, s, "u1", "a@x.com")
	expiresAt := time.Now()

	require.NoError(t, s.SetResetToken(context.Background(), user.ID, "reset-digest", expiresAt))

	_, err := s.ConsumeResetToken(context.Background(), "reset-digest", "new-hash", expiresAt, expiresAt)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Rejected on read, but still present until overwritten.
	stored, ok := s.Get(user.ID)
	require.True(t, ok)
	assert.Equal(t, "reset-digest", stored.ResetTokenHash)
}

func TestUpdatePassword(t *testing.T) {
	s := NewStore()
	user := seedUser(t, s, "u1", "a@x.com")
	changedAt := time.Now().Add(-time.Second)

	got, err := s.UpdatePassword(context.Background(), user.ID, "new-hash", changedAt)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, changedAt, got.PasswordChangedAt)

	_, err = s.UpdatePassword(context.Background(), "missing", "hash", changedAt)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
