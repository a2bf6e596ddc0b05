package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailbook/trailbook-be/internal/models"
	"github.com/trailbook/trailbook-be/internal/storage"
)

// TestStoreIntegration exercises the user store against a live Postgres
// instance, covering the single-use consumption paths the memory store
// tests cannot prove at the SQL level.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_STORE_INTEGRATION") != "true" {
		t.Skip("set RUN_STORE_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := NewUserStore(ctx, dbURL)
	require.NoError(t, err)
	defer store.Close()

	email := fmt.Sprintf("storetest_%d@example.com", time.Now().UnixNano())
	user, err := store.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Name:         "Store Test",
		Email:        email,
		Photo:        "default.jpg",
		Role:         models.RoleUser,
		PasswordHash: "not-a-real-hash",
		Active:       true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = store.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, user.ID)
	})

	_, err = store.CreateUser(ctx, models.User{
		ID: uuid.NewString(), Name: "Dup", Email: email, PasswordHash: "x", Active: true,
	})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	found, err := store.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	now := time.Now()
	require.NoError(t, store.SetLoginChallenge(ctx, user.ID, "it-digest", now.Add(time.Minute)))

	consumed, err := store.ConsumeLoginChallenge(ctx, "it-digest", now)
	require.NoError(t, err)
	assert.Equal(t, user.ID, consumed.ID)
	assert.Empty(t, consumed.MFAChallengeHash)

	_, err = store.ConsumeLoginChallenge(ctx, "it-digest", now)
	assert.ErrorIs(t, err, storage.ErrNotFound, "challenge is single-use")

	require.NoError(t, store.SetResetToken(ctx, user.ID, "it-reset", now.Add(time.Minute)))
	changedAt := now.Add(-time.Second)
	reset, err := store.ConsumeResetToken(ctx, "it-reset", "replaced-hash", changedAt, now)
	require.NoError(t, err)
	assert.Equal(t, "replaced-hash", reset.PasswordHash)
	assert.WithinDuration(t, changedAt, reset.PasswordChangedAt, time.Millisecond)

	_, err = store.ConsumeResetToken(ctx, "it-reset", "other-hash", changedAt, now)
	assert.ErrorIs(t, err, storage.ErrNotFound, "reset token is single-use")
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
