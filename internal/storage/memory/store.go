// Package memory provides an in-memory UserStore with the same
// semantics as the Postgres store. It backs unit tests and local
// development without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/trailbook/trailbook-be/internal/models"
	"github.com/trailbook/trailbook-be/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

type Store struct {
	mu      sync.RWMutex
	users   map[string]models.User
	byEmail map[string]string
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return models.User{}, storage.ErrAlreadyExists
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return user, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.activeUser(id)
}

func (s *Store) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeUser(id)
}

func (s *Store) SetLoginChallenge(_ context.Context, id, digest string, expiresAt time.Time) error {
	return s.update(id, func(u *models.User) {
		u.MFAChallengeHash = digest
		u.MFAChallengeExpiresAt = expiresAt
	})
}

func (s *Store) ClearLoginChallenge(_ context.Context, id string) error {
	return s.update(id, func(u *models.User) {
		u.MFAChallengeHash = ""
		u.MFAChallengeExpiresAt = time.Time{}
	})
}

func (s *Store) ConsumeLoginChallenge(_ context.Context, digest string, now time.Time) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if !u.Active || u.MFAChallengeHash == "" || u.MFAChallengeHash != digest {
			continue
		}
		// Exclusive expiry: a challenge consumed at exactly expiresAt fails.
		if !u.MFAChallengeExpiresAt.After(now) {
			continue
		}
		u.MFAChallengeHash = ""
		u.MFAChallengeExpiresAt = time.Time{}
		s.users[id] = u
		return u, nil
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) SetResetToken(_ context.Context, id, digest string, expiresAt time.Time) error {
	return s.update(id, func(u *models.User) {
		u.ResetTokenHash = digest
		u.ResetTokenExpiresAt = expiresAt
	})
}

func (s *Store) ClearResetToken(_ context.Context, id string) error {
	return s.update(id, func(u *models.User) {
		u.ResetTokenHash = ""
		u.ResetTokenExpiresAt = time.Time{}
	})
}

func (s *Store) ConsumeResetToken(_ context.Context, digest, newPasswordHash string, changedAt, now time.Time) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if !u.Active || u.ResetTokenHash == "" || u.ResetTokenHash != digest {
			continue
		}
		if !u.ResetTokenExpiresAt.After(now) {
			continue
		}
		u.PasswordHash = newPasswordHash
		u.PasswordChangedAt = changedAt
		u.ResetTokenHash = ""
		u.ResetTokenExpiresAt = time.Time{}
		s.users[id] = u
		return u, nil
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) UpdatePassword(_ context.Context, id, newPasswordHash string, changedAt time.Time) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !u.Active {
		return models.User{}, storage.ErrNotFound
	}
	u.PasswordHash = newPasswordHash
	u.PasswordChangedAt = changedAt
	s.users[id] = u
	return u, nil
}

// Get returns the raw stored record regardless of the active flag.
// Intended for tests inspecting transient challenge/reset state.
func (s *Store) Get(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// Put overwrites a stored record. Intended for tests seeding state.
func (s *Store) Put(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
}

func (s *Store) activeUser(id string) (models.User, error) {
	u, ok := s.users[id]
	if !ok || !u.Active {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) update(id string, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !u.Active {
		return storage.ErrNotFound
	}
	fn(&u)
	s.users[id] = u
	return nil
}
