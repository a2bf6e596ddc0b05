package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trailbook/trailbook-be/internal/email"
	"github.com/trailbook/trailbook-be/internal/models"
	"github.com/trailbook/trailbook-be/internal/models/dto"
	"github.com/trailbook/trailbook-be/internal/storage"
)

const minPasswordLength = 8

// dummyHash keeps a credential check against an unknown email as
// expensive as one against a real account.
var dummyHash, _ = HashPassword("trailbook-timing-pad")

// ServiceConfig carries the flow tunables, constructed once at startup
// and passed in explicitly.
type ServiceConfig struct {
	ChallengeTTL  time.Duration
	ResetTTL      time.Duration
	PublicBaseURL string
}

// Service implements the authentication flows: signup, the two-step
// login challenge, and the password reset/change paths. It owns
// session-token issuance for every path that ends in a logged-in user.
type Service struct {
	store  storage.UserStore
	tokens *TokenManager
	mailer email.Mailer
	logger *slog.Logger
	cfg    ServiceConfig
}

func NewService(store storage.UserStore, tokens *TokenManager, mailer email.Mailer, logger *slog.Logger, cfg ServiceConfig) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		mailer: mailer,
		logger: logger,
		cfg:    cfg,
	}
}

// Signup creates a user from the whitelisted request fields and issues
// a session token immediately; there is no challenge step on signup.
func (s *Service) Signup(ctx context.Context, req dto.SignupRequest) (models.User, string, error) {
	name := strings.TrimSpace(req.Name)
	address := NormalizeEmail(req.Email)
	if name == "" {
		return models.User{}, "", fmt.Errorf("%w: please tell us your name", ErrValidation)
	}
	if address == "" {
		return models.User{}, "", fmt.Errorf("%w: please provide your email address", ErrValidation)
	}
	if _, err := mail.ParseAddress(address); err != nil {
		return models.User{}, "", fmt.Errorf("%w: provide a valid email", ErrValidation)
	}
	if err := validatePassword(req.Password, req.PasswordConfirm); err != nil {
		return models.User{}, "", err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return models.User{}, "", err
	}
	user := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        address,
		Photo:        "default.jpg",
		Role:         models.RoleUser,
		PasswordHash: hash,
		Active:       true,
	}
	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return models.User{}, "", err
	}

	// The account already exists at this point, so a failed welcome
	// email must not fail the signup.
	if err := s.mailer.SendWelcome(ctx, created, s.cfg.PublicBaseURL+"/me"); err != nil {
		s.logger.Error("welcome email failed", "user_id", created.ID, "error", err)
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return created, token, nil
}

// Login verifies credentials and issues the emailed one-time code. It
// never returns a session token: success leaves the login pending
// until VerifyChallenge consumes the code.
func (s *Service) Login(ctx context.Context, address, password string) error {
	address = NormalizeEmail(address)
	if address == "" || password == "" {
		return fmt.Errorf("%w: please provide email and password", ErrValidation)
	}

	user, err := s.store.FindByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Same error and same cost as a password mismatch so the
			// response reveals nothing about account existence.
			CheckPassword(dummyHash, password)
			return ErrInvalidCredentials
		}
		return err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return ErrInvalidCredentials
	}

	code, err := NewLoginCode()
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(s.cfg.ChallengeTTL)
	if err := s.store.SetLoginChallenge(ctx, user.ID, DigestSecret(code), expiresAt); err != nil {
		return err
	}
	if err := s.mailer.SendLoginCode(ctx, user, code); err != nil {
		// The user never received the code, so it must not stay valid.
		if clearErr := s.store.ClearLoginChallenge(ctx, user.ID); clearErr != nil {
			s.logger.Error("challenge rollback failed", "user_id", user.ID, "error", clearErr)
		}
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return nil
}

// VerifyChallenge consumes an outstanding login code and mints the
// session token. Consumption is atomic in the store, so a code
// verifies at most once; wrong, expired and already-consumed codes are
// indistinguishable to the caller.
func (s *Service) VerifyChallenge(ctx context.Context, code string) (models.User, string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.User{}, "", ErrChallengeInvalidOrExpired
	}
	user, err := s.store.ConsumeLoginChallenge(ctx, DigestSecret(code), time.Now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, "", ErrChallengeInvalidOrExpired
		}
		return models.User{}, "", err
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// ForgotPassword issues a single-use reset token and emails the reset
// link. A failed send rolls the stored token back before the error is
// surfaced.
func (s *Service) ForgotPassword(ctx context.Context, address string) error {
	address = NormalizeEmail(address)
	if address == "" {
		return fmt.Errorf("%w: please provide your email address", ErrValidation)
	}
	user, err := s.store.FindByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	raw, err := NewResetToken()
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(s.cfg.ResetTTL)
	if err := s.store.SetResetToken(ctx, user.ID, DigestSecret(raw), expiresAt); err != nil {
		return err
	}
	resetURL := fmt.Sprintf("%s/resetPassword/%s", s.cfg.PublicBaseURL, raw)
	if err := s.mailer.SendPasswordReset(ctx, user, resetURL); err != nil {
		if clearErr := s.store.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error("reset token rollback failed", "user_id", user.ID, "error", clearErr)
		}
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return nil
}

// ResetPassword consumes a reset token, replaces the password and logs
// the user in with a fresh session token. The reset link already
// proves mailbox ownership, so the challenge step is skipped.
func (s *Service) ResetPassword(ctx context.Context, rawToken, password, passwordConfirm string) (models.User, string, error) {
	if err := validatePassword(password, passwordConfirm); err != nil {
		return models.User{}, "", err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, "", err
	}

	now := time.Now()
	// Backdated one second so a token minted in the same instant as the
	// change still compares as issued at-or-after it.
	user, err := s.store.ConsumeResetToken(ctx, DigestSecret(rawToken), hash, now.Add(-time.Second), now)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, "", ErrResetTokenInvalidOrExpired
		}
		return models.User{}, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// UpdatePassword performs an in-session password change. The current
// password must re-verify before the replacement; success invalidates
// every previously issued token via the changed-at stamp and returns a
// fresh one.
func (s *Service) UpdatePassword(ctx context.Context, userID, passwordCurrent, password, passwordConfirm string) (models.User, string, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, "", ErrUnauthenticated
		}
		return models.User{}, "", err
	}
	if !CheckPassword(user.PasswordHash, passwordCurrent) {
		return models.User{}, "", fmt.Errorf("%w: your current password is wrong", ErrInvalidCredentials)
	}
	if err := validatePassword(password, passwordConfirm); err != nil {
		return models.User{}, "", err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, "", err
	}
	updated, err := s.store.UpdatePassword(ctx, userID, hash, time.Now().Add(-time.Second))
	if err != nil {
		return models.User{}, "", err
	}

	token, err := s.tokens.Issue(updated.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return updated, token, nil
}

// NormalizeEmail lower-cases and trims an address so lookups are
// case-insensitive.
func NormalizeEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func validatePassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if password != confirm {
		return fmt.Errorf("%w: passwords are not the same", ErrValidation)
	}
	return nil
}
