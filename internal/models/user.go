package models

import "time"

// User captures the application-facing identity fields plus the
// transient challenge/reset state owned by the auth flows. Secret
// material is never serialized to API responses.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Photo        string `json:"photo,omitempty"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`

	// Zero when the password has never changed since account creation.
	PasswordChangedAt time.Time `json:"-"`

	// Present only while an emailed login challenge is outstanding.
	MFAChallengeHash      string    `json:"-"`
	MFAChallengeExpiresAt time.Time `json:"-"`

	// Present only while a password-reset request is outstanding.
	ResetTokenHash      string    `json:"-"`
	ResetTokenExpiresAt time.Time `json:"-"`

	Active    bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ChangedPasswordAfter reports whether the password was replaced after
// the given session-token issue time. Tokens issued before the most
// recent change are permanently rejected by the route guard.
func (u User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return u.PasswordChangedAt.After(issuedAt)
}
