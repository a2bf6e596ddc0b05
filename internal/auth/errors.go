package auth

import "errors"

// Error taxonomy for the auth core. Flows return these sentinels
// (possibly wrapped with detail); the HTTP boundary maps them to
// transport status codes and never sees raw store errors as API shapes.
var (
	ErrInvalidCredentials         = errors.New("incorrect email or password")
	ErrChallengeInvalidOrExpired  = errors.New("2fa token is invalid or has expired")
	ErrResetTokenInvalidOrExpired = errors.New("reset token is invalid or has expired")
	ErrUserNotFound               = errors.New("no user with that email address")
	ErrUnauthenticated            = errors.New("not authenticated")
	ErrForbidden                  = errors.New("permission denied")
	ErrEmailDelivery              = errors.New("error sending the email")
	ErrValidation                 = errors.New("invalid input")

	ErrTokenExpired = errors.New("session token has expired")
	ErrTokenInvalid = errors.New("session token is invalid")
)
