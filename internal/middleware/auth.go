package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/trailbook/trailbook-be/internal/auth"
	"github.com/trailbook/trailbook-be/internal/http/respond"
	"github.com/trailbook/trailbook-be/internal/models"
	"github.com/trailbook/trailbook-be/internal/storage"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "jwt"

type userContextKey struct{}

// CurrentUser returns the user attached to the request context by
// RequireAuth or OptionalAuth.
func CurrentUser(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(models.User)
	return user, ok
}

// RequireAuth guards protected routes: it extracts the session token
// from the bearer header or cookie, verifies it, loads the referenced
// user, and rejects tokens issued before the last password change.
// The resolved user is attached to the request context.
func RequireAuth(tokens *auth.TokenManager, store storage.UserStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, tokens, store)
			if err != nil {
				status, message := guardFailure(err)
				if status == http.StatusInternalServerError {
					logger.Error("route guard failed", "path", r.URL.Path, "error", err)
				}
				respond.Error(w, status, message)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth runs the same verification chain as RequireAuth but
// swallows every failure, letting the request proceed as anonymous.
// Used by render-style pages that only optionally greet a user.
func OptionalAuth(tokens *auth.TokenManager, store storage.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := resolveUser(r, tokens, store); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userContextKey{}, user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles composes after RequireAuth and rejects users whose role
// is not in the allowed set.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
				return
			}
			if !auth.Authorized(roles, user.Role) {
				respond.Error(w, http.StatusForbidden, "You do not have permission to perform this action.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveUser(r *http.Request, tokens *auth.TokenManager, store storage.UserStore) (models.User, error) {
	token, ok := extractToken(r)
	if !ok {
		return models.User{}, auth.ErrUnauthenticated
	}
	claims, err := tokens.Parse(token)
	if err != nil {
		return models.User{}, err
	}
	user, err := store.FindByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted or deactivated account.
			return models.User{}, auth.ErrTokenInvalid
		}
		return models.User{}, err
	}
	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return models.User{}, errStalePasswordToken
	}
	return user, nil
}

// errStalePasswordToken marks a well-formed token minted before the
// user's most recent password change.
var errStalePasswordToken = errors.New("token issued before password change")

// extractToken prefers the Authorization header over the cookie, the
// same order the original API resolves them in.
func extractToken(r *http.Request) (string, bool) {
	const bearer = "Bearer "
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, bearer) && len(header) > len(bearer) {
		return header[len(bearer):], true
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

func guardFailure(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "You are not logged in! Please log in to get access."
	case errors.Is(err, errStalePasswordToken):
		return http.StatusUnauthorized, "User recently changed password! Please log in again."
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "Your session has expired. Please log in again."
	case errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusUnauthorized, "Invalid session. Please log in again."
	default:
		return http.StatusInternalServerError, "Something went very wrong!"
	}
}
