package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/trailbook/trailbook-be/internal/auth"
	"github.com/trailbook/trailbook-be/internal/http/respond"
	"github.com/trailbook/trailbook-be/internal/middleware"
	"github.com/trailbook/trailbook-be/internal/models/dto"
	"github.com/trailbook/trailbook-be/internal/storage"
)

// AuthHandler owns the signup/login/2FA/password endpoints. All flow
// logic lives in the auth service; the handler decodes requests, maps
// the error taxonomy to status codes, and manages the session cookie.
type AuthHandler struct {
	service   *auth.Service
	cookieTTL time.Duration
	logger    *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service *auth.Service, cookieTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, cookieTTL: cookieTTL, logger: logger}
}

// Register attaches the auth routes to the mux. requireAuth guards the
// session-only endpoints.
func (h *AuthHandler) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /signup", h.handleSignup)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("GET /verify-2fa/{token}", h.handleVerify2FA)
	mux.HandleFunc("GET /logout", h.handleLogout)
	mux.HandleFunc("POST /forgotPassword", h.handleForgotPassword)
	mux.HandleFunc("PATCH /resetPassword/{token}", h.handleResetPassword)
	mux.Handle("PATCH /updateMyPassword", requireAuth(http.HandlerFunc(h.handleUpdatePassword)))
	mux.Handle("GET /me", requireAuth(http.HandlerFunc(h.handleMe)))
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, token, err := h.service.Signup(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.setSessionCookie(w, r, token)
	respond.Success(w, http.StatusCreated, token, map[string]any{"user": user})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.service.Login(r.Context(), req.Email, req.Password); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respond.Pending(w, "2FA code sent to email.")
}

func (h *AuthHandler) handleVerify2FA(w http.ResponseWriter, r *http.Request) {
	user, token, err := h.service.VerifyChallenge(r.Context(), r.PathValue("token"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.setSessionCookie(w, r, token)
	respond.Success(w, http.StatusOK, token, map[string]any{"user": user})
}

// handleLogout overwrites the session cookie with a short-lived dummy
// value. Stateless tokens cannot be revoked server-side.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "loggedout",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	})
	respond.Message(w, http.StatusOK, "Logged out.")
}

func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respond.Message(w, http.StatusOK, "Token sent to email!")
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, token, err := h.service.ResetPassword(r.Context(), r.PathValue("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.setSessionCookie(w, r, token)
	respond.Success(w, http.StatusOK, token, map[string]any{"user": user})
}

func (h *AuthHandler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	current, ok := middleware.CurrentUser(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
		return
	}
	var req dto.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, token, err := h.service.UpdatePassword(r.Context(), current.ID, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.setSessionCookie(w, r, token)
	respond.Success(w, http.StatusOK, token, map[string]any{"user": user})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
		return
	}
	respond.Success(w, http.StatusOK, "", map[string]any{"user": user})
}

// setSessionCookie binds the token to an HTTP-only cookie, secure when
// the request is HTTPS directly or via a trusted proxy header.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
	})
}

func (h *AuthHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrValidation):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrChallengeInvalidOrExpired),
		errors.Is(err, auth.ErrResetTokenInvalidOrExpired):
		respond.Error(w, http.StatusBadRequest, "Token is invalid or has expired")
	case errors.Is(err, auth.ErrUserNotFound):
		respond.Error(w, http.StatusNotFound, "There is no user with that email address")
	case errors.Is(err, auth.ErrUnauthenticated):
		respond.Error(w, http.StatusUnauthorized, "You are not logged in! Please log in to get access.")
	case errors.Is(err, auth.ErrForbidden):
		respond.Error(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, auth.ErrEmailDelivery):
		respond.Error(w, http.StatusInternalServerError, "There was an error sending the email. Try again later!")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusBadRequest, "A user with that email already exists")
	default:
		h.logger.Error("auth handler error", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Something went very wrong!")
	}
}
