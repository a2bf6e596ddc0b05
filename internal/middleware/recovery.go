package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/trailbook/trailbook-be/internal/http/respond"
)

// Recovery converts handler panics into 500 responses so one faulty
// request cannot take the process down.
func Recovery(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				respond.Error(w, http.StatusInternalServerError, "Something went very wrong!")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
