package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "stayd/pkg/errors"
	httputil "stayd/pkg/http"
	"stayd/pkg/logger"
)

// Recovery turns handler panics into a 500 envelope instead of a dropped
// connection, logging the stack under the request id.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("Panic recovered",
						"request_id", RequestIDFrom(r.Context()),
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					err := apperrors.Internal("Internal server error", fmt.Errorf("panic: %v", rec))
					_ = httputil.WriteError(w, err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
