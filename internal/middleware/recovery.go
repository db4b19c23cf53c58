package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"docvault/internal/httputil"
)

// Recovery turns a handler panic into a 500 problem. If the handler already
// started its response the status cannot change, so only the log is written.
// http.ErrAbortHandler is re-raised for net/http to abort the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				attrs := []any{
					"panic", v,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				}
				if principal := httputil.GetPrincipal(r); principal != nil {
					attrs = append(attrs, "user_id", principal.ID)
				}
				logger.Error("panic recovered", attrs...)

				if rec.status != 0 {
					return
				}
				httputil.RespondError(rec, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
