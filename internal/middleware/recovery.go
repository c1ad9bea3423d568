package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/josh-kwaku/pocket-wallet/internal/handler"
	"github.com/josh-kwaku/pocket-wallet/internal/logging"
)

// Recovery turns a handler panic into a 500 envelope. http.ErrAbortHandler
// is re-raised so the server can abort the response.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logging.FromContext(r.Context()).Error("panic recovered",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
