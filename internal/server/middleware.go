// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// usernameKey carries the authenticated username through the request context.
type usernameKey struct{}

// UsernameFromContext returns the authenticated username, or "" outside an
// authenticated request.
func UsernameFromContext(ctx context.Context) string {
	u, _ := ctx.Value(usernameKey{}).(string)
	return u
}

// BasicAuth guards a route group with HTTP Basic credentials, compared in
// constant time. Empty configured credentials reject every request rather
// than allowing anonymous access.
func BasicAuth(username, password string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || username == "" || password == "" ||
				subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="deepresearch"`)
				writeError(w, http.StatusUnauthorized, types.KindValidation, "incorrect username or password")
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger logs one line per request with method, path, status and
// duration.
func RequestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
