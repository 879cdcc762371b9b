package middlewares

import (
	"chartseed-service/internal/pkg/constvars"
	"chartseed-service/internal/pkg/exceptions"
	"chartseed-service/internal/pkg/utils"
	"context"
	"net/http"

	"go.uber.org/zap"
)

// APIKeyAuth validates the x-api-key header when one is present and marks the
// request context so downstream middleware can pick the wider rate budget.
// Requests without the header pass through untouched.
func (m *Middlewares) APIKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(constvars.HeaderApiKey)

		if apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		if apiKey != m.InternalConfig.App.SuperadminAPIKey {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrInvalidAPIKey(nil))
			return
		}

		ctx := context.WithValue(r.Context(), constvars.CONTEXT_API_KEY_AUTH, true)

		m.Log.Info("API Key authentication successful",
			zap.String("ip", r.RemoteAddr),
			zap.String("endpoint", r.URL.Path),
			zap.String("method", r.Method),
			zap.String("user_agent", r.UserAgent()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSuperadminAPIKey rejects any request that does not carry the
// configured key. It guards the destructive endpoints; with no key configured
// every request is refused.
func (m *Middlewares) RequireSuperadminAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(constvars.HeaderApiKey)

		if apiKey == "" {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrAPIKeyRequired(nil))
			return
		}

		if apiKey != m.InternalConfig.App.SuperadminAPIKey {
			m.Log.Warn("API Key authentication failed",
				zap.String("ip", r.RemoteAddr),
				zap.String("endpoint", r.URL.Path),
				zap.String("method", r.Method))
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrInvalidAPIKey(nil))
			return
		}

		ctx := context.WithValue(r.Context(), constvars.CONTEXT_API_KEY_AUTH, true)

		m.Log.Info("API Key authentication successful",
			zap.String("ip", r.RemoteAddr),
			zap.String("endpoint", r.URL.Path),
			zap.String("method", r.Method),
			zap.String("user_agent", r.UserAgent()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
