package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/IgorGrieder/guardiao-url/internal/constants"
	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/logger"
	"github.com/IgorGrieder/guardiao-url/internal/processing/shortlinks"
	"github.com/IgorGrieder/guardiao-url/pkg/httputils"
	"go.uber.org/zap"
)

const APIKeyHeader = "X-API-Key"

type profileContextKey struct{}

// ProfileLookup resolves an API key to the account that owns it.
type ProfileLookup interface {
	FindByAPIKey(ctx context.Context, apiKey string) (*shortlinks.Profile, error)
}

// APIKeyMiddleware authenticates management requests against user
// profiles. The resolved profile lands in the request context so
// handlers can scope queries to the caller's account.
func APIKeyMiddleware(profiles ProfileLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if apiKey == "" {
				httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
				return
			}

			profile, err := profiles.FindByAPIKey(r.Context(), apiKey)
			if err != nil {
				if errors.Is(err, shortlinks.ErrProfileNotFound) {
					httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
					return
				}
				logger.Error("profile lookup failed", zap.Error(err))
				httputils.WriteAPIError(w, r, constants.ErrInternalError)
				return
			}
			if profile.Status != shortlinks.ProfileActive {
				httputils.WriteAPIError(w, r, constants.ErrSubscriptionExpired)
				return
			}

			ctx := context.WithValue(r.Context(), profileContextKey{}, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProfileFromContext returns the authenticated profile placed in the
// context by APIKeyMiddleware, or nil when the request skipped auth.
func ProfileFromContext(ctx context.Context) *shortlinks.Profile {
	profile, _ := ctx.Value(profileContextKey{}).(*shortlinks.Profile)
	return profile
}
