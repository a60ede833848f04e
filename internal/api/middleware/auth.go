package middleware

import (
	"context"
	"errors"
	"net/http"

	"taskboard/internal/common"
	"taskboard/internal/common/security"
	"taskboard/internal/domain/model"
	"taskboard/internal/platform/metrics"

	"github.com/go-chi/jwtauth/v5"
	"github.com/sirupsen/logrus"
)

type contextKey string

const UserCtxKey contextKey = "user"

// TokenAuthenticator resolves a bearer token to a user.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

const unauthenticatedMessage = "Not authorized, token failed"

// Authenticator requires "Authorization: Bearer <token>" and puts the resolved
// user in the request context. Any failure ends the request with 401.
func Authenticator(authn TokenAuthenticator, log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := jwtauth.TokenFromHeader(r)
			if token == "" {
				metrics.AuthFailures.WithLabelValues("missing_token").Inc()
				common.RespondWithError(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				reason := failureReason(err)
				metrics.AuthFailures.WithLabelValues(reason).Inc()
				entry := log.WithError(err).WithField("reason", reason)
				if reason == "error" {
					entry.Error("authentication lookup failed")
				} else {
					entry.Debug("authentication rejected")
				}
				common.RespondWithError(w, http.StatusUnauthorized, unauthenticatedMessage)
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, security.ErrTokenExpired):
		return "expired"
	case errors.Is(err, security.ErrTokenInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, security.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, common.ErrUnauthenticated):
		return "unknown_user"
	default:
		return "error"
	}
}

// UserFromContext returns the user stored by Authenticator.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok && user != nil
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.ID, true
}
