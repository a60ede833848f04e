package middleware

import (
	"fmt"
	"net/http"
	"time"

	"taskboard/internal/common"
	"taskboard/internal/platform/metrics"

	"github.com/go-chi/httprate"
	"github.com/sirupsen/logrus"
)

const rateLimitedMessage = "Too many requests, please try again later."

// RateLimit allows limit requests per client IP per sliding window. The key is
// r.RemoteAddr, so RealIP must run first when behind a proxy. store selects
// the counter (httprate.WithLimitCounter or a Redis option); nil counts in
// process.
func RateLimit(limit int, window time.Duration, store httprate.Option, log *logrus.Entry) func(http.Handler) http.Handler {
	opts := []httprate.Option{
		httprate.WithKeyByIP(),
		httprate.WithResponseHeaders(httprate.ResponseHeaders{
			Limit:      "RateLimit-Limit",
			Remaining:  "RateLimit-Remaining",
			Reset:      "RateLimit-Reset",
			RetryAfter: "Retry-After",
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			metrics.RateLimited.Inc()
			common.RespondWithError(w, http.StatusTooManyRequests, rateLimitedMessage)
		}),
		httprate.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			log.WithError(err).WithField("path", r.URL.Path).Warn("rate limiter unavailable")
			common.RespondWithDomainError(w, fmt.Errorf("rate limiter: %w", common.ErrServiceUnavailable), false)
		}),
	}
	if store != nil {
		opts = append(opts, store)
	}
	return httprate.Limit(limit, window, opts...)
}
