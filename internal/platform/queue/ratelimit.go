package queue

import (
	"time"

	"github.com/go-chi/httprate"
	httprateredis "github.com/go-chi/httprate-redis"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const rateLimitPrefix = "taskboard:ratelimit"

// RateLimitCounter shares rate limit windows across instances through rdb.
// While Redis is unreachable each instance counts locally.
func RateLimitCounter(rdb *redis.Client, log *logrus.Entry) httprate.Option {
	return httprateredis.WithRedisLimitCounter(&httprateredis.Config{
		Client:          rdb,
		PrefixKey:       rateLimitPrefix,
		FallbackTimeout: 100 * time.Millisecond,
		OnFallbackChange: func(activated bool) {
			if activated {
				log.Warn("Redis rate limit counter unavailable; counting in process")
				return
			}
			log.Info("Redis rate limit counter restored")
		},
	})
}
