package middleware

import (
	"net/http"

	"github.com/arnavshah/pair-overlap-api/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const limiterPrefix = "overlap_limiter"

// NewMemoryStore keeps counters in process
func NewMemoryStore() limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: limiterPrefix})
}

// NewRedisStore shares counters between instances through redis
func NewRedisStore(url string) (limiter.Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	store, err := sredis.NewStoreWithOptions(redis.NewClient(opts), limiter.StoreOptions{Prefix: limiterPrefix})
	if err != nil {
		return nil, errors.Wrap(err, "create redis store")
	}
	return store, nil
}

// RateLimit limits requests per API user, or per client IP before
// authentication. A redis store that cannot be reached falls back to memory.
func RateLimit(opts config.RateLimitOptions, logger logrus.FieldLogger) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(opts.Rate)
	if err != nil {
		return nil, errors.Wrapf(err, "parse rate %q", opts.Rate)
	}

	var store limiter.Store
	switch opts.Storage {
	case "redis":
		store, err = NewRedisStore(opts.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
			store = NewMemoryStore()
		}
	default:
		store = NewMemoryStore()
	}

	return mgin.NewMiddleware(limiter.New(store, rate),
		mgin.WithKeyGetter(func(c *gin.Context) string {
			if userID := c.GetString("userID"); userID != "" {
				return "user:" + userID
			}
			return "ip:" + c.ClientIP()
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		}),
	), nil
}
