package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/redis/go-redis/v9"
)

const rateWindow = time.Minute

// RateLimiter counts requests per client in fixed one minute windows kept
// in redis, so the limit holds across server instances.
type RateLimiter struct {
	redis     *redis.Client
	perMinute int64
	log       *slog.Logger
}

func NewRateLimiter(redisClient *redis.Client, perMinute int, log *slog.Logger) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RateLimiter{redis: redisClient, perMinute: int64(perMinute), log: log}
}

// Allow implements middleware.RateLimiterStore. Redis errors let the
// request through.
func (r *RateLimiter) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	key := fmt.Sprintf("ratelimit:%s", identifier)
	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		r.log.Warn("rate limit counter", "key", key, "error", err)
		return true, nil
	}
	if count == 1 {
		r.redis.Expire(ctx, key, rateWindow)
	}
	return count <= r.perMinute, nil
}

// APIRateLimit limits API calls per client IP.
func (r *RateLimiter) APIRateLimit() echo.MiddlewareFunc {
	return rateLimit(r)
}

// MemoryRateLimit limits API calls per client IP within this process only.
// Clients may burst up to perMinute requests.
func MemoryRateLimit(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		perMinute = 60
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      float64(perMinute) / rateWindow.Seconds(),
		Burst:     perMinute,
		ExpiresIn: 3 * rateWindow,
	})
	return rateLimit(store)
}

func rateLimit(store middleware.RateLimiterStore) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "Access denied",
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
			})
		},
	})
}

// AntiBotMiddleware rejects clients that identify as crawlers.
func AntiBotMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isSuspiciousUserAgent(c.Request().Header.Get("User-Agent")) {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "Access denied",
				})
			}
			return next(c)
		}
	}
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
