package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/redis/go-redis/v9"

	"biletmaster/utils"
)

type HealthHandler struct {
	redis   *redis.Client // nil when snapshots are kept in memory
	breaker *utils.CircuitBreaker
}

func NewHealthHandler(redisClient *redis.Client, breaker *utils.CircuitBreaker) *HealthHandler {
	return &HealthHandler{redis: redisClient, breaker: breaker}
}

// GetHealth reports unhealthy only when redis is configured and down. An
// open breaker is reported but does not fail the check.
func (h *HealthHandler) GetHealth(c echo.Context) error {
	body := map[string]string{"status": "healthy"}
	if h.breaker != nil {
		body["upstream"] = h.breaker.State().String()
	}

	if h.redis != nil {
		if err := utils.RedisHealthCheck(h.redis); err != nil {
			body["status"] = "unhealthy"
			body["error"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, body)
		}
	}
	return c.JSON(http.StatusOK, body)
}
