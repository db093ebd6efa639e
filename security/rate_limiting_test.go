package security

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newServer(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(mw...)
	e.GET("/api/locations", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func get(e *echo.Echo, ua string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/locations", nil)
	req.Header.Set("User-Agent", ua)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_Allow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 2, quiet())

	mock.ExpectIncr("ratelimit:10.0.0.1").SetVal(1)
	mock.ExpectExpire("ratelimit:10.0.0.1", time.Minute).SetVal(true)
	mock.ExpectIncr("ratelimit:10.0.0.1").SetVal(2)
	mock.ExpectIncr("ratelimit:10.0.0.1").SetVal(3)

	for _, want := range []bool{true, true, false} {
		ok, err := limiter.Allow("10.0.0.1")
		assert.NoError(t, err)
		assert.Equal(t, want, ok)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_RedisDownFailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectIncr("ratelimit:10.0.0.1").SetErr(errors.New("connection refused"))

	ok, err := NewRateLimiter(db, 1, quiet()).Allow("10.0.0.1")

	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_Middleware(t *testing.T) {
	db, mock := redismock.NewClientMock()
	e := newServer(NewRateLimiter(db, 1, quiet()).APIRateLimit())

	mock.ExpectIncr("ratelimit:192.0.2.1").SetVal(1)
	mock.ExpectExpire("ratelimit:192.0.2.1", time.Minute).SetVal(true)
	mock.ExpectIncr("ratelimit:192.0.2.1").SetVal(2)

	assert.Equal(t, http.StatusOK, get(e, "Mozilla/5.0").Code)
	rec := get(e, "Mozilla/5.0")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAntiBotMiddleware(t *testing.T) {
	e := newServer(AntiBotMiddleware())

	tests := []struct {
		ua   string
		code int
	}{
		{"Mozilla/5.0 (X11; Linux x86_64)", http.StatusOK},
		{"", http.StatusOK},
		{"Googlebot/2.1", http.StatusForbidden},
		{"my-SCRAPER", http.StatusForbidden},
		{"Spider", http.StatusForbidden},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, get(e, tt.ua).Code, tt.ua)
	}
}

func TestMemoryRateLimit(t *testing.T) {
	e := newServer(MemoryRateLimit(2))

	assert.Equal(t, http.StatusOK, get(e, "Mozilla/5.0").Code)
	assert.Equal(t, http.StatusOK, get(e, "Mozilla/5.0").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(e, "Mozilla/5.0").Code)
}
