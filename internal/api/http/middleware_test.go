package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/config"
	"github.com/spec-kit/tourism-service/internal/observability"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

func newMiddlewareApp(development bool) *fiber.App {
	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(zap.NewNop(), metrics, development)})
	RegisterMiddlewares(app, MiddlewareConfig{Metrics: metrics, Timeout: time.Second})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperrors.NewInternalError(errors.New("disk full"))
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("unexpected")
	})
	app.Get("/deadline", func(c *fiber.Ctx) error {
		_, ok := c.UserContext().Deadline()
		return c.JSON(fiber.Map{"deadline": ok})
	})
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return apperrors.NewConflict("Slug already in use", nil)
	})
	return app
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestErrorHandlerHidesCauseOutsideDevelopment(t *testing.T) {
	resp, err := newMiddlewareApp(false).Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Server error", body["message"])
	assert.NotContains(t, body, "error")

	resp, err = newMiddlewareApp(true).Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	body = decode(t, resp)
	assert.Equal(t, "disk full", body["error"])
}

func TestErrorHandlerRendersDomainErrors(t *testing.T) {
	resp, err := newMiddlewareApp(false).Test(httptest.NewRequest(http.MethodGet, "/conflict", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Slug already in use", decode(t, resp)["message"])
}

func TestPanicIsRecovered(t *testing.T) {
	resp, err := newMiddlewareApp(false).Test(httptest.NewRequest(http.MethodGet, "/panic", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Server error", decode(t, resp)["message"])
}

func TestRequestContextCarriesDeadline(t *testing.T) {
	resp, err := newMiddlewareApp(false).Test(httptest.NewRequest(http.MethodGet, "/deadline", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, true, decode(t, resp)["deadline"])
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/deadline", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	resp, err := newMiddlewareApp(false).Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestMethodNotAllowedMapsToNotFound(t *testing.T) {
	resp, err := newMiddlewareApp(false).Test(httptest.NewRequest(http.MethodPost, "/deadline", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Endpoint not found", decode(t, resp)["message"])
}

func TestIPRateLimiterSweepsIdleVisitors(t *testing.T) {
	clock := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	limiter := newIPRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	limiter.now = func() time.Time { return clock }

	assert.True(t, limiter.allow("10.0.0.1"))
	assert.False(t, limiter.allow("10.0.0.1"))
	assert.True(t, limiter.allow("10.0.0.2"))

	clock = clock.Add(visitorIdleTTL + time.Minute)
	assert.True(t, limiter.allow("10.0.0.1"))
	assert.Len(t, limiter.visitors, 1)
}
