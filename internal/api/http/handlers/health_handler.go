package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness checks.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    Pinger
	redis       Pinger
	started     time.Time
	now         func() time.Time
}

// NewHealthHandler returns a new handler instance. redis may be nil when the
// service runs without it.
func NewHealthHandler(serviceName, version string, postgres, redis Pinger) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		postgres:    postgres,
		redis:       redis,
		started:     time.Now(),
		now:         time.Now,
	}
}

// Root describes the API.
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":        h.serviceName,
		"version":     h.version,
		"description": "Centralized tourism management system for operations, bookings, marketing, HR, and finance",
		"endpoints": fiber.Map{
			"health":    "/health",
			"auth":      "/api/auth",
			"tours":     "/api/tours",
			"bookings":  "/api/bookings",
			"users":     "/api/users",
			"analytics": "/api/analytics",
			"crm":       "/api/crm",
		},
	})
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	now := h.now()
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": now.UTC().Format(time.RFC3339),
		"uptime":    now.Sub(h.started).Seconds(),
	})
}

// Ready reports readiness. Postgres is required; Redis only degrades caching
// and queued notifications.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	status := "ready"

	if err := h.postgres.Ping(ctx); err != nil {
		depStatus["postgres"] = err.Error()
		status = "unavailable"
	} else {
		depStatus["postgres"] = "ok"
	}

	switch {
	case h.redis == nil:
		depStatus["redis"] = "disabled"
	case h.redis.Ping(ctx) != nil:
		depStatus["redis"] = "unreachable"
		if status == "ready" {
			status = "degraded"
		}
	default:
		depStatus["redis"] = "ok"
	}

	if status == "unavailable" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "One or more dependencies unavailable",
			"details": depStatus,
		})
	}
	return c.JSON(fiber.Map{
		"status":       status,
		"dependencies": depStatus,
	})
}
