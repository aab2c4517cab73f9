package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/service"
)

// AnalyticsHandler exposes reporting endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Dashboard handles GET /api/analytics/dashboard.
func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	window, err := dateRange(c)
	if err != nil {
		return err
	}
	dashboard, err := h.analytics.Dashboard(c.UserContext(), window)
	if err != nil {
		return err
	}
	return c.JSON(dashboard)
}

// Bookings handles GET /api/analytics/bookings.
func (h *AnalyticsHandler) Bookings(c *fiber.Ctx) error {
	report, err := h.analytics.BookingAnalytics(c.UserContext(), queryString(c, "period"))
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// Revenue handles GET /api/analytics/revenue.
func (h *AnalyticsHandler) Revenue(c *fiber.Ctx) error {
	window, err := dateRange(c)
	if err != nil {
		return err
	}
	report, err := h.analytics.Revenue(c.UserContext(), queryString(c, "groupBy"), window)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func dateRange(c *fiber.Ctx) (domain.DateRange, error) {
	from, err := queryDate(c, "startDate")
	if err != nil {
		return domain.DateRange{}, err
	}
	to, err := queryDate(c, "endDate")
	if err != nil {
		return domain.DateRange{}, err
	}
	return domain.DateRange{From: from, To: to}, nil
}
