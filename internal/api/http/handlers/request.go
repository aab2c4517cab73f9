package handlers

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/tourism-service/internal/api/dto"
	"github.com/spec-kit/tourism-service/internal/service"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

// bindJSON decodes the request body into dst and runs its validate tags.
func bindJSON(c *fiber.Ctx, dst any) error {
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return apperrors.NewValidationError("Invalid JSON payload", nil)
	}
	return dto.Validate(dst)
}

// pathID returns the :id parameter. A malformed id cannot name any row, so
// it is reported with the resource's not-found message.
func pathID(c *fiber.Ctx, notFound string) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.NewNotFound(notFound)
	}
	return id, nil
}

// pageRequest reads page and limit. Oversized limits are clamped by the
// service; a page past service.MaxPage is rejected.
func pageRequest(c *fiber.Ctx) (service.PageRequest, error) {
	page := service.PageRequest{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", 0)}
	if page.Page > service.MaxPage {
		return service.PageRequest{}, invalidQuery("page", "is out of range")
	}
	return page, nil
}

func queryString(c *fiber.Ctx, key string) string {
	return strings.TrimSpace(c.Query(key))
}

func queryInt(c *fiber.Ctx, key string) (*int, error) {
	raw := queryString(c, key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, invalidQuery(key, "must be a number")
	}
	return &n, nil
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := queryString(c, key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, invalidQuery(key, "must be true or false")
	}
	return &b, nil
}

func queryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := queryString(c, key)
	if raw == "" {
		return nil, nil
	}
	t, err := dto.ParseDate(raw)
	if err != nil {
		return nil, invalidQuery(key, "must be a date")
	}
	return &t, nil
}

func invalidQuery(key, message string) error {
	return apperrors.NewValidationError("Validation failed",
		[]apperrors.FieldError{{Field: key, Message: key + " " + message}})
}
