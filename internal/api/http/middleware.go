package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/observability"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

// MiddlewareConfig bundles what the global middlewares need.
type MiddlewareConfig struct {
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Timeout    time.Duration
	CORSOrigin string
}

// RegisterMiddlewares attaches global middlewares such as recovery, security
// headers, CORS and request logging.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(_ *fiber.Ctx, r interface{}) {
			logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		},
	}))
	app.Use(requestid.New(requestid.Config{ContextKey: observability.RequestIDKey}))
	app.Use(helmet.New())
	app.Use(cors.New(corsConfig(cfg.CORSOrigin)))
	app.Use(observability.RequestLogger(logger, cfg.Metrics))
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
}

func corsConfig(origin string) cors.Config {
	if origin == "" {
		origin = "*"
	}
	// fiber refuses credentials together with a wildcard origin.
	return cors.Config{
		AllowOrigins:     origin,
		AllowCredentials: origin != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// NewErrorHandler renders every error returned by a handler as
// {message, details, error}. The underlying cause is only exposed when
// development is set.
func NewErrorHandler(logger *zap.Logger, metrics *observability.Metrics, development bool) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			if fiberErr.Code == fiber.StatusNotFound {
				return notFound(c)
			}
			err = fromFiberError(fiberErr)
		}

		domainErr := apperrors.ToDomainError(err)
		metrics.RecordError(routePath(c), c.Method(), domainErr.Code)

		body := fiber.Map{"message": domainErr.Message}
		if domainErr.Details != nil {
			body["details"] = domainErr.Details
		}
		if domainErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Any("request_id", c.Locals(observability.RequestIDKey)),
				zap.Error(domainErr))
		}
		if development && domainErr.Err != nil {
			body["error"] = domainErr.Err.Error()
		}
		return c.Status(domainErr.HTTPStatus).JSON(body)
	}
}

func fromFiberError(fe *fiber.Error) *apperrors.DomainError {
	switch {
	case fe.Code == fiber.StatusRequestEntityTooLarge:
		return apperrors.NewDomainError("VALIDATION_FAILED", "Request body too large", fe.Code, nil)
	case fe.Code == fiber.StatusMethodNotAllowed:
		return apperrors.NewDomainError("NOT_FOUND", "Endpoint not found", fe.Code, nil)
	case fe.Code >= http.StatusInternalServerError:
		return apperrors.ToDomainError(apperrors.NewInternalError(fe))
	default:
		return apperrors.NewDomainError("VALIDATION_FAILED", fe.Message, fe.Code, nil)
	}
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": "Endpoint not found",
		"path":    c.OriginalURL(),
	})
}

func routePath(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" {
		return route.Path
	}
	return c.Path()
}
