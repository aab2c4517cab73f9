package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tourism-service/internal/domain"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

const (
	msgNoToken           = "No token, authorization denied"
	msgInsufficientRoles = "Access denied. Insufficient permissions."
)

// Staff role groups shared by the route table.
var (
	Managers         = []domain.Role{domain.RoleAdmin, domain.RoleManager}
	BookingDesk      = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleAgent}
	BookingViewers   = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleAgent, domain.RoleFinance}
	PeopleAdmins     = []domain.Role{domain.RoleAdmin, domain.RoleHR}
	PeopleViewers    = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleHR}
	AnalyticsViewers = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleFinance}
	CRMStaff         = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleMarketing, domain.RoleAgent}
	Marketers        = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleMarketing}
)

// RequireRoles ensures the authenticated account holds one of the allowed
// roles. It must run after AuthMiddleware.Handle. An empty role list would
// lock the route for everyone and panics at registration instead.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	if len(allowed) == 0 {
		panic("auth: RequireRoles needs at least one role")
	}
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		account, ok := AccountFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(msgNoToken)
		}
		if _, exists := allowedSet[account.Role]; !exists {
			return apperrors.NewForbidden(msgInsufficientRoles)
		}
		return c.Next()
	}
}
