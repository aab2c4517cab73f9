package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/repository"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

const accountKey = "auth_account"

// AuthMiddleware validates bearer tokens and loads the caller's account.
type AuthMiddleware struct {
	tokens   *TokenManager
	accounts repository.AccountRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, accounts repository.AccountRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, accounts: accounts}
}

// Handle enforces authentication for protected routes. The account is read
// fresh on every request so deactivation and role changes apply immediately.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized(msgNoToken)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized(msgNoToken)
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("Token is not valid")
	}

	account, err := m.accounts.GetByID(c.UserContext(), claims.AccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("Token is not valid")
		}
		return apperrors.MapError(err)
	}
	if !account.IsActive {
		return apperrors.NewForbidden("Account is deactivated")
	}

	c.Locals(accountKey, account)
	return c.Next()
}

// Optional loads the caller when a valid bearer token is present and lets the
// request through anonymously otherwise.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return c.Next()
	}
	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return c.Next()
	}
	account, err := m.accounts.GetByID(c.UserContext(), claims.AccountID)
	if err == nil && account.IsActive {
		c.Locals(accountKey, account)
	}
	return c.Next()
}

// AccountFromContext retrieves the authenticated account.
func AccountFromContext(c *fiber.Ctx) (*domain.Account, bool) {
	account, ok := c.Locals(accountKey).(*domain.Account)
	return account, ok && account != nil
}

// MustAccount returns the authenticated account or an Unauthenticated error.
func MustAccount(c *fiber.Ctx) (*domain.Account, error) {
	account, ok := AccountFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized(msgNoToken)
	}
	return account, nil
}
