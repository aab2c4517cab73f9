package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/repository/repotest"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, expiresAt, err := tm.GenerateToken("acc-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
}

func TestTokenDefaultsToSevenDays(t *testing.T) {
	tm := NewTokenManager("secret", 0)
	_, expiresAt, err := tm.GenerateToken("acc-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, 5*time.Second)
}

func TestTokenRejectsExpiredAndForeign(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, _, err := tm.GenerateToken("acc-1")
	require.NoError(t, err)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tm.ParseToken(token)
	assert.Error(t, err)

	other := NewTokenManager("different", time.Hour)
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, PasswordMatches(hash, "hunter22"))
	assert.False(t, PasswordMatches(hash, "wrong"))
	assert.False(t, PasswordMatches("", ""))
}

func TestHashPasswordFallsBackToDefaultCost(t *testing.T) {
	hash, err := HashPassword("hunter22", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, cost)
}

func newTestApp(t *testing.T, mw *AuthMiddleware, roles ...domain.Role) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"message": de.Message})
		},
	})
	handlers := []fiber.Handler{mw.Handle}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRoles(roles...))
	}
	handlers = append(handlers, func(c *fiber.Ctx) error {
		account, err := MustAccount(c)
		if err != nil {
			return err
		}
		return c.SendString(account.ID)
	})
	app.Get("/private", handlers...)
	return app
}

func seedAccount(t *testing.T, accounts *repotest.Accounts, role domain.Role, active bool) *domain.Account {
	t.Helper()
	account := &domain.Account{FirstName: "Ana", Email: string(role) + "@example.com", Role: role, IsActive: active}
	require.NoError(t, accounts.Create(context.Background(), account))
	return account
}

func TestMiddlewareStatuses(t *testing.T) {
	accounts := repotest.NewAccounts()
	tm := NewTokenManager("secret", time.Hour)
	mw := NewAuthMiddleware(tm, accounts)

	active := seedAccount(t, accounts, domain.RoleCustomer, true)
	inactive := seedAccount(t, accounts, domain.RoleAgent, false)
	activeToken, _, _ := tm.GenerateToken(active.ID)
	inactiveToken, _, _ := tm.GenerateToken(inactive.ID)
	ghostToken, _, _ := tm.GenerateToken("missing")

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"unknown account", "Bearer " + ghostToken, http.StatusUnauthorized},
		{"inactive", "Bearer " + inactiveToken, http.StatusForbidden},
		{"ok", "Bearer " + activeToken, http.StatusOK},
	}

	app := newTestApp(t, mw)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	accounts := repotest.NewAccounts()
	tm := NewTokenManager("secret", time.Hour)
	app := newTestApp(t, NewAuthMiddleware(tm, accounts), domain.RoleAdmin, domain.RoleManager)

	customer := seedAccount(t, accounts, domain.RoleCustomer, true)
	manager := seedAccount(t, accounts, domain.RoleManager, true)

	for account, status := range map[*domain.Account]int{customer: http.StatusForbidden, manager: http.StatusOK} {
		token, _, err := tm.GenerateToken(account.ID)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode, account.Role)
	}
}

func TestRequireRolesRejectsEmptyRoleList(t *testing.T) {
	assert.Panics(t, func() { RequireRoles() })
}

func TestStaffGroupsExcludeCustomers(t *testing.T) {
	groups := map[string][]domain.Role{
		"managers":  Managers,
		"desk":      BookingDesk,
		"bookings":  BookingViewers,
		"people":    PeopleAdmins,
		"directory": PeopleViewers,
		"analytics": AnalyticsViewers,
		"crm":       CRMStaff,
		"marketing": Marketers,
	}
	for name, roles := range groups {
		assert.NotContains(t, roles, domain.RoleCustomer, name)
		assert.Contains(t, roles, domain.RoleAdmin, name)
	}
	assert.NotContains(t, BookingDesk, domain.RoleFinance)
	assert.Contains(t, BookingViewers, domain.RoleFinance)
}
