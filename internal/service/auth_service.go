package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/auth"
	"github.com/spec-kit/tourism-service/internal/config"
	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/events"
	"github.com/spec-kit/tourism-service/internal/repository"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

const invalidCredentials = "Invalid credentials"

// AuthService coordinates registration, login and credential recovery.
type AuthService struct {
	accounts   repository.AccountRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	AccountRepo       repository.AccountRepository
	PasswordResetRepo repository.PasswordResetRepository
	TokenManager      *auth.TokenManager
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokenMgr := deps.TokenManager
	if tokenMgr == nil {
		tokenMgr = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL())
	}
	resetTTL := time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &AuthService{
		accounts:   deps.AccountRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   tokenMgr,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// RegisterInput is the public registration payload.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      domain.Role
	Phone     string
	Country   string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *domain.Account
}

// Register creates an account and signs the caller in. Only an authenticated
// admin may register someone with a role other than customer.
func (s *AuthService) Register(ctx context.Context, caller *domain.Account, input RegisterInput) (*AuthResult, error) {
	role := input.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("Invalid role", nil)
	}
	if role != domain.RoleCustomer && (caller == nil || caller.Role != domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("Only administrators can assign staff roles")
	}

	account, err := createAccount(ctx, s.accounts, s.bcryptCost, newAccountInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  input.Password,
		Role:      role,
		Phone:     input.Phone,
		Country:   input.Country,
		IsActive:  true,
	})
	if err != nil {
		return nil, err
	}
	return s.issue(account)
}

// Login verifies credentials. Unknown email and wrong password share one
// message so callers cannot discover which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidCredentials(invalidCredentials)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !auth.PasswordMatches(account.PasswordHash, password) {
		return nil, apperrors.NewInvalidCredentials(invalidCredentials)
	}
	if !account.IsActive {
		return nil, apperrors.NewInvalidCredentials("Account is deactivated")
	}

	loginAt := s.now().UTC()
	if err := s.accounts.TouchLastLogin(ctx, account.ID, loginAt); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	account.LastLogin = &loginAt
	return s.issue(account)
}

func (s *AuthService) issue(account *domain.Account) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(account.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{Token: token, ExpiresAt: exp, Account: account}, nil
}

// ProfileUpdate lists the fields an account may change on itself.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	Country     *string
	Preferences *domain.PreferencesPatch
	Profile     *domain.ProfilePatch
}

// UpdateProfile applies a self-service update. Preferences and profile are
// merged key by key rather than replaced.
func (s *AuthService) UpdateProfile(ctx context.Context, accountID string, update ProfileUpdate) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if update.FirstName != nil {
		account.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		account.LastName = strings.TrimSpace(*update.LastName)
	}
	if update.Phone != nil {
		account.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Country != nil {
		account.Country = strings.TrimSpace(*update.Country)
	}
	if update.Preferences != nil {
		account.Preferences.Apply(*update.Preferences)
	}
	if update.Profile != nil {
		account.Profile.Apply(*update.Profile)
	}
	if account.FirstName == "" || account.LastName == "" {
		return nil, apperrors.NewValidationError("First and last name cannot be empty", nil)
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return account, nil
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !auth.PasswordMatches(account.PasswordHash, currentPassword) {
		return apperrors.NewValidationError("Current password is incorrect", nil)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	account.PasswordHash = hash
	if err := s.accounts.Update(ctx, account); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// RequestPasswordReset issues a single-use token and publishes it for
// delivery. Unknown and inactive emails succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug("password reset for unknown email")
			return nil
		}
		return apperrors.NewInternalError(err)
	}
	if !account.IsActive {
		return nil
	}

	token := &repository.PasswordResetToken{
		AccountID: account.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return apperrors.NewInternalError(err)
	}

	if s.dispatcher != nil {
		err := s.dispatcher.Publish(ctx, events.Event{
			Type:        events.EventPasswordResetRequested,
			AggregateID: account.ID,
			Payload:     events.PasswordResetRequestedPayload{Account: account, Token: token.Token},
		})
		if err != nil {
			s.logger.Warn("password reset email not delivered", zap.String("account_id", account.ID), zap.Error(err))
		}
	}
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	invalid := apperrors.NewValidationError("Invalid or expired reset token", nil)

	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return invalid
		}
		return apperrors.NewInternalError(err)
	}
	if !token.Usable(s.now()) {
		return invalid
	}

	account, err := s.accounts.GetByID(ctx, token.AccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return invalid
		}
		return apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return invalid
		}
		return apperrors.NewInternalError(err)
	}
	account.PasswordHash = hash
	if err := s.accounts.Update(ctx, account); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
