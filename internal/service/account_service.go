package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/auth"
	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/repository"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

const duplicateEmail = "User already exists with this email"

// AccountService implements user administration for staff.
type AccountService struct {
	accounts   repository.AccountRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(accounts repository.AccountRepository, bcryptCost int, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{accounts: accounts, bcryptCost: bcryptCost, logger: logger}
}

// AccountListFilter holds the filters of the user listing.
type AccountListFilter struct {
	Role     *domain.Role
	IsActive *bool
	Search   string
	PageRequest
}

// CreateAccountInput is an administrative account creation.
type CreateAccountInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	Role        domain.Role
	Phone       string
	Country     string
	IsActive    *bool
	Preferences *domain.PreferencesPatch
	Profile     *domain.ProfilePatch
}

// AccountUpdate lists the fields an administrator may change.
type AccountUpdate struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Role        *domain.Role
	Phone       *string
	Country     *string
	IsActive    *bool
	Preferences *domain.PreferencesPatch
	Profile     *domain.ProfilePatch
}

// AccountStats is the user overview shown to administrators.
type AccountStats struct {
	TotalUsers    int               `json:"totalUsers"`
	ActiveUsers   int               `json:"activeUsers"`
	InactiveUsers int               `json:"inactiveUsers"`
	RoleStats     []domain.RoleStat `json:"roleBreakdown"`
}

func (s *AccountService) List(ctx context.Context, filter AccountListFilter) ([]domain.Account, Pagination, error) {
	page := filter.PageRequest.normalize(20)
	accounts, total, err := s.accounts.List(ctx, repository.AccountFilter{
		Role:     filter.Role,
		IsActive: filter.IsActive,
		Search:   filter.Search,
		Page:     repository.Page{Limit: page.Limit, Offset: page.offset()},
	})
	if err != nil {
		return nil, Pagination{}, apperrors.NewInternalError(err)
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, newPagination(page, total), nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return account, nil
}

func (s *AccountService) Create(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	role := input.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("Invalid role", nil)
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	return createAccount(ctx, s.accounts, s.bcryptCost, newAccountInput{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		Password:    input.Password,
		Role:        role,
		Phone:       input.Phone,
		Country:     input.Country,
		IsActive:    active,
		Preferences: input.Preferences,
		Profile:     input.Profile,
	})
}

func (s *AccountService) Update(ctx context.Context, id string, update AccountUpdate) (*domain.Account, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.FirstName != nil {
		account.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		account.LastName = strings.TrimSpace(*update.LastName)
	}
	if update.Email != nil {
		account.Email = normalizeEmail(*update.Email)
	}
	if update.Role != nil {
		if !update.Role.Valid() {
			return nil, apperrors.NewValidationError("Invalid role", nil)
		}
		account.Role = *update.Role
	}
	if update.Phone != nil {
		account.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Country != nil {
		account.Country = strings.TrimSpace(*update.Country)
	}
	if update.IsActive != nil {
		account.IsActive = *update.IsActive
	}
	if update.Preferences != nil {
		account.Preferences.Apply(*update.Preferences)
	}
	if update.Profile != nil {
		account.Profile.Apply(*update.Profile)
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.NewConflict(duplicateEmail, nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return account, nil
}

// SetActive flips the active flag. Accounts are never hard-deleted.
func (s *AccountService) SetActive(ctx context.Context, id string, active bool) (*domain.Account, error) {
	account, err := s.accounts.SetActive(ctx, id, active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("account active flag changed", zap.String("account_id", id), zap.Bool("active", active))
	return account, nil
}

func (s *AccountService) Stats(ctx context.Context) (*AccountStats, error) {
	roles, err := s.accounts.RoleStats(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	stats := &AccountStats{RoleStats: roles}
	for _, role := range roles {
		stats.TotalUsers += role.Total
		stats.ActiveUsers += role.Active
		stats.InactiveUsers += role.Inactive
	}
	if stats.RoleStats == nil {
		stats.RoleStats = []domain.RoleStat{}
	}
	return stats, nil
}

type newAccountInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	Role        domain.Role
	Phone       string
	Country     string
	IsActive    bool
	Preferences *domain.PreferencesPatch
	Profile     *domain.ProfilePatch
}

// createAccount is shared by public registration and user administration.
func createAccount(ctx context.Context, accounts repository.AccountRepository, cost int, input newAccountInput) (*domain.Account, error) {
	email := normalizeEmail(input.Email)
	if _, err := accounts.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict(duplicateEmail, nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(input.Password, cost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	account := &domain.Account{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		Phone:        strings.TrimSpace(input.Phone),
		Country:      strings.TrimSpace(input.Country),
		IsActive:     input.IsActive,
		Preferences:  domain.DefaultPreferences(),
	}
	if input.Preferences != nil {
		account.Preferences.Apply(*input.Preferences)
	}
	if input.Profile != nil {
		account.Profile.Apply(*input.Profile)
	}

	if err := accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.NewConflict(duplicateEmail, nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
