// Package repotest provides in-memory repository implementations for tests.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/repository"
)

func paginate[T any](items []T, page repository.Page, def int) []T {
	limit := page.Limit
	if limit <= 0 {
		limit = def
	}
	if page.Offset >= len(items) {
		return nil
	}
	end := page.Offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}

// Accounts is an in-memory AccountRepository.
type Accounts struct {
	mu    sync.Mutex
	byID  map[string]*domain.Account
	order []string
	Now   func() time.Time
}

// NewAccounts returns an empty store.
func NewAccounts() *Accounts {
	return &Accounts{byID: map[string]*domain.Account{}, Now: time.Now}
}

func (s *Accounts) Create(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	for _, existing := range s.byID {
		if existing.Email == account.Email {
			return fmt.Errorf("%w: accounts_email_key", repository.ErrDuplicateKey)
		}
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := s.Now()
	account.CreatedAt, account.UpdatedAt = now, now
	cp := *account
	s.byID[account.ID] = &cp
	s.order = append(s.order, account.ID)
	return nil
}

func (s *Accounts) Update(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[account.ID]; !ok {
		return pgx.ErrNoRows
	}
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	for id, existing := range s.byID {
		if id != account.ID && existing.Email == account.Email {
			return fmt.Errorf("%w: accounts_email_key", repository.ErrDuplicateKey)
		}
	}
	account.UpdatedAt = s.Now()
	cp := *account
	s.byID[account.ID] = &cp
	return nil
}

func (s *Accounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *account
	return &cp, nil
}

func (s *Accounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, account := range s.byID {
		if account.Email == email {
			cp := *account
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *Accounts) List(_ context.Context, filter repository.AccountFilter) ([]domain.Account, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []domain.Account
	for i := len(s.order) - 1; i >= 0; i-- {
		account := s.byID[s.order[i]]
		if filter.Role != nil && account.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && account.IsActive != *filter.IsActive {
			continue
		}
		if term := strings.ToLower(filter.Search); term != "" &&
			!strings.Contains(strings.ToLower(account.FirstName+" "+account.LastName+" "+account.Email), term) {
			continue
		}
		matched = append(matched, *account)
	}
	return paginate(matched, filter.Page, 20), len(matched), nil
}

func (s *Accounts) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	account.LastLogin = &at
	return nil
}

func (s *Accounts) SetActive(_ context.Context, id string, active bool) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	account.IsActive = active
	cp := *account
	return &cp, nil
}

func (s *Accounts) AppendProfileNote(_ context.Context, id string, note domain.CustomerNote) ([]domain.CustomerNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	account.Profile.Notes = append(account.Profile.Notes, note)
	return append([]domain.CustomerNote(nil), account.Profile.Notes...), nil
}

func (s *Accounts) RoleStats(_ context.Context) ([]domain.RoleStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byRole := map[domain.Role]*domain.RoleStat{}
	for _, account := range s.byID {
		stat, ok := byRole[account.Role]
		if !ok {
			stat = &domain.RoleStat{Role: account.Role}
			byRole[account.Role] = stat
		}
		stat.Total++
		if account.IsActive {
			stat.Active++
		} else {
			stat.Inactive++
		}
	}
	stats := make([]domain.RoleStat, 0, len(byRole))
	for _, stat := range byRole {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Role < stats[j].Role })
	return stats, nil
}

// Tours is an in-memory TourRepository supporting the filters used in tests.
type Tours struct {
	mu    sync.Mutex
	byID  map[string]*domain.TourPackage
	order []string
}

// NewTours returns an empty store.
func NewTours() *Tours {
	return &Tours{byID: map[string]*domain.TourPackage{}}
}

func (s *Tours) Create(_ context.Context, tour *domain.TourPackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.SEO.Slug == tour.SEO.Slug {
			return fmt.Errorf("%w: tour_packages_slug_key", repository.ErrDuplicateKey)
		}
	}
	if tour.ID == "" {
		tour.ID = uuid.NewString()
	}
	now := time.Now()
	tour.CreatedAt, tour.UpdatedAt = now, now
	cp := *tour
	s.byID[tour.ID] = &cp
	s.order = append(s.order, tour.ID)
	return nil
}

func (s *Tours) Update(_ context.Context, tour *domain.TourPackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[tour.ID]; !ok {
		return pgx.ErrNoRows
	}
	tour.UpdatedAt = time.Now()
	cp := *tour
	s.byID[tour.ID] = &cp
	return nil
}

func (s *Tours) GetByID(_ context.Context, id string) (*domain.TourPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tour, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *tour
	return &cp, nil
}

func (s *Tours) GetActiveByID(ctx context.Context, id string) (*domain.TourPackage, error) {
	tour, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tour.IsActive {
		return nil, pgx.ErrNoRows
	}
	return tour, nil
}

func (s *Tours) GetActiveBySlug(_ context.Context, slug string) (*domain.TourPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tour := range s.byID {
		if tour.SEO.Slug == slug && tour.IsActive {
			cp := *tour
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *Tours) List(_ context.Context, filter repository.TourFilter) ([]domain.TourPackage, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []domain.TourPackage
	for _, id := range s.order {
		tour := s.byID[id]
		if filter.ActiveOnly && !tour.IsActive {
			continue
		}
		if filter.Category != nil && tour.Category != *filter.Category {
			continue
		}
		if filter.Circuit != nil && tour.Circuit != *filter.Circuit {
			continue
		}
		if filter.Featured != nil && tour.IsFeatured != *filter.Featured {
			continue
		}
		if filter.MinPrice != nil && tour.Pricing.BasePrice.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && tour.Pricing.BasePrice.GreaterThan(*filter.MaxPrice) {
			continue
		}
		if filter.DurationDays != nil && tour.Duration.Days != *filter.DurationDays {
			continue
		}
		if term := strings.ToLower(filter.Search); term != "" &&
			!strings.Contains(strings.ToLower(tour.Name+" "+tour.Description+" "+tour.ShortDescription), term) {
			continue
		}
		matched = append(matched, *tour)
	}
	return paginate(matched, filter.Page, 10), len(matched), nil
}

func (s *Tours) ListFeatured(_ context.Context, limit int) ([]domain.TourPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var featured []domain.TourPackage
	for i := len(s.order) - 1; i >= 0 && len(featured) < limit; i-- {
		tour := s.byID[s.order[i]]
		if tour.IsActive && tour.IsFeatured {
			featured = append(featured, *tour)
		}
	}
	return featured, nil
}

func (s *Tours) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tour, ok := s.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	tour.IsActive = false
	return nil
}

// Bookings is an in-memory BookingRepository.
type Bookings struct {
	mu    sync.Mutex
	byID  map[string]*domain.Booking
	order []string
	// FailCreate, when set, is returned by the next Create calls while it is
	// non-empty, one element per call.
	FailCreate []error
}

// NewBookings returns an empty store.
func NewBookings() *Bookings {
	return &Bookings{byID: map[string]*domain.Booking{}}
}

func (s *Bookings) Create(_ context.Context, booking *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.FailCreate) > 0 {
		err := s.FailCreate[0]
		s.FailCreate = s.FailCreate[1:]
		return err
	}
	for _, existing := range s.byID {
		if existing.BookingReference == booking.BookingReference {
			return fmt.Errorf("%w: bookings_reference_key", repository.ErrDuplicateKey)
		}
	}
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now()
	booking.CreatedAt, booking.UpdatedAt = now, now
	cp := *booking
	s.byID[booking.ID] = &cp
	s.order = append(s.order, booking.ID)
	return nil
}

// Put stores a booking as is, for seeding.
func (s *Bookings) Put(booking domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if _, ok := s.byID[booking.ID]; !ok {
		s.order = append(s.order, booking.ID)
	}
	s.byID[booking.ID] = &booking
}

func (s *Bookings) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *booking
	return &cp, nil
}

func (s *Bookings) List(_ context.Context, filter repository.BookingFilter) ([]domain.Booking, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []domain.Booking
	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.byID[s.order[i]]
		if filter.CustomerID != nil && b.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.AssignedAgentID != nil && !b.AssignedTo(*filter.AssignedAgentID) {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.PaymentStatus != nil && b.Payment.Status != *filter.PaymentStatus {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(b.BookingReference), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, *b)
	}
	return paginate(matched, filter.Page, 20), len(matched), nil
}

func (s *Bookings) ListByCustomer(ctx context.Context, customerID string) ([]domain.Booking, error) {
	bookings, _, err := s.List(ctx, repository.BookingFilter{CustomerID: &customerID, Page: repository.Page{Limit: 1 << 20}})
	return bookings, err
}

func (s *Bookings) UpdateStatus(_ context.Context, id string, status domain.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	booking.Status = status
	return nil
}

func (s *Bookings) AssignAgent(_ context.Context, id, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	booking.AssignedAgentID = &agentID
	return nil
}

func (s *Bookings) AppendNote(_ context.Context, id string, note domain.InternalNote) ([]domain.InternalNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	booking.InternalNotes = append(booking.InternalNotes, note)
	return append([]domain.InternalNote(nil), booking.InternalNotes...), nil
}

// Resets is an in-memory PasswordResetRepository.
type Resets struct {
	mu      sync.Mutex
	byToken map[string]*repository.PasswordResetToken
}

// NewResets returns an empty store.
func NewResets() *Resets {
	return &Resets{byToken: map[string]*repository.PasswordResetToken{}}
}

func (s *Resets) Create(_ context.Context, token *repository.PasswordResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token.ID = uuid.NewString()
	token.CreatedAt = time.Now()
	cp := *token
	s.byToken[token.Token] = &cp
	return nil
}

func (s *Resets) GetByToken(_ context.Context, token string) (*repository.PasswordResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byToken[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (s *Resets) MarkUsed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.byToken {
		if t.ID == id && t.UsedAt == nil {
			now := time.Now()
			t.UsedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

// Tokens returns every stored token.
func (s *Resets) Tokens() []repository.PasswordResetToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.PasswordResetToken, 0, len(s.byToken))
	for _, t := range s.byToken {
		out = append(out, *t)
	}
	return out
}

// Campaigns is an in-memory CampaignRepository.
type Campaigns struct {
	mu   sync.Mutex
	byID map[string]*domain.Campaign

	// MarkSentErr, when set, is returned by MarkSent.
	MarkSentErr error
}

// NewCampaigns returns an empty store.
func NewCampaigns() *Campaigns {
	return &Campaigns{byID: map[string]*domain.Campaign{}}
}

func (s *Campaigns) Create(_ context.Context, campaign *domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	campaign.ID = uuid.NewString()
	campaign.CreatedAt = time.Now()
	cp := *campaign
	s.byID[campaign.ID] = &cp
	return nil
}

func (s *Campaigns) ListDue(_ context.Context, now time.Time, limit int) ([]domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []domain.Campaign
	for _, c := range s.byID {
		if c.Status == domain.CampaignScheduled && !c.ScheduledDate.After(now) {
			due = append(due, *c)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledDate.Before(due[j].ScheduledDate) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *Campaigns) Claim(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok || c.Status != domain.CampaignScheduled {
		return false, nil
	}
	c.Status = domain.CampaignSending
	return true, nil
}

func (s *Campaigns) MarkSent(_ context.Context, id string, recipients int, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MarkSentErr != nil {
		return s.MarkSentErr
	}
	c, ok := s.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.Status = domain.CampaignSent
	c.RecipientCount = recipients
	c.SentAt = &sentAt
	return nil
}

func (s *Campaigns) MarkFailed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.Status = domain.CampaignFailed
	return nil
}

// Get returns a stored campaign.
func (s *Campaigns) Get(id string) (domain.Campaign, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return domain.Campaign{}, false
	}
	return *c, true
}

var (
	_ repository.AccountRepository       = (*Accounts)(nil)
	_ repository.TourRepository          = (*Tours)(nil)
	_ repository.BookingRepository       = (*Bookings)(nil)
	_ repository.PasswordResetRepository = (*Resets)(nil)
	_ repository.CampaignRepository      = (*Campaigns)(nil)
)
