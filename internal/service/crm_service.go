package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/repository"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

const (
	recentBookingsShown = 5
	topCountryLimit     = 10
	customerNotFound    = "Customer not found"
)

// CRMService serves customer relationship views and campaigns.
type CRMService struct {
	accounts  repository.AccountRepository
	bookings  repository.BookingRepository
	reports   repository.ReportRepository
	campaigns repository.CampaignRepository
	logger    *zap.Logger
	now       func() time.Time
}

// CRMDependencies bundles collaborators for the CRM service.
type CRMDependencies struct {
	AccountRepo  repository.AccountRepository
	BookingRepo  repository.BookingRepository
	ReportRepo   repository.ReportRepository
	CampaignRepo repository.CampaignRepository
	Logger       *zap.Logger
}

// NewCRMService builds the service.
func NewCRMService(deps CRMDependencies) *CRMService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CRMService{
		accounts:  deps.AccountRepo,
		bookings:  deps.BookingRepo,
		reports:   deps.ReportRepo,
		campaigns: deps.CampaignRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// CustomerListFilter holds the CRM customer filters.
type CustomerListFilter struct {
	Search        string
	Country       string
	LastLoginDays int
	BookingStatus *domain.BookingStatus
	PageRequest
}

// CircuitPreference counts a customer's bookings on one circuit.
type CircuitPreference struct {
	Circuit domain.Circuit `json:"circuit"`
	Count   int            `json:"count"`
}

// CustomerStatistics summarises a customer's booking history.
type CustomerStatistics struct {
	TotalBookings       int                          `json:"totalBookings"`
	TotalSpent          decimal.Decimal              `json:"totalSpent"`
	AverageBookingValue decimal.Decimal              `json:"averageBookingValue"`
	BookingsByStatus    map[domain.BookingStatus]int `json:"bookingsByStatus"`
	PreferredCircuits   []CircuitPreference          `json:"preferredCircuits"`
	LastBookingDate     *time.Time                   `json:"lastBookingDate,omitempty"`
}

// CustomerDetail is the CRM customer page.
type CustomerDetail struct {
	Customer       *domain.Account    `json:"customer"`
	Statistics     CustomerStatistics `json:"statistics"`
	RecentBookings []domain.Booking   `json:"recentBookings"`
}

// SegmentsOverview is the marketing segmentation summary.
type SegmentsOverview struct {
	Segments     domain.SegmentCounts  `json:"segments"`
	TopCountries []domain.CountryCount `json:"topCountries"`
}

// CampaignInput describes a campaign to schedule.
type CampaignInput struct {
	Name          string
	Type          domain.CampaignType
	Subject       string
	Message       string
	TargetSegment domain.Segment
	ScheduledDate *time.Time
}

func (s *CRMService) ListCustomers(ctx context.Context, filter CustomerListFilter) ([]domain.CustomerOverview, Pagination, error) {
	page := filter.PageRequest.normalize(20)
	repoFilter := repository.CustomerFilter{
		Search:        filter.Search,
		Country:       strings.TrimSpace(filter.Country),
		BookingStatus: filter.BookingStatus,
		Page:          repository.Page{Limit: page.Limit, Offset: page.offset()},
	}
	if filter.LastLoginDays > 0 {
		from := s.now().AddDate(0, 0, -filter.LastLoginDays)
		repoFilter.LastLoginFrom = &from
	}

	customers, total, err := s.reports.ListCustomers(ctx, repoFilter)
	if err != nil {
		return nil, Pagination{}, apperrors.NewInternalError(err)
	}
	if customers == nil {
		customers = []domain.CustomerOverview{}
	}
	return customers, newPagination(page, total), nil
}

// CustomerDetail computes statistics over every booking of the customer.
func (s *CRMService) CustomerDetail(ctx context.Context, id string) (*CustomerDetail, error) {
	customer, err := s.customer(ctx, id)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	recent := bookings
	if len(recent) > recentBookingsShown {
		recent = recent[:recentBookingsShown]
	}
	if recent == nil {
		recent = []domain.Booking{}
	}
	return &CustomerDetail{
		Customer:       customer,
		Statistics:     customerStatistics(bookings),
		RecentBookings: recent,
	}, nil
}

func customerStatistics(bookings []domain.Booking) CustomerStatistics {
	stats := CustomerStatistics{
		TotalBookings:     len(bookings),
		TotalSpent:        decimal.Zero,
		BookingsByStatus:  map[domain.BookingStatus]int{},
		PreferredCircuits: []CircuitPreference{},
	}
	circuits := map[domain.Circuit]int{}
	for i := range bookings {
		b := &bookings[i]
		stats.TotalSpent = stats.TotalSpent.Add(b.Pricing.TotalAmount)
		stats.BookingsByStatus[b.Status]++
		if b.TourPackage != nil && b.TourPackage.Circuit != "" {
			circuits[b.TourPackage.Circuit]++
		}
		if stats.LastBookingDate == nil || b.CreatedAt.After(*stats.LastBookingDate) {
			created := b.CreatedAt
			stats.LastBookingDate = &created
		}
	}
	if len(bookings) > 0 {
		stats.AverageBookingValue = stats.TotalSpent.Div(decimal.NewFromInt(int64(len(bookings)))).Round(2)
	}
	for circuit, count := range circuits {
		stats.PreferredCircuits = append(stats.PreferredCircuits, CircuitPreference{Circuit: circuit, Count: count})
	}
	sort.Slice(stats.PreferredCircuits, func(i, j int) bool {
		a, b := stats.PreferredCircuits[i], stats.PreferredCircuits[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Circuit < b.Circuit
	})
	return stats
}

// AddCustomerNote appends a CRM note stamped with the actor and time.
func (s *CRMService) AddCustomerNote(ctx context.Context, actor *domain.Account, id, note, noteType string) ([]domain.CustomerNote, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperrors.NewValidationError("Note is required", nil)
	}
	if noteType == "" {
		noteType = "general"
	}
	customer, err := s.customer(ctx, id)
	if err != nil {
		return nil, err
	}

	notes, err := s.accounts.AppendProfileNote(ctx, customer.ID, domain.CustomerNote{
		Note:    note,
		Type:    noteType,
		AddedBy: actor.ID,
		Date:    s.now().UTC(),
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return notes, nil
}

func (s *CRMService) Segments(ctx context.Context) (*SegmentsOverview, error) {
	counts, err := s.reports.SegmentCounts(ctx, s.now())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	countries, err := s.reports.TopCountries(ctx, topCountryLimit)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if countries == nil {
		countries = []domain.CountryCount{}
	}
	return &SegmentsOverview{Segments: counts, TopCountries: countries}, nil
}

// CreateCampaign persists a campaign for the scheduler to dispatch. The
// recipient count is an estimate until the campaign is sent.
func (s *CRMService) CreateCampaign(ctx context.Context, actor *domain.Account, input CampaignInput) (*domain.Campaign, error) {
	switch input.Type {
	case domain.CampaignEmail, domain.CampaignSMS, domain.CampaignNotification:
	default:
		return nil, apperrors.NewValidationError("Invalid campaign type", nil)
	}
	scheduled := s.now().UTC()
	if input.ScheduledDate != nil {
		scheduled = input.ScheduledDate.UTC()
	}
	segment := input.TargetSegment
	if segment == "" {
		segment = domain.SegmentAll
	}
	if !segment.Valid() {
		return nil, apperrors.NewValidationError("Invalid target segment", nil)
	}

	campaign := &domain.Campaign{
		Name:          strings.TrimSpace(input.Name),
		Type:          input.Type,
		Subject:       strings.TrimSpace(input.Subject),
		Message:       input.Message,
		TargetSegment: segment,
		ScheduledDate: scheduled,
		Status:        domain.CampaignScheduled,
		CreatedBy:     actor.ID,
	}

	recipients, err := s.reports.SegmentRecipients(ctx, segment, s.now())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	campaign.RecipientCount = len(recipients)

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("campaign scheduled",
		zap.String("campaign_id", campaign.ID),
		zap.String("segment", string(segment)),
		zap.Int("estimated_recipients", campaign.RecipientCount),
		zap.Time("scheduled_for", scheduled))
	return campaign, nil
}

func (s *CRMService) customer(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound(customerNotFound)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if account.Role != domain.RoleCustomer {
		return nil, apperrors.NewNotFound(customerNotFound)
	}
	return account, nil
}
