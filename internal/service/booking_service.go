package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/events"
	"github.com/spec-kit/tourism-service/internal/observability"
	"github.com/spec-kit/tourism-service/internal/repository"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

const maxReferenceAttempts = 3

// BookingService coordinates booking workflows.
type BookingService struct {
	bookings   repository.BookingRepository
	tours      repository.TourRepository
	accounts   repository.AccountRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// BookingDependencies bundles collaborators for the booking service.
type BookingDependencies struct {
	BookingRepo repository.BookingRepository
	TourRepo    repository.TourRepository
	AccountRepo repository.AccountRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewBookingService builds the service.
func NewBookingService(deps BookingDependencies) *BookingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		bookings:   deps.BookingRepo,
		tours:      deps.TourRepo,
		accounts:   deps.AccountRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateBookingInput describes a booking request.
type CreateBookingInput struct {
	TourPackageID     string
	DepartureDate     time.Time
	Travelers         domain.TravelerCounts
	TravelerDetails   []domain.Traveler
	RoomConfiguration domain.RoomConfiguration
	SpecialRequests   string
	Source            domain.BookingSource
	OTAReference      string
}

// BookingListFilter holds the explicit filters of a booking listing.
type BookingListFilter struct {
	Status        *domain.BookingStatus
	PaymentStatus *domain.PaymentStatus
	DepartureFrom *time.Time
	DepartureTo   *time.Time
	Search        string
	PageRequest
}

// CreateBooking prices and persists a booking for the customer.
func (s *BookingService) CreateBooking(ctx context.Context, customer *domain.Account, input CreateBookingInput) (*domain.Booking, error) {
	if input.Travelers.Adults < 1 {
		return nil, apperrors.NewValidationError("At least one adult traveler is required", nil)
	}
	if input.Travelers.Children < 0 || input.Travelers.Infants < 0 {
		return nil, apperrors.NewValidationError("Traveler counts cannot be negative", nil)
	}
	if input.DepartureDate.IsZero() {
		return nil, apperrors.NewValidationError("Departure date is required", nil)
	}

	tour, err := s.tours.GetActiveByID(ctx, input.TourPackageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Tour package not found or not available")
		}
		return nil, apperrors.NewInternalError(err)
	}

	departure := calendarDate(input.DepartureDate)
	source := input.Source
	if source == "" {
		source = domain.SourceWebsite
	}

	booking := &domain.Booking{
		CustomerID:    customer.ID,
		TourPackageID: tour.ID,
		Details: domain.BookingDetails{
			DepartureDate:     departure,
			ReturnDate:        departure.AddDate(0, 0, tour.Duration.Days),
			NumberOfTravelers: input.Travelers,
			RoomConfiguration: input.RoomConfiguration,
		},
		Travelers: input.TravelerDetails,
		Pricing:   CalculatePricing(tour.Pricing, input.Travelers),
		Payment: domain.Payment{
			Status:       domain.PaymentStatusPending,
			Transactions: []domain.Transaction{},
		},
		Status:          domain.BookingStatusPending,
		SpecialRequests: strings.TrimSpace(input.SpecialRequests),
		Source:          source,
		OTAReference:    input.OTAReference,
		Customer:        customer.Summary(),
		TourPackage:     tour.Summary(),
	}

	if err := s.insertWithReference(ctx, booking); err != nil {
		return nil, err
	}
	s.metrics.RecordBooking(string(booking.Source))

	created, err := s.bookings.GetByID(ctx, booking.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if s.dispatcher != nil {
		err := s.dispatcher.Publish(ctx, events.Event{
			Type:        events.EventBookingCreated,
			AggregateID: created.ID,
			ActorID:     customer.ID,
			Payload:     events.BookingCreatedPayload{Booking: created, Customer: customer, Tour: tour},
		})
		if err != nil {
			s.logger.Warn("booking confirmation not delivered",
				zap.String("booking_reference", created.BookingReference),
				zap.Error(err))
		}
	}
	return created, nil
}

// insertWithReference assigns a reference once and only draws a new one when
// the store reports a collision.
func (s *BookingService) insertWithReference(ctx context.Context, booking *domain.Booking) error {
	for attempt := 1; ; attempt++ {
		if booking.BookingReference == "" {
			ref, err := NewBookingReference(s.now())
			if err != nil {
				return apperrors.NewInternalError(err)
			}
			booking.BookingReference = ref
		}
		err := s.bookings.Create(ctx, booking)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) || attempt >= maxReferenceAttempts {
			return apperrors.NewInternalError(err)
		}
		s.logger.Debug("booking reference collision", zap.String("reference", booking.BookingReference))
		booking.BookingReference = ""
	}
}

// GetBooking returns a booking visible to the actor.
func (s *BookingService) GetBooking(ctx context.Context, actor *domain.Account, id string) (*domain.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewBooking(actor, booking) {
		return nil, apperrors.NewNotFound("Booking not found")
	}
	return booking, nil
}

// ListMine lists the actor's own bookings.
func (s *BookingService) ListMine(ctx context.Context, actor *domain.Account, filter BookingListFilter) ([]domain.Booking, Pagination, error) {
	repoFilter, page := toRepoBookingFilter(filter)
	id := actor.ID
	repoFilter.CustomerID = &id
	return s.list(ctx, repoFilter, page)
}

// ListAll lists bookings within the actor's role scope.
func (s *BookingService) ListAll(ctx context.Context, actor *domain.Account, filter BookingListFilter) ([]domain.Booking, Pagination, error) {
	repoFilter, page := toRepoBookingFilter(filter)
	if err := applyBookingScope(actor, &repoFilter); err != nil {
		return nil, Pagination{}, err
	}
	return s.list(ctx, repoFilter, page)
}

func (s *BookingService) list(ctx context.Context, filter repository.BookingFilter, page PageRequest) ([]domain.Booking, Pagination, error) {
	bookings, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, Pagination{}, apperrors.NewInternalError(err)
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, newPagination(page, total), nil
}

func toRepoBookingFilter(filter BookingListFilter) (repository.BookingFilter, PageRequest) {
	page := filter.PageRequest.normalize(20)
	return repository.BookingFilter{
		Status:        filter.Status,
		PaymentStatus: filter.PaymentStatus,
		DepartureFrom: filter.DepartureFrom,
		DepartureTo:   filter.DepartureTo,
		Search:        filter.Search,
		Page:          repository.Page{Limit: page.Limit, Offset: page.offset()},
	}, page
}

// UpdateStatus moves a booking to any of the known statuses.
func (s *BookingService) UpdateStatus(ctx context.Context, actor *domain.Account, id string, status domain.BookingStatus) (*domain.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canMutateBooking(actor, booking) {
		return nil, apperrors.NewForbidden("Access denied. Booking not assigned to you.")
	}
	if !status.Valid() || !domain.CanTransition(booking.Status, status) {
		return nil, apperrors.NewValidationError("Invalid status", nil)
	}

	if err := s.bookings.UpdateStatus(ctx, booking.ID, status); err != nil {
		return nil, apperrors.MapError(err)
	}
	previous := booking.Status

	updated, err := s.load(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if s.dispatcher != nil && previous != status {
		err := s.dispatcher.Publish(ctx, events.Event{
			Type:        events.EventBookingStatusChanged,
			AggregateID: updated.ID,
			ActorID:     actor.ID,
			Payload: events.BookingStatusChangedPayload{
				Reference: updated.BookingReference,
				OldStatus: previous,
				NewStatus: status,
			},
		})
		if err != nil {
			s.logger.Warn("status change handlers failed", zap.String("booking_id", updated.ID), zap.Error(err))
		}
	}
	return updated, nil
}

// AssignAgent hands a booking to an active agent.
func (s *BookingService) AssignAgent(ctx context.Context, id, agentID string) (*domain.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	agent, err := s.accounts.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("Agent not found", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if agent.Role != domain.RoleAgent || !agent.IsActive {
		return nil, apperrors.NewValidationError("Bookings can only be assigned to active agents", nil)
	}

	if err := s.bookings.AssignAgent(ctx, booking.ID, agent.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.load(ctx, booking.ID)
}

// AppendNote adds an internal note and returns every note in order.
func (s *BookingService) AppendNote(ctx context.Context, actor *domain.Account, id, text string) ([]domain.InternalNote, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("Note is required", nil)
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canMutateBooking(actor, booking) {
		return nil, apperrors.NewForbidden("Access denied. Booking not assigned to you.")
	}

	notes, err := s.bookings.AppendNote(ctx, booking.ID, domain.InternalNote{
		Note:    text,
		AddedBy: actor.ID,
		Date:    s.now().UTC(),
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return notes, nil
}

func (s *BookingService) load(ctx context.Context, id string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Booking not found")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return booking, nil
}

// calendarDate drops the clock so date arithmetic is never shifted by zones.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
