package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tourism-service/internal/domain"
)

// BookingFilter captures booking search parameters. CustomerID and
// AssignedAgentID carry the caller's implicit scope.
type BookingFilter struct {
	CustomerID      *string
	AssignedAgentID *string
	Status          *domain.BookingStatus
	PaymentStatus   *domain.PaymentStatus
	DepartureFrom   *time.Time
	DepartureTo     *time.Time
	Search          string
	Page            Page
}

// BookingRepository encapsulates booking persistence.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, int, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error
	AssignAgent(ctx context.Context, id, agentID string) error
	AppendNote(ctx context.Context, id string, note domain.InternalNote) ([]domain.InternalNote, error)
}

type bookingRepository struct {
	db DB
}

// NewBookingRepository instantiates repository.
func NewBookingRepository(db DB) BookingRepository {
	return &bookingRepository{db: db}
}

const bookingSelect = `
        SELECT b.id, b.booking_reference, b.customer_id, b.tour_package_id, b.departure_date, b.return_date,
               b.traveler_counts, b.room_config, b.travelers, b.pricing, b.payment, b.status,
               b.communications, b.documents, b.special_requests, b.internal_notes, b.assigned_agent_id,
               b.source, b.ota_reference, b.created_at, b.updated_at,
               c.first_name, c.last_name, c.email, c.phone,
               t.name, t.category, t.circuit, t.duration_days, t.duration_nights, t.pricing,
               a.first_name, a.last_name, a.email, a.phone
        FROM bookings b
        LEFT JOIN accounts c ON c.id = b.customer_id
        LEFT JOIN tour_packages t ON t.id = b.tour_package_id
        LEFT JOIN accounts a ON a.id = b.assigned_agent_id`

func (r *bookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	const query = `
        INSERT INTO bookings (booking_reference, customer_id, tour_package_id, departure_date, return_date,
            traveler_counts, room_config, travelers, pricing, total_amount, currency, payment, payment_status,
            status, communications, documents, special_requests, internal_notes, assigned_agent_id, source,
            ota_reference)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::numeric,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		booking.BookingReference,
		booking.CustomerID,
		booking.TourPackageID,
		booking.Details.DepartureDate,
		booking.Details.ReturnDate,
		booking.Details.NumberOfTravelers,
		booking.Details.RoomConfiguration,
		nonNil(booking.Travelers),
		booking.Pricing,
		booking.Pricing.TotalAmount.String(),
		booking.Pricing.Currency,
		booking.Payment,
		booking.Payment.Status,
		booking.Status,
		nonNil(booking.Communications),
		nonNil(booking.Documents),
		booking.SpecialRequests,
		nonNil(booking.InternalNotes),
		booking.AssignedAgentID,
		booking.Source,
		booking.OTAReference,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	return translateError(err)
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, bookingSelect+` WHERE b.id=$1`, id))
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, int, error) {
	where := &whereBuilder{}
	if filter.CustomerID != nil {
		where.add("b.customer_id=$%d", *filter.CustomerID)
	}
	if filter.AssignedAgentID != nil {
		where.add("b.assigned_agent_id=$%d", *filter.AssignedAgentID)
	}
	if filter.Status != nil {
		where.add("b.status=$%d", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		where.add("b.payment_status=$%d", *filter.PaymentStatus)
	}
	if filter.DepartureFrom != nil {
		where.add("b.departure_date >= $%d", *filter.DepartureFrom)
	}
	if filter.DepartureTo != nil {
		where.add("b.departure_date <= $%d", *filter.DepartureTo)
	}
	where.search(filter.Search,
		"b.booking_reference",
		"EXISTS (SELECT 1 FROM jsonb_array_elements(b.travelers) tr WHERE tr->>'firstName' ILIKE $%[1]d OR tr->>'lastName' ILIKE $%[1]d)")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings b`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page.withDefault(20)
	query := fmt.Sprintf(`%s%s ORDER BY b.created_at DESC, b.id DESC LIMIT $%d OFFSET $%d`,
		bookingSelect, where.sql(), where.next(), where.next()+1)
	args := append(where.args, page.Limit, page.Offset)

	bookings, err := r.queryBookings(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *bookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Booking, error) {
	return r.queryBookings(ctx, bookingSelect+` WHERE b.customer_id=$1 ORDER BY b.created_at DESC`, customerID)
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *bookingRepository) AssignAgent(ctx context.Context, id, agentID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET assigned_agent_id=$1, updated_at=NOW() WHERE id=$2`, agentID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AppendNote appends atomically; existing notes are never rewritten.
func (r *bookingRepository) AppendNote(ctx context.Context, id string, note domain.InternalNote) ([]domain.InternalNote, error) {
	const query = `
        UPDATE bookings SET internal_notes = internal_notes || jsonb_build_array($1::jsonb), updated_at=NOW()
        WHERE id=$2
        RETURNING internal_notes`

	var notes []domain.InternalNote
	if err := r.db.QueryRow(ctx, query, note, id).Scan(&notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *bookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	return bookings, rows.Err()
}

type nullableSummary struct {
	firstName, lastName, email, phone *string
}

func (s nullableSummary) toSummary(id string) *domain.AccountSummary {
	if s.email == nil {
		return nil
	}
	return &domain.AccountSummary{
		ID:        id,
		FirstName: deref(s.firstName),
		LastName:  deref(s.lastName),
		Email:     deref(s.email),
		Phone:     deref(s.phone),
	}
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b                   domain.Booking
		customer, agent     nullableSummary
		tourName            *string
		tourCategory        *string
		tourCircuit         *string
		tourDays, tourNight *int
		tourPricing         *domain.TourPricing
	)
	if err := row.Scan(
		&b.ID,
		&b.BookingReference,
		&b.CustomerID,
		&b.TourPackageID,
		&b.Details.DepartureDate,
		&b.Details.ReturnDate,
		&b.Details.NumberOfTravelers,
		&b.Details.RoomConfiguration,
		&b.Travelers,
		&b.Pricing,
		&b.Payment,
		&b.Status,
		&b.Communications,
		&b.Documents,
		&b.SpecialRequests,
		&b.InternalNotes,
		&b.AssignedAgentID,
		&b.Source,
		&b.OTAReference,
		&b.CreatedAt,
		&b.UpdatedAt,
		&customer.firstName, &customer.lastName, &customer.email, &customer.phone,
		&tourName, &tourCategory, &tourCircuit, &tourDays, &tourNight, &tourPricing,
		&agent.firstName, &agent.lastName, &agent.email, &agent.phone,
	); err != nil {
		return nil, err
	}

	b.Customer = customer.toSummary(b.CustomerID)
	if b.AssignedAgentID != nil {
		b.AssignedAgent = agent.toSummary(*b.AssignedAgentID)
	}
	if tourName != nil {
		b.TourPackage = &domain.TourSummary{
			ID:       b.TourPackageID,
			Name:     *tourName,
			Category: domain.TourCategory(deref(tourCategory)),
			Circuit:  domain.Circuit(deref(tourCircuit)),
			Duration: domain.TourDuration{Days: derefInt(tourDays), Nights: derefInt(tourNight)},
			Pricing:  tourPricing,
		}
	}
	return &b, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
