package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/tourism-service/internal/domain"
)

// CustomerFilter captures CRM customer listing parameters.
type CustomerFilter struct {
	Search        string
	Country       string
	LastLoginFrom *time.Time
	BookingStatus *domain.BookingStatus
	Page          Page
}

// ReportRepository runs read-only aggregations over bookings and accounts.
// Every monetary figure is summed from the booking's frozen total.
type ReportRepository interface {
	BookingCounts(ctx context.Context, departure domain.DateRange) (domain.BookingCounts, error)
	RevenueTotals(ctx context.Context, departure domain.DateRange, statuses []domain.BookingStatus) (domain.RevenueTotals, error)
	PopularTours(ctx context.Context, departure domain.DateRange, limit int) ([]domain.PopularTour, error)
	MonthlyTrends(ctx context.Context, since time.Time) ([]domain.MonthlyTrend, error)
	UserCounts(ctx context.Context, monthStart time.Time) (domain.UserCounts, error)
	StatusBreakdown(ctx context.Context, since time.Time) ([]domain.GroupCount, error)
	SourceBreakdown(ctx context.Context, since time.Time) ([]domain.GroupCount, error)
	CircuitBreakdown(ctx context.Context, since time.Time) ([]domain.CircuitStat, error)
	RevenueSeries(ctx context.Context, granularity string, created domain.DateRange, statuses []domain.BookingStatus) ([]domain.RevenuePoint, error)
	ListCustomers(ctx context.Context, filter CustomerFilter) ([]domain.CustomerOverview, int, error)
	SegmentCounts(ctx context.Context, now time.Time) (domain.SegmentCounts, error)
	TopCountries(ctx context.Context, limit int) ([]domain.CountryCount, error)
	SegmentRecipients(ctx context.Context, segment domain.Segment, now time.Time) ([]domain.Recipient, error)
}

type reportRepository struct {
	db DB
}

// NewReportRepository instantiates repository.
func NewReportRepository(db DB) ReportRepository {
	return &reportRepository{db: db}
}

func departureWhere(departure domain.DateRange, column string) *whereBuilder {
	where := &whereBuilder{}
	if departure.From != nil {
		where.add(column+" >= $%d", *departure.From)
	}
	if departure.To != nil {
		where.add(column+" <= $%d", *departure.To)
	}
	return where
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *reportRepository) BookingCounts(ctx context.Context, departure domain.DateRange) (domain.BookingCounts, error) {
	where := departureWhere(departure, "departure_date")
	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='confirmed'),
               COUNT(*) FILTER (WHERE status='pending'),
               COUNT(*) FILTER (WHERE status='cancelled')
        FROM bookings` + where.sql()

	var counts domain.BookingCounts
	err := r.db.QueryRow(ctx, query, where.args...).Scan(&counts.Total, &counts.Confirmed, &counts.Pending, &counts.Cancelled)
	return counts, err
}

func (r *reportRepository) RevenueTotals(ctx context.Context, departure domain.DateRange, statuses []domain.BookingStatus) (domain.RevenueTotals, error) {
	where := departureWhere(departure, "departure_date")
	where.add("status = ANY($%d)", statusStrings(statuses))
	query := `
        SELECT COALESCE(SUM(total_amount), 0)::text, COALESCE(AVG(total_amount), 0)::text, COUNT(*)
        FROM bookings` + where.sql()

	var (
		totals     domain.RevenueTotals
		total, avg string
	)
	if err := r.db.QueryRow(ctx, query, where.args...).Scan(&total, &avg, &totals.Count); err != nil {
		return totals, err
	}
	var err error
	if totals.Total, err = decimal.NewFromString(total); err != nil {
		return totals, fmt.Errorf("parse revenue total: %w", err)
	}
	if totals.Average, err = decimal.NewFromString(avg); err != nil {
		return totals, fmt.Errorf("parse revenue average: %w", err)
	}
	totals.Average = totals.Average.Round(2)
	return totals, nil
}

func (r *reportRepository) PopularTours(ctx context.Context, departure domain.DateRange, limit int) ([]domain.PopularTour, error) {
	where := departureWhere(departure, "b.departure_date")
	query := fmt.Sprintf(`
        SELECT b.tour_package_id, t.name, COUNT(*), COALESCE(SUM(b.total_amount), 0)::text
        FROM bookings b
        JOIN tour_packages t ON t.id = b.tour_package_id%s
        GROUP BY b.tour_package_id, t.name
        ORDER BY COUNT(*) DESC, t.name
        LIMIT $%d`, where.sql(), where.next())
	args := append(where.args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tours []domain.PopularTour
	for rows.Next() {
		var (
			tour    domain.PopularTour
			revenue string
		)
		if err := rows.Scan(&tour.TourID, &tour.Name, &tour.Bookings, &revenue); err != nil {
			return nil, err
		}
		if tour.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, fmt.Errorf("parse tour revenue: %w", err)
		}
		tours = append(tours, tour)
	}
	return tours, rows.Err()
}

func (r *reportRepository) MonthlyTrends(ctx context.Context, since time.Time) ([]domain.MonthlyTrend, error) {
	const query = `
        SELECT EXTRACT(YEAR FROM created_at)::int, EXTRACT(MONTH FROM created_at)::int,
               COUNT(*), COALESCE(SUM(total_amount), 0)::text
        FROM bookings
        WHERE created_at >= $1
        GROUP BY 1, 2
        ORDER BY 1, 2`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trends []domain.MonthlyTrend
	for rows.Next() {
		var (
			trend   domain.MonthlyTrend
			revenue string
		)
		if err := rows.Scan(&trend.Year, &trend.Month, &trend.Bookings, &revenue); err != nil {
			return nil, err
		}
		if trend.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, fmt.Errorf("parse monthly revenue: %w", err)
		}
		trends = append(trends, trend)
	}
	return trends, rows.Err()
}

func (r *reportRepository) UserCounts(ctx context.Context, monthStart time.Time) (domain.UserCounts, error) {
	var counts domain.UserCounts
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at >= $1) FROM accounts`, monthStart,
	).Scan(&counts.Total, &counts.NewThisMonth)
	return counts, err
}

func (r *reportRepository) StatusBreakdown(ctx context.Context, since time.Time) ([]domain.GroupCount, error) {
	return r.groupCount(ctx, "status", since)
}

func (r *reportRepository) SourceBreakdown(ctx context.Context, since time.Time) ([]domain.GroupCount, error) {
	return r.groupCount(ctx, "source", since)
}

// groupCount counts bookings created since the cutoff by a fixed column.
func (r *reportRepository) groupCount(ctx context.Context, column string, since time.Time) ([]domain.GroupCount, error) {
	query := fmt.Sprintf(`
        SELECT %[1]s, COUNT(*) FROM bookings
        WHERE created_at >= $1
        GROUP BY %[1]s
        ORDER BY COUNT(*) DESC, %[1]s`, column)

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []domain.GroupCount
	for rows.Next() {
		var gc domain.GroupCount
		if err := rows.Scan(&gc.Key, &gc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, gc)
	}
	return counts, rows.Err()
}

func (r *reportRepository) CircuitBreakdown(ctx context.Context, since time.Time) ([]domain.CircuitStat, error) {
	const query = `
        SELECT t.circuit, COUNT(*), COALESCE(SUM(b.total_amount), 0)::text
        FROM bookings b
        JOIN tour_packages t ON t.id = b.tour_package_id
        WHERE b.created_at >= $1
        GROUP BY t.circuit
        ORDER BY COUNT(*) DESC, t.circuit`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.CircuitStat
	for rows.Next() {
		var (
			stat    domain.CircuitStat
			revenue string
		)
		if err := rows.Scan(&stat.Circuit, &stat.Bookings, &revenue); err != nil {
			return nil, err
		}
		if stat.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, fmt.Errorf("parse circuit revenue: %w", err)
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// RevenueSeries buckets revenue with date_trunc. granularity must be one of
// day, week, month or year; callers validate it.
func (r *reportRepository) RevenueSeries(ctx context.Context, granularity string, created domain.DateRange, statuses []domain.BookingStatus) ([]domain.RevenuePoint, error) {
	where := &whereBuilder{args: []any{granularity}}
	where.add("status = ANY($%d)", statusStrings(statuses))
	if created.From != nil {
		where.add("created_at >= $%d", *created.From)
	}
	if created.To != nil {
		where.add("created_at <= $%d", *created.To)
	}
	query := `
        SELECT date_trunc($1, created_at) AS period,
               COALESCE(SUM(total_amount), 0)::text, COUNT(*), COALESCE(AVG(total_amount), 0)::text
        FROM bookings` + where.sql() + `
        GROUP BY period
        ORDER BY period`

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.RevenuePoint
	for rows.Next() {
		var (
			point      domain.RevenuePoint
			total, avg string
		)
		if err := rows.Scan(&point.Period, &total, &point.BookingCount, &avg); err != nil {
			return nil, err
		}
		if point.TotalRevenue, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("parse period revenue: %w", err)
		}
		if point.AverageValue, err = decimal.NewFromString(avg); err != nil {
			return nil, fmt.Errorf("parse period average: %w", err)
		}
		point.AverageValue = point.AverageValue.Round(2)
		points = append(points, point)
	}
	return points, rows.Err()
}

func (r *reportRepository) ListCustomers(ctx context.Context, filter CustomerFilter) ([]domain.CustomerOverview, int, error) {
	where := &whereBuilder{}
	where.add("a.role=$%d", domain.RoleCustomer)
	where.search(filter.Search, "a.first_name", "a.last_name", "a.email")
	if filter.Country != "" {
		where.add("a.country=$%d", filter.Country)
	}
	if filter.LastLoginFrom != nil {
		where.add("a.last_login >= $%d", *filter.LastLoginFrom)
	}
	if filter.BookingStatus != nil {
		where.add("EXISTS (SELECT 1 FROM bookings sb WHERE sb.customer_id = a.id AND sb.status = $%d)", *filter.BookingStatus)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts a`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page.withDefault(20)
	query := fmt.Sprintf(`
        SELECT %s,
               COUNT(b.id), COALESCE(SUM(b.total_amount), 0)::text, MAX(b.created_at),
               COALESCE(array_agg(DISTINCT b.status) FILTER (WHERE b.id IS NOT NULL), '{}')
        FROM accounts a
        LEFT JOIN bookings b ON b.customer_id = a.id%s
        GROUP BY a.id
        ORDER BY a.created_at DESC
        LIMIT $%d OFFSET $%d`, prefixedAccountColumns("a"), where.sql(), where.next(), where.next()+1)
	args := append(where.args, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []domain.CustomerOverview
	for rows.Next() {
		var (
			customer domain.CustomerOverview
			spent    string
			statuses []string
		)
		dest := append(accountDest(&customer.Account), &customer.TotalBookings, &spent, &customer.LastBookingDate, &statuses)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, err
		}
		if customer.TotalSpent, err = decimal.NewFromString(spent); err != nil {
			return nil, 0, fmt.Errorf("parse customer spend: %w", err)
		}
		customer.BookingStatuses = make([]domain.BookingStatus, len(statuses))
		for i, s := range statuses {
			customer.BookingStatuses[i] = domain.BookingStatus(s)
		}
		customers = append(customers, customer)
	}
	return customers, total, rows.Err()
}

const customerStatsCTE = `
        WITH stats AS (
            SELECT a.id, a.first_name, a.email, a.is_active, a.created_at, a.preferences,
                   COUNT(b.id) AS booking_count,
                   COALESCE(SUM(b.total_amount), 0) AS spent,
                   MAX(b.created_at) AS last_booking
            FROM accounts a
            LEFT JOIN bookings b ON b.customer_id = a.id
            WHERE a.role = 'customer'
            GROUP BY a.id
        )`

func (r *reportRepository) SegmentCounts(ctx context.Context, now time.Time) (domain.SegmentCounts, error) {
	query := customerStatsCTE + `
        SELECT COUNT(*) FILTER (WHERE spent >= $1::numeric),
               COUNT(*) FILTER (WHERE booking_count > 1),
               COUNT(*) FILTER (WHERE created_at >= $2),
               COUNT(*) FILTER (WHERE last_booking >= $3)
        FROM stats`

	var counts domain.SegmentCounts
	err := r.db.QueryRow(ctx, query,
		domain.HighValueThreshold.String(),
		now.Add(-domain.RecentCustomerWindow),
		now.Add(-domain.ActiveCustomerWindow),
	).Scan(&counts.HighValue, &counts.Repeat, &counts.Recent, &counts.Active)
	return counts, err
}

func (r *reportRepository) TopCountries(ctx context.Context, limit int) ([]domain.CountryCount, error) {
	const query = `
        SELECT country, COUNT(*) FROM accounts
        WHERE role = 'customer' AND country <> ''
        GROUP BY country
        ORDER BY COUNT(*) DESC, country
        LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var countries []domain.CountryCount
	for rows.Next() {
		var cc domain.CountryCount
		if err := rows.Scan(&cc.Country, &cc.Count); err != nil {
			return nil, err
		}
		countries = append(countries, cc)
	}
	return countries, rows.Err()
}

// SegmentRecipients returns active customers of a segment who accept email.
func (r *reportRepository) SegmentRecipients(ctx context.Context, segment domain.Segment, now time.Time) ([]domain.Recipient, error) {
	var (
		predicate string
		args      []any
	)
	switch segment {
	case domain.SegmentAll:
		predicate = "TRUE"
	case domain.SegmentHighValue:
		predicate, args = "spent >= $1::numeric", []any{domain.HighValueThreshold.String()}
	case domain.SegmentRepeat:
		predicate = "booking_count > 1"
	case domain.SegmentRecent:
		predicate, args = "created_at >= $1", []any{now.Add(-domain.RecentCustomerWindow)}
	case domain.SegmentActive:
		predicate, args = "last_booking >= $1", []any{now.Add(-domain.ActiveCustomerWindow)}
	default:
		return nil, fmt.Errorf("unknown segment %q", segment)
	}

	query := customerStatsCTE + `
        SELECT id, first_name, email FROM stats
        WHERE is_active AND COALESCE(preferences->'notifications'->>'email', 'true') <> 'false' AND ` + predicate + `
        ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Recipient, error) {
		var rcpt domain.Recipient
		err := row.Scan(&rcpt.AccountID, &rcpt.FirstName, &rcpt.Email)
		return rcpt, err
	})
}
