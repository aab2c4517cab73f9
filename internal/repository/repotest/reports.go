package repotest

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/repository"
)

// Reports is a ReportRepository returning canned values. Err, when set, is
// returned by every method. Calls records the arguments of interest.
type Reports struct {
	mu sync.Mutex

	Counts        domain.BookingCounts
	Totals        domain.RevenueTotals
	Popular       []domain.PopularTour
	Trends        []domain.MonthlyTrend
	Users         domain.UserCounts
	Statuses      []domain.GroupCount
	Sources       []domain.GroupCount
	Circuits      []domain.CircuitStat
	Series        []domain.RevenuePoint
	Customers     []domain.CustomerOverview
	CustomerTotal int
	Segments      domain.SegmentCounts
	Countries     []domain.CountryCount
	Recipients    map[domain.Segment][]domain.Recipient
	Err           error

	TrendsSince     time.Time
	MonthStart      time.Time
	BreakdownSince  time.Time
	Granularity     string
	SeriesStatuses  []domain.BookingStatus
	CustomerFilters []repository.CustomerFilter
}

func (r *Reports) BookingCounts(context.Context, domain.DateRange) (domain.BookingCounts, error) {
	return r.Counts, r.Err
}

func (r *Reports) RevenueTotals(context.Context, domain.DateRange, []domain.BookingStatus) (domain.RevenueTotals, error) {
	return r.Totals, r.Err
}

func (r *Reports) PopularTours(_ context.Context, _ domain.DateRange, limit int) ([]domain.PopularTour, error) {
	if len(r.Popular) > limit {
		return r.Popular[:limit], r.Err
	}
	return r.Popular, r.Err
}

func (r *Reports) MonthlyTrends(_ context.Context, since time.Time) ([]domain.MonthlyTrend, error) {
	r.mu.Lock()
	r.TrendsSince = since
	r.mu.Unlock()
	return r.Trends, r.Err
}

func (r *Reports) UserCounts(_ context.Context, monthStart time.Time) (domain.UserCounts, error) {
	r.mu.Lock()
	r.MonthStart = monthStart
	r.mu.Unlock()
	return r.Users, r.Err
}

func (r *Reports) StatusBreakdown(_ context.Context, since time.Time) ([]domain.GroupCount, error) {
	r.mu.Lock()
	r.BreakdownSince = since
	r.mu.Unlock()
	return r.Statuses, r.Err
}

func (r *Reports) SourceBreakdown(context.Context, time.Time) ([]domain.GroupCount, error) {
	return r.Sources, r.Err
}

func (r *Reports) CircuitBreakdown(context.Context, time.Time) ([]domain.CircuitStat, error) {
	return r.Circuits, r.Err
}

func (r *Reports) RevenueSeries(_ context.Context, granularity string, _ domain.DateRange, statuses []domain.BookingStatus) ([]domain.RevenuePoint, error) {
	r.mu.Lock()
	r.Granularity = granularity
	r.SeriesStatuses = statuses
	r.mu.Unlock()
	return append([]domain.RevenuePoint(nil), r.Series...), r.Err
}

func (r *Reports) ListCustomers(_ context.Context, filter repository.CustomerFilter) ([]domain.CustomerOverview, int, error) {
	r.mu.Lock()
	r.CustomerFilters = append(r.CustomerFilters, filter)
	r.mu.Unlock()
	return r.Customers, r.CustomerTotal, r.Err
}

func (r *Reports) SegmentCounts(context.Context, time.Time) (domain.SegmentCounts, error) {
	return r.Segments, r.Err
}

func (r *Reports) TopCountries(_ context.Context, limit int) ([]domain.CountryCount, error) {
	if len(r.Countries) > limit {
		return r.Countries[:limit], r.Err
	}
	return r.Countries, r.Err
}

func (r *Reports) SegmentRecipients(_ context.Context, segment domain.Segment, _ time.Time) ([]domain.Recipient, error) {
	return r.Recipients[segment], r.Err
}

var _ repository.ReportRepository = (*Reports)(nil)
