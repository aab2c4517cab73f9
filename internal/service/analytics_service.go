package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/repository"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

const popularTourLimit = 5

// analyticsPeriods maps the period query values to look-back windows.
var analyticsPeriods = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}

// revenueStatuses are counted by the revenue report. The dashboard uses the
// narrower domain.RevenueStatuses.
var revenueStatuses = []domain.BookingStatus{
	domain.BookingStatusConfirmed,
	domain.BookingStatusCompleted,
	domain.BookingStatusInProgress,
}

var revenueLabels = map[string]func(time.Time) string{
	"day":   func(t time.Time) string { return t.Format("2006-01-02") },
	"week":  func(t time.Time) string { y, w := t.ISOWeek(); return fmt.Sprintf("%d-W%02d", y, w) },
	"month": func(t time.Time) string { return t.Format("2006-01") },
	"year":  func(t time.Time) string { return t.Format("2006") },
}

// AnalyticsService serves the management dashboards.
type AnalyticsService struct {
	reports repository.ReportRepository
	now     func() time.Time
}

// NewAnalyticsService builds the service.
func NewAnalyticsService(reports repository.ReportRepository) *AnalyticsService {
	return &AnalyticsService{reports: reports, now: time.Now}
}

type DashboardBookings struct {
	domain.BookingCounts
	ConversionRate string `json:"conversionRate"`
}

type DashboardRevenue struct {
	Total    decimal.Decimal `json:"total"`
	Average  decimal.Decimal `json:"average"`
	Currency string          `json:"currency"`
}

// Dashboard is the overview payload.
type Dashboard struct {
	Bookings      DashboardBookings     `json:"bookings"`
	Revenue       DashboardRevenue      `json:"revenue"`
	PopularTours  []domain.PopularTour  `json:"popularTours"`
	MonthlyTrends []domain.MonthlyTrend `json:"monthlyTrends"`
	Users         domain.UserCounts     `json:"users"`
}

// BookingAnalytics groups bookings created within a period.
type BookingAnalytics struct {
	Period           string               `json:"period"`
	StatusBreakdown  []domain.GroupCount  `json:"statusBreakdown"`
	SourceBreakdown  []domain.GroupCount  `json:"sourceBreakdown"`
	CircuitBreakdown []domain.CircuitStat `json:"circuitAnalytics"`
}

// RevenueReport is the revenue time series.
type RevenueReport struct {
	GroupBy string                `json:"groupBy"`
	Revenue []domain.RevenuePoint `json:"data"`
}

// Dashboard aggregates bookings by departure date within the range and users
// overall. The independent queries run concurrently.
func (s *AnalyticsService) Dashboard(ctx context.Context, departure domain.DateRange) (*Dashboard, error) {
	current := s.now()
	monthStart := now.With(current).BeginningOfMonth()
	trendStart := monthStart.AddDate(0, -11, 0)

	var (
		dash   Dashboard
		counts domain.BookingCounts
		totals domain.RevenueTotals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = s.reports.BookingCounts(gctx, departure)
		return err
	})
	g.Go(func() (err error) {
		totals, err = s.reports.RevenueTotals(gctx, departure, domain.RevenueStatuses)
		return err
	})
	g.Go(func() (err error) {
		dash.PopularTours, err = s.reports.PopularTours(gctx, departure, popularTourLimit)
		return err
	})
	g.Go(func() (err error) {
		dash.MonthlyTrends, err = s.reports.MonthlyTrends(gctx, trendStart)
		return err
	})
	g.Go(func() (err error) {
		dash.Users, err = s.reports.UserCounts(gctx, monthStart)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	dash.Bookings = DashboardBookings{BookingCounts: counts, ConversionRate: conversionRate(counts)}
	dash.Revenue = DashboardRevenue{Total: totals.Total, Average: totals.Average, Currency: domain.DefaultCurrency}
	if dash.PopularTours == nil {
		dash.PopularTours = []domain.PopularTour{}
	}
	if dash.MonthlyTrends == nil {
		dash.MonthlyTrends = []domain.MonthlyTrend{}
	}
	return &dash, nil
}

// conversionRate is confirmed over total as a percentage with two decimals.
func conversionRate(counts domain.BookingCounts) string {
	if counts.Total == 0 {
		return "0.00"
	}
	return decimal.NewFromInt(int64(counts.Confirmed)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(counts.Total))).
		StringFixed(2)
}

// BookingAnalytics breaks bookings down by status, source and circuit.
func (s *AnalyticsService) BookingAnalytics(ctx context.Context, period string) (*BookingAnalytics, error) {
	if period == "" {
		period = "30d"
	}
	window, ok := analyticsPeriods[period]
	if !ok {
		return nil, apperrors.NewValidationError("Invalid period. Use 7d, 30d, 90d or 1y", nil)
	}
	since := s.now().Add(-window)

	out := &BookingAnalytics{Period: period}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.StatusBreakdown, err = s.reports.StatusBreakdown(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		out.SourceBreakdown, err = s.reports.SourceBreakdown(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		out.CircuitBreakdown, err = s.reports.CircuitBreakdown(gctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if out.StatusBreakdown == nil {
		out.StatusBreakdown = []domain.GroupCount{}
	}
	if out.SourceBreakdown == nil {
		out.SourceBreakdown = []domain.GroupCount{}
	}
	if out.CircuitBreakdown == nil {
		out.CircuitBreakdown = []domain.CircuitStat{}
	}
	return out, nil
}

// Revenue buckets earned revenue by creation time.
func (s *AnalyticsService) Revenue(ctx context.Context, groupBy string, created domain.DateRange) (*RevenueReport, error) {
	if groupBy == "" {
		groupBy = "month"
	}
	label, ok := revenueLabels[groupBy]
	if !ok {
		return nil, apperrors.NewValidationError("Invalid groupBy. Use day, week, month or year", nil)
	}

	points, err := s.reports.RevenueSeries(ctx, groupBy, created, revenueStatuses)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	for i := range points {
		points[i].Label = label(points[i].Period.UTC())
	}
	if points == nil {
		points = []domain.RevenuePoint{}
	}
	return &RevenueReport{GroupBy: groupBy, Revenue: points}, nil
}
