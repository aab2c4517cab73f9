package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/repository/repotest"
)

func fixedAnalytics(reports *repotest.Reports, at time.Time) *AnalyticsService {
	svc := NewAnalyticsService(reports)
	svc.now = func() time.Time { return at }
	return svc
}

func TestDashboardAggregates(t *testing.T) {
	reports := &repotest.Reports{
		Counts: domain.BookingCounts{Total: 8, Confirmed: 3, Pending: 4, Cancelled: 1},
		Totals: domain.RevenueTotals{Total: decimal.NewFromInt(9000), Average: decimal.NewFromInt(3000), Count: 3},
		Popular: []domain.PopularTour{
			{TourID: "a", Name: "A", Bookings: 9}, {TourID: "b", Name: "B", Bookings: 7},
			{TourID: "c", Name: "C", Bookings: 5}, {TourID: "d", Name: "D", Bookings: 3},
			{TourID: "e", Name: "E", Bookings: 2}, {TourID: "f", Name: "F", Bookings: 1},
		},
		Users: domain.UserCounts{Total: 40, NewThisMonth: 6},
	}
	svc := fixedAnalytics(reports, time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC))

	dash, err := svc.Dashboard(context.Background(), domain.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, 8, dash.Bookings.Total)
	assert.Equal(t, "37.50", dash.Bookings.ConversionRate)
	assert.Equal(t, "9000", dash.Revenue.Total.String())
	assert.Len(t, dash.PopularTours, 5)
	assert.NotNil(t, dash.MonthlyTrends)
	assert.Equal(t, 6, dash.Users.NewThisMonth)

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), reports.MonthStart)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), reports.TrendsSince)
}

func TestDashboardWithoutBookings(t *testing.T) {
	svc := fixedAnalytics(&repotest.Reports{}, time.Now().UTC())

	dash, err := svc.Dashboard(context.Background(), domain.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, "0.00", dash.Bookings.ConversionRate)
	assert.Empty(t, dash.PopularTours)
}

func TestDashboardPropagatesStoreFailure(t *testing.T) {
	svc := fixedAnalytics(&repotest.Reports{Err: errors.New("db down")}, time.Now())

	_, err := svc.Dashboard(context.Background(), domain.DateRange{})
	assertStatus(t, err, http.StatusInternalServerError)
}

func TestBookingAnalyticsPeriods(t *testing.T) {
	at := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	reports := &repotest.Reports{Statuses: []domain.GroupCount{{Key: "pending", Count: 2}}}
	svc := fixedAnalytics(reports, at)

	out, err := svc.BookingAnalytics(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "30d", out.Period)
	assert.Equal(t, at.AddDate(0, 0, -30), reports.BreakdownSince)
	assert.Len(t, out.StatusBreakdown, 1)
	assert.NotNil(t, out.SourceBreakdown)
	assert.NotNil(t, out.CircuitBreakdown)

	_, err = svc.BookingAnalytics(context.Background(), "7d")
	require.NoError(t, err)
	assert.Equal(t, at.AddDate(0, 0, -7), reports.BreakdownSince)

	_, err = svc.BookingAnalytics(context.Background(), "2w")
	assertStatus(t, err, http.StatusBadRequest)
}

func TestRevenueLabels(t *testing.T) {
	cases := []struct {
		groupBy string
		period  time.Time
		label   string
	}{
		{"day", time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), "2025-03-04"},
		{"week", time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), "2025-W01"},
		{"month", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "2025-03"},
		{"year", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "2025"},
	}
	for _, tc := range cases {
		t.Run(tc.groupBy, func(t *testing.T) {
			reports := &repotest.Reports{Series: []domain.RevenuePoint{{Period: tc.period, BookingCount: 1}}}
			out, err := NewAnalyticsService(reports).Revenue(context.Background(), tc.groupBy, domain.DateRange{})
			require.NoError(t, err)
			require.Len(t, out.Revenue, 1)
			assert.Equal(t, tc.label, out.Revenue[0].Label)
			assert.Equal(t, tc.groupBy, reports.Granularity)
			assert.ElementsMatch(t, []domain.BookingStatus{
				domain.BookingStatusConfirmed, domain.BookingStatusCompleted, domain.BookingStatusInProgress,
			}, reports.SeriesStatuses)
		})
	}

	out, err := NewAnalyticsService(&repotest.Reports{}).Revenue(context.Background(), "", domain.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, "month", out.GroupBy)
	assert.NotNil(t, out.Revenue)

	_, err = NewAnalyticsService(&repotest.Reports{}).Revenue(context.Background(), "quarter", domain.DateRange{})
	assertStatus(t, err, http.StatusBadRequest)
}
