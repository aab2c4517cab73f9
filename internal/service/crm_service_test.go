package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/repository/repotest"
)

type crmFixture struct {
	svc       *CRMService
	accounts  *repotest.Accounts
	bookings  *repotest.Bookings
	reports   *repotest.Reports
	campaigns *repotest.Campaigns
	customer  *domain.Account
	marketer  *domain.Account
	at        time.Time
}

func newCRMFixture(t *testing.T) *crmFixture {
	t.Helper()
	f := &crmFixture{
		accounts:  repotest.NewAccounts(),
		bookings:  repotest.NewBookings(),
		reports:   &repotest.Reports{},
		campaigns: repotest.NewCampaigns(),
		at:        time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC),
	}
	f.customer = newAccount(t, f.accounts, domain.RoleCustomer, "amani@example.com")
	f.marketer = newAccount(t, f.accounts, domain.RoleMarketing, "marketing@example.com")
	f.svc = NewCRMService(CRMDependencies{
		AccountRepo:  f.accounts,
		BookingRepo:  f.bookings,
		ReportRepo:   f.reports,
		CampaignRepo: f.campaigns,
	})
	f.svc.now = func() time.Time { return f.at }
	return f
}

func (f *crmFixture) seed(status domain.BookingStatus, total int64, circuit domain.Circuit, created time.Time) {
	f.bookings.Put(domain.Booking{
		CustomerID:  f.customer.ID,
		Status:      status,
		Pricing:     domain.PricingSnapshot{TotalAmount: decimal.NewFromInt(total), Currency: "USD"},
		TourPackage: &domain.TourSummary{Circuit: circuit},
		CreatedAt:   created,
	})
}

func TestCustomerDetailStatistics(t *testing.T) {
	f := newCRMFixture(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.seed(domain.BookingStatusCompleted, 1000, domain.CircuitNorthern, base)
	f.seed(domain.BookingStatusConfirmed, 2000, domain.CircuitNorthern, base.AddDate(0, 1, 0))
	f.seed(domain.BookingStatusCancelled, 500, domain.CircuitZanzibar, base.AddDate(0, 2, 0))
	for i := 0; i < 4; i++ {
		f.seed(domain.BookingStatusPending, 100, domain.CircuitSouthern, base.AddDate(0, 0, i))
	}

	detail, err := f.svc.CustomerDetail(context.Background(), f.customer.ID)
	require.NoError(t, err)

	stats := detail.Statistics
	assert.Equal(t, 7, stats.TotalBookings)
	assert.Equal(t, "3900", stats.TotalSpent.String())
	assert.Equal(t, "557.14", stats.AverageBookingValue.String())
	assert.Equal(t, 4, stats.BookingsByStatus[domain.BookingStatusPending])
	require.Len(t, stats.PreferredCircuits, 3)
	assert.Equal(t, CircuitPreference{Circuit: domain.CircuitSouthern, Count: 4}, stats.PreferredCircuits[0])
	assert.Equal(t, CircuitPreference{Circuit: domain.CircuitNorthern, Count: 2}, stats.PreferredCircuits[1])
	require.NotNil(t, stats.LastBookingDate)
	assert.Equal(t, base.AddDate(0, 2, 0), *stats.LastBookingDate)
	assert.Len(t, detail.RecentBookings, 5)
}

func TestCustomerDetailRejectsStaff(t *testing.T) {
	f := newCRMFixture(t)

	_, err := f.svc.CustomerDetail(context.Background(), f.marketer.ID)
	assertStatus(t, err, http.StatusNotFound)

	_, err = f.svc.CustomerDetail(context.Background(), "missing")
	assertStatus(t, err, http.StatusNotFound)
}

func TestCustomerDetailWithoutBookings(t *testing.T) {
	f := newCRMFixture(t)

	detail, err := f.svc.CustomerDetail(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, detail.Statistics.TotalBookings)
	assert.True(t, detail.Statistics.AverageBookingValue.IsZero())
	assert.Nil(t, detail.Statistics.LastBookingDate)
	assert.NotNil(t, detail.RecentBookings)
}

func TestListCustomersTranslatesLastLoginDays(t *testing.T) {
	f := newCRMFixture(t)
	f.reports.CustomerTotal = 45
	status := domain.BookingStatusConfirmed

	_, pagination, err := f.svc.ListCustomers(context.Background(), CustomerListFilter{
		Country:       " Kenya ",
		LastLoginDays: 30,
		BookingStatus: &status,
		PageRequest:   PageRequest{Page: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Current: 2, Pages: 3, Total: 45}, pagination)

	require.Len(t, f.reports.CustomerFilters, 1)
	got := f.reports.CustomerFilters[0]
	assert.Equal(t, "Kenya", got.Country)
	require.NotNil(t, got.LastLoginFrom)
	assert.Equal(t, f.at.AddDate(0, 0, -30), *got.LastLoginFrom)
	assert.Equal(t, &status, got.BookingStatus)
	assert.Equal(t, 20, got.Page.Limit)
	assert.Equal(t, 20, got.Page.Offset)
}

func TestAddCustomerNote(t *testing.T) {
	f := newCRMFixture(t)
	ctx := context.Background()

	notes, err := f.svc.AddCustomerNote(ctx, f.marketer, f.customer.ID, "Prefers window seats", "")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "general", notes[0].Type)
	assert.Equal(t, f.marketer.ID, notes[0].AddedBy)
	assert.Equal(t, f.at, notes[0].Date)

	_, err = f.svc.AddCustomerNote(ctx, f.marketer, f.customer.ID, "   ", "")
	assertStatus(t, err, http.StatusBadRequest)
}

func TestSegments(t *testing.T) {
	f := newCRMFixture(t)
	f.reports.Segments = domain.SegmentCounts{HighValue: 2, Repeat: 3, Recent: 4, Active: 5}
	for i := 0; i < 12; i++ {
		f.reports.Countries = append(f.reports.Countries, domain.CountryCount{Country: "C", Count: 12 - i})
	}

	out, err := f.svc.Segments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, out.Segments.Repeat)
	assert.Len(t, out.TopCountries, 10)
}

func TestCreateCampaign(t *testing.T) {
	f := newCRMFixture(t)
	f.reports.Recipients = map[domain.Segment][]domain.Recipient{
		domain.SegmentAll:    {{Email: "a@example.com"}, {Email: "b@example.com"}},
		domain.SegmentRepeat: {{Email: "a@example.com"}},
	}
	ctx := context.Background()

	campaign, err := f.svc.CreateCampaign(ctx, f.marketer, CampaignInput{
		Name: " Green season ", Type: domain.CampaignEmail, Subject: "Deals", Message: "<p>Hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Green season", campaign.Name)
	assert.Equal(t, domain.SegmentAll, campaign.TargetSegment)
	assert.Equal(t, domain.CampaignScheduled, campaign.Status)
	assert.Equal(t, f.at, campaign.ScheduledDate)
	assert.Equal(t, 2, campaign.RecipientCount)
	assert.Equal(t, f.marketer.ID, campaign.CreatedBy)

	stored, ok := f.campaigns.Get(campaign.ID)
	require.True(t, ok)
	assert.Equal(t, campaign.Name, stored.Name)

	later := f.at.Add(48 * time.Hour)
	repeat, err := f.svc.CreateCampaign(ctx, f.marketer, CampaignInput{
		Name: "Loyalty", Type: domain.CampaignSMS, Message: "Thanks", TargetSegment: domain.SegmentRepeat, ScheduledDate: &later,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, repeat.RecipientCount)
	assert.Equal(t, later, repeat.ScheduledDate)

	_, err = f.svc.CreateCampaign(ctx, f.marketer, CampaignInput{Name: "x", Type: "fax", Message: "m"})
	assertStatus(t, err, http.StatusBadRequest)
	_, err = f.svc.CreateCampaign(ctx, f.marketer, CampaignInput{Name: "x", Type: domain.CampaignEmail, Message: "m", TargetSegment: "vip"})
	assertStatus(t, err, http.StatusBadRequest)
}
