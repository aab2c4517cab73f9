package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/events"
	"github.com/spec-kit/tourism-service/internal/notify"
	"github.com/spec-kit/tourism-service/internal/repository"
	"github.com/spec-kit/tourism-service/internal/repository/repotest"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

type recordingNotifier struct {
	messages []notify.Message
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, msg)
	return nil
}

type bookingFixture struct {
	svc      *BookingService
	bookings *repotest.Bookings
	tours    *repotest.Tours
	accounts *repotest.Accounts
	notifier *recordingNotifier
	tour     *domain.TourPackage
	customer *domain.Account
	agent    *domain.Account
	manager  *domain.Account
}

func newAccount(t *testing.T, accounts *repotest.Accounts, role domain.Role, email string) *domain.Account {
	t.Helper()
	account := &domain.Account{FirstName: "Test", LastName: string(role), Email: email, Role: role, IsActive: true, Preferences: domain.DefaultPreferences()}
	require.NoError(t, accounts.Create(context.Background(), account))
	return account
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{
		bookings: repotest.NewBookings(),
		tours:    repotest.NewTours(),
		accounts: repotest.NewAccounts(),
		notifier: &recordingNotifier{},
	}
	f.tour = &domain.TourPackage{
		Name:     "Serengeti Classic",
		Category: domain.CategorySafari,
		Circuit:  domain.CircuitNorthern,
		Duration: domain.TourDuration{Days: 6, Nights: 5},
		Pricing: domain.TourPricing{
			BasePrice: decimal.NewFromInt(1000),
			Currency:  "USD",
			GroupDiscounts: []domain.GroupDiscount{
				{MinSize: 4, Discount: decimal.NewFromInt(10)},
				{MinSize: 8, Discount: decimal.NewFromInt(15)},
			},
		},
		SEO:      domain.SEO{Slug: "serengeti-classic"},
		IsActive: true,
	}
	require.NoError(t, f.tours.Create(context.Background(), f.tour))

	f.customer = newAccount(t, f.accounts, domain.RoleCustomer, "customer@example.com")
	f.agent = newAccount(t, f.accounts, domain.RoleAgent, "agent@example.com")
	f.manager = newAccount(t, f.accounts, domain.RoleManager, "manager@example.com")

	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, notify.NewRenderer("https://portal.example", time.Hour), f.notifier, zap.NewNop()).RegisterHandlers()

	f.svc = NewBookingService(BookingDependencies{
		BookingRepo: f.bookings,
		TourRepo:    f.tours,
		AccountRepo: f.accounts,
		Dispatcher:  dispatcher,
	})
	return f
}

func (f *bookingFixture) create(t *testing.T, adults int) *domain.Booking {
	t.Helper()
	booking, err := f.svc.CreateBooking(context.Background(), f.customer, CreateBookingInput{
		TourPackageID: f.tour.ID,
		DepartureDate: time.Date(2025, 12, 30, 15, 0, 0, 0, time.UTC),
		Travelers:     domain.TravelerCounts{Adults: adults},
	})
	require.NoError(t, err)
	return booking
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, apperrors.ToDomainError(err).HTTPStatus, err.Error())
}

func TestCreateBookingPricesAndDates(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.create(t, 5)

	assert.Regexp(t, referencePattern, booking.BookingReference)
	assert.Equal(t, domain.BookingStatusPending, booking.Status)
	assert.Equal(t, domain.SourceWebsite, booking.Source)
	assert.Equal(t, domain.PaymentStatusPending, booking.Payment.Status)
	assert.Equal(t, "5000", booking.Pricing.BaseAmount.String())
	assert.Equal(t, "4500", booking.Pricing.TotalAmount.String())

	departure := booking.Details.DepartureDate
	assert.Equal(t, time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC), departure)
	assert.Equal(t, 6, int(booking.Details.ReturnDate.Sub(departure).Hours()/24))
	assert.Equal(t, 2026, booking.Details.ReturnDate.Year())

	require.NotNil(t, booking.Customer)
	assert.Equal(t, f.customer.Email, booking.Customer.Email)
	require.NotNil(t, booking.TourPackage)
	assert.Equal(t, "Serengeti Classic", booking.TourPackage.Name)

	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, f.customer.Email, f.notifier.messages[0].To)
}

func TestCreateBookingInactivePackage(t *testing.T) {
	f := newBookingFixture(t)
	require.NoError(t, f.tours.Deactivate(context.Background(), f.tour.ID))

	_, err := f.svc.CreateBooking(context.Background(), f.customer, CreateBookingInput{
		TourPackageID: f.tour.ID,
		DepartureDate: time.Now(),
		Travelers:     domain.TravelerCounts{Adults: 1},
	})
	assertStatus(t, err, http.StatusNotFound)
}

func TestCreateBookingSurvivesNotificationFailure(t *testing.T) {
	f := newBookingFixture(t)
	f.notifier.err = errors.New("queue unavailable")

	booking := f.create(t, 2)
	assert.NotEmpty(t, booking.ID)
}

func TestCreateBookingRetriesReferenceCollision(t *testing.T) {
	f := newBookingFixture(t)
	f.bookings.FailCreate = []error{fmt.Errorf("%w: bookings_reference_key", repository.ErrDuplicateKey)}

	booking := f.create(t, 1)
	assert.Regexp(t, referencePattern, booking.BookingReference)
}

func TestUpdateStatusAgentOwnership(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	booking := f.create(t, 2)

	for _, status := range domain.BookingStatuses {
		_, err := f.svc.UpdateStatus(ctx, f.agent, booking.ID, status)
		assertStatus(t, err, http.StatusForbidden)
	}

	_, err := f.svc.AssignAgent(ctx, booking.ID, f.agent.ID)
	require.NoError(t, err)

	for _, status := range domain.BookingStatuses {
		updated, err := f.svc.UpdateStatus(ctx, f.agent, booking.ID, status)
		require.NoError(t, err, status)
		assert.Equal(t, status, updated.Status)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.create(t, 1)

	_, err := f.svc.UpdateStatus(context.Background(), f.manager, booking.ID, "archived")
	assertStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.UpdateStatus(context.Background(), f.manager, "missing", domain.BookingStatusConfirmed)
	assertStatus(t, err, http.StatusNotFound)
}

func TestAssignAgentRequiresActiveAgent(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.create(t, 1)

	_, err := f.svc.AssignAgent(context.Background(), booking.ID, f.manager.ID)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestAppendNoteIsAppendOnly(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	booking := f.create(t, 1)

	_, err := f.svc.AppendNote(ctx, f.manager, booking.ID, "first")
	require.NoError(t, err)
	notes, err := f.svc.AppendNote(ctx, f.manager, booking.ID, "second")
	require.NoError(t, err)

	require.Len(t, notes, 2)
	assert.Equal(t, "first", notes[0].Note)
	assert.Equal(t, "second", notes[1].Note)
	assert.Equal(t, f.manager.ID, notes[1].AddedBy)
	assert.False(t, notes[1].Date.IsZero())

	_, err = f.svc.AppendNote(ctx, f.agent, booking.ID, "not mine")
	assertStatus(t, err, http.StatusForbidden)
}

func TestListScopesByRole(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		f.create(t, 1)
	}
	other := newAccount(t, f.accounts, domain.RoleCustomer, "other@example.com")
	f.bookings.Put(domain.Booking{CustomerID: other.ID, BookingReference: "EA250101ZZZZ", Status: domain.BookingStatusPending})

	page2, pagination, err := f.svc.ListMine(ctx, f.customer, BookingListFilter{PageRequest: PageRequest{Page: 2, Limit: 10}})
	require.NoError(t, err)
	assert.Len(t, page2, 5)
	assert.Equal(t, Pagination{Current: 2, Pages: 2, Total: 15}, pagination)

	all, pagination, err := f.svc.ListAll(ctx, f.manager, BookingListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 16)
	assert.Equal(t, 16, pagination.Total)

	assigned, _, err := f.svc.ListAll(ctx, f.agent, BookingListFilter{})
	require.NoError(t, err)
	assert.Empty(t, assigned)

	hr := newAccount(t, f.accounts, domain.RoleHR, "hr@example.com")
	_, _, err = f.svc.ListAll(ctx, hr, BookingListFilter{})
	assertStatus(t, err, http.StatusForbidden)
}

func TestGetBookingScope(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	booking := f.create(t, 1)

	_, err := f.svc.GetBooking(ctx, f.customer, booking.ID)
	require.NoError(t, err)

	other := newAccount(t, f.accounts, domain.RoleCustomer, "other@example.com")
	_, err = f.svc.GetBooking(ctx, other, booking.ID)
	assertStatus(t, err, http.StatusNotFound)

	_, err = f.svc.GetBooking(ctx, f.agent, booking.ID)
	assertStatus(t, err, http.StatusNotFound)

	_, err = f.svc.GetBooking(ctx, f.manager, booking.ID)
	require.NoError(t, err)
}

func TestSoftDeletedTourStillResolvesForBookings(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	booking := f.create(t, 1)

	tours := NewTourService(f.tours, nil, nil)
	require.NoError(t, tours.Delete(ctx, f.tour.ID))

	_, err := tours.Get(ctx, f.tour.ID)
	assertStatus(t, err, http.StatusNotFound)
	listed, _, err := tours.List(ctx, TourListFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	got, err := f.svc.GetBooking(ctx, f.customer, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "Serengeti Classic", got.TourPackage.Name)
}
