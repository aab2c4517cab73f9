package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tourism-service/internal/domain"
)

type stubMailer struct {
	sent []Message
	err  error
}

func (m *stubMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestRenderBookingConfirmation(t *testing.T) {
	departure := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	booking := &domain.Booking{
		BookingReference: "EA250101AB12",
		Details: domain.BookingDetails{
			DepartureDate:     departure,
			ReturnDate:        departure.AddDate(0, 0, 5),
			NumberOfTravelers: domain.TravelerCounts{Adults: 2, Children: 1},
		},
		Pricing: domain.PricingSnapshot{TotalAmount: decimal.NewFromInt(4500), Currency: "USD"},
	}
	customer := &domain.Account{FirstName: "Amani", Email: "amani@example.com"}
	tour := &domain.TourPackage{Name: "Serengeti <Classic>"}

	msg, err := NewRenderer("https://portal.example/", time.Hour).BookingConfirmation(booking, customer, tour)
	require.NoError(t, err)

	assert.Equal(t, "amani@example.com", msg.To)
	assert.Equal(t, "Booking Confirmation - EA250101AB12", msg.Subject)
	assert.Equal(t, TemplateBookingConfirmation, msg.Template)
	assert.Contains(t, msg.HTML, "USD 4500.00")
	assert.Contains(t, msg.HTML, "July 6, 2025")
	assert.Contains(t, msg.HTML, "Serengeti &lt;Classic&gt;")
	assert.Contains(t, msg.HTML, Brand)
}

func TestRenderPasswordReset(t *testing.T) {
	account := &domain.Account{FirstName: "Amani", Email: "amani@example.com"}
	msg, err := NewRenderer("https://portal.example/", time.Hour).PasswordReset(account, "tok-123")
	require.NoError(t, err)

	assert.Contains(t, msg.HTML, "https://portal.example/reset-password?token=tok-123")
	assert.Contains(t, msg.HTML, "expire in 1 hour")
}

func TestQueueNotifierPushesJSON(t *testing.T) {
	client, mock := redismock.NewClientMock()
	msg := Message{ID: "m-1", To: "a@example.com", Subject: "Hi", HTML: "<p>x</p>", Template: TemplateCampaign}
	payload, err := json.Marshal(msg)
	require.NoError(t, err)

	mock.ExpectLPush("notifications:email", payload).SetVal(1)

	require.NoError(t, NewQueueNotifier(client, "notifications:email").Notify(context.Background(), msg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueNotifierSurfacesRedisErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	msg := Message{ID: "m-1", To: "a@example.com", Template: TemplateCampaign}
	payload, _ := json.Marshal(msg)
	mock.ExpectLPush("q", payload).SetErr(errors.New("connection refused"))

	err := NewQueueNotifier(client, "q").Notify(context.Background(), msg)
	assert.ErrorContains(t, err, "connection refused")
}

func TestDirectNotifier(t *testing.T) {
	mailer := &stubMailer{}
	require.NoError(t, NewDirectNotifier(mailer, nil).Notify(context.Background(), Message{To: "a@example.com"}))
	assert.Len(t, mailer.sent, 1)

	failing := &stubMailer{err: errors.New("smtp down")}
	assert.Error(t, NewDirectNotifier(failing, nil).Notify(context.Background(), Message{}))
}

func TestDeadLetterKey(t *testing.T) {
	assert.Equal(t, "notifications:email:dead", DeadLetterKey("notifications:email"))
	assert.Equal(t, "notifications:email:delayed", DelayedKey("notifications:email"))
}
