package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/spec-kit/tourism-service/internal/domain"
)

// Brand appears in every subject and header.
const Brand = "Eternity Africa Tourism"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Renderer turns domain objects into messages.
type Renderer struct {
	clientURL string
	resetTTL  time.Duration
}

// NewRenderer builds a renderer. clientURL is the customer portal root used
// in links.
func NewRenderer(clientURL string, resetTTL time.Duration) *Renderer {
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &Renderer{clientURL: strings.TrimRight(clientURL, "/"), resetTTL: resetTTL}
}

func (r *Renderer) BookingConfirmation(booking *domain.Booking, customer *domain.Account, tour *domain.TourPackage) (Message, error) {
	counts := booking.Details.NumberOfTravelers
	data := map[string]any{
		"Brand":     Brand,
		"FirstName": customer.FirstName,
		"Reference": booking.BookingReference,
		"TourName":  tour.Name,
		"Departure": booking.Details.DepartureDate.Format("January 2, 2006"),
		"Return":    booking.Details.ReturnDate.Format("January 2, 2006"),
		"Travelers": fmt.Sprintf("%d adults, %d children, %d infants", counts.Adults, counts.Children, counts.Infants),
		"Currency":  booking.Pricing.Currency,
		"Total":     booking.Pricing.TotalAmount.StringFixed(2),
	}
	return r.render(TemplateBookingConfirmation, customer.Email,
		fmt.Sprintf("Booking Confirmation - %s", booking.BookingReference), data)
}

func (r *Renderer) PasswordReset(account *domain.Account, token string) (Message, error) {
	data := map[string]any{
		"Brand":     Brand,
		"FirstName": account.FirstName,
		"ResetURL":  r.clientURL + "/reset-password?token=" + url.QueryEscape(token),
		"ExpiresIn": humanDuration(r.resetTTL),
	}
	return r.render(TemplatePasswordReset, account.Email, "Password Reset Request - "+Brand, data)
}

func (r *Renderer) Campaign(campaign *domain.Campaign, recipient domain.Recipient) (Message, error) {
	subject := campaign.Subject
	if subject == "" {
		subject = campaign.Name
	}
	data := map[string]any{
		"Brand":     Brand,
		"FirstName": recipient.FirstName,
		"Body":      campaign.Message,
		"ClientURL": r.clientURL,
	}
	return r.render(TemplateCampaign, recipient.Email, subject, data)
}

func (r *Renderer) render(name, to, subject string, data map[string]any) (Message, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Message{To: to, Subject: subject, HTML: buf.String(), Template: name}, nil
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
