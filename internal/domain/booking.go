package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus enumerates booking lifecycle states.
type BookingStatus string

const (
	BookingStatusDraft      BookingStatus = "draft"
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in-progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusNoShow     BookingStatus = "no-show"
)

// BookingStatuses lists every status in lifecycle order.
var BookingStatuses = []BookingStatus{
	BookingStatusDraft,
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusInProgress,
	BookingStatusCompleted,
	BookingStatusCancelled,
	BookingStatusNoShow,
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// allowedTransitions is intentionally permissive: operators correct mistakes
// by moving a booking to any state.
var allowedTransitions = func() map[BookingStatus]map[BookingStatus]struct{} {
	table := make(map[BookingStatus]map[BookingStatus]struct{}, len(BookingStatuses))
	for _, from := range BookingStatuses {
		targets := make(map[BookingStatus]struct{}, len(BookingStatuses))
		for _, to := range BookingStatuses {
			targets[to] = struct{}{}
		}
		table[from] = targets
	}
	return table
}()

// CanTransition reports whether a booking in from may move to to.
func CanTransition(from, to BookingStatus) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// RevenueStatuses are the statuses counted as earned revenue on dashboards.
var RevenueStatuses = []BookingStatus{BookingStatusConfirmed, BookingStatusCompleted}

// PaymentStatus tracks settlement of a booking.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// BookingSource is the channel a booking arrived through.
type BookingSource string

const (
	SourceWebsite  BookingSource = "website"
	SourcePhone    BookingSource = "phone"
	SourceEmail    BookingSource = "email"
	SourceOTA      BookingSource = "ota"
	SourceAgent    BookingSource = "agent"
	SourceReferral BookingSource = "referral"
)

// DiscountType names the policy that produced a discount line.
type DiscountType string

const (
	DiscountGroup       DiscountType = "group"
	DiscountEarlyBird   DiscountType = "early-bird"
	DiscountLoyalty     DiscountType = "loyalty"
	DiscountPromotional DiscountType = "promotional"
)

// Booking is a customer's reservation of a tour package.
type Booking struct {
	ID               string          `json:"id"`
	BookingReference string          `json:"bookingReference"`
	CustomerID       string          `json:"customerId"`
	TourPackageID    string          `json:"tourPackageId"`
	Details          BookingDetails  `json:"bookingDetails"`
	Travelers        []Traveler      `json:"travelers"`
	Pricing          PricingSnapshot `json:"pricing"`
	Payment          Payment         `json:"payment"`
	Status           BookingStatus   `json:"status"`
	Communications   []Communication `json:"communications"`
	Documents        []Document      `json:"documents"`
	SpecialRequests  string          `json:"specialRequests,omitempty"`
	InternalNotes    []InternalNote  `json:"internalNotes"`
	AssignedAgentID  *string         `json:"assignedAgentId,omitempty"`
	Source           BookingSource   `json:"source"`
	OTAReference     string          `json:"otaReference,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	Customer         *AccountSummary `json:"customer,omitempty"`
	TourPackage      *TourSummary    `json:"tourPackage,omitempty"`
	AssignedAgent    *AccountSummary `json:"assignedAgent,omitempty"`
}

// AssignedTo reports whether the booking is assigned to the given agent.
func (b *Booking) AssignedTo(agentID string) bool {
	return b.AssignedAgentID != nil && *b.AssignedAgentID == agentID
}

type BookingDetails struct {
	DepartureDate     time.Time         `json:"departureDate"`
	ReturnDate        time.Time         `json:"returnDate"`
	NumberOfTravelers TravelerCounts    `json:"numberOfTravelers"`
	RoomConfiguration RoomConfiguration `json:"roomConfiguration"`
}

type TravelerCounts struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

// Priced returns the number of travelers that pay. Infants travel free.
func (c TravelerCounts) Priced() int {
	return c.Adults + c.Children
}

type RoomConfiguration struct {
	SingleRooms int `json:"singleRooms"`
	DoubleRooms int `json:"doubleRooms"`
	TripleRooms int `json:"tripleRooms"`
}

type Traveler struct {
	FirstName           string            `json:"firstName"`
	LastName            string            `json:"lastName"`
	DateOfBirth         *Date             `json:"dateOfBirth,omitempty"`
	Nationality         string            `json:"nationality,omitempty"`
	PassportNumber      string            `json:"passportNumber,omitempty"`
	PassportExpiry      *Date             `json:"passportExpiry,omitempty"`
	DietaryRequirements string            `json:"dietaryRequirements,omitempty"`
	MedicalConditions   string            `json:"medicalConditions,omitempty"`
	EmergencyContact    *EmergencyContact `json:"emergencyContact,omitempty"`
}

// PricingSnapshot is frozen at creation and never recomputed from the catalog.
type PricingSnapshot struct {
	BaseAmount  decimal.Decimal `json:"baseAmount"`
	Discounts   []Discount      `json:"discounts"`
	Extras      []Extra         `json:"extras"`
	Taxes       *Tax            `json:"taxes,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    string          `json:"currency"`
}

type Discount struct {
	Type        DiscountType    `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type Extra struct {
	Item       string          `json:"item"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type Tax struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

type Payment struct {
	Status              PaymentStatus    `json:"status"`
	Method              string           `json:"method,omitempty"`
	Transactions        []Transaction    `json:"transactions"`
	DepositAmount       *decimal.Decimal `json:"depositAmount,omitempty"`
	DepositDueDate      *time.Time       `json:"depositDueDate,omitempty"`
	FinalPaymentDueDate *time.Time       `json:"finalPaymentDueDate,omitempty"`
}

type Transaction struct {
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Status        string          `json:"status"`
	Gateway       string          `json:"gateway,omitempty"`
	Reference     string          `json:"reference,omitempty"`
}

type Communication struct {
	Date    time.Time `json:"date"`
	Type    string    `json:"type"`
	Subject string    `json:"subject,omitempty"`
	Message string    `json:"message"`
	SentBy  string    `json:"sentBy,omitempty"`
	Status  string    `json:"status,omitempty"`
}

type Document struct {
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadDate time.Time `json:"uploadDate"`
}

// InternalNote is an append-only staff annotation on a booking.
type InternalNote struct {
	Note    string    `json:"note"`
	AddedBy string    `json:"addedBy"`
	Date    time.Time `json:"date"`
}

// AccountSummary is the slice of an account embedded in other resources.
type AccountSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// Summary projects the account for embedding.
func (a *Account) Summary() *AccountSummary {
	return &AccountSummary{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
	}
}
