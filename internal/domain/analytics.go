package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Segment thresholds.
var HighValueThreshold = decimal.NewFromInt(5000)

const (
	RecentCustomerWindow = 30 * 24 * time.Hour
	ActiveCustomerWindow = 180 * 24 * time.Hour
)

// DateRange bounds a report. Nil ends are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

type BookingCounts struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Pending   int `json:"pending"`
	Cancelled int `json:"cancelled"`
}

type RevenueTotals struct {
	Total   decimal.Decimal `json:"total"`
	Average decimal.Decimal `json:"average"`
	Count   int             `json:"count"`
}

type PopularTour struct {
	TourID   string          `json:"id"`
	Name     string          `json:"name"`
	Bookings int             `json:"bookings"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type MonthlyTrend struct {
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Bookings int             `json:"bookings"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type UserCounts struct {
	Total        int `json:"total"`
	NewThisMonth int `json:"newThisMonth"`
}

// GroupCount is a count keyed by status or source.
type GroupCount struct {
	Key   string `json:"id"`
	Count int    `json:"count"`
}

type CircuitStat struct {
	Circuit  Circuit         `json:"id"`
	Bookings int             `json:"bookings"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// RevenuePoint is one bucket of the revenue time series. Period holds the
// bucket start truncated to the requested granularity.
type RevenuePoint struct {
	Period       time.Time       `json:"period"`
	Label        string          `json:"label"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	BookingCount int             `json:"bookingCount"`
	AverageValue decimal.Decimal `json:"averageValue"`
}

// CustomerOverview is a customer row enriched with booking aggregates.
type CustomerOverview struct {
	Account
	TotalBookings   int             `json:"totalBookings"`
	TotalSpent      decimal.Decimal `json:"totalSpent"`
	LastBookingDate *time.Time      `json:"lastBookingDate,omitempty"`
	BookingStatuses []BookingStatus `json:"bookingStatuses"`
}

type SegmentCounts struct {
	HighValue int `json:"highValue"`
	Repeat    int `json:"repeat"`
	Recent    int `json:"recent"`
	Active    int `json:"active"`
}

type CountryCount struct {
	Country string `json:"id"`
	Count   int    `json:"count"`
}
