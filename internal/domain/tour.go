package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TourCategory classifies the kind of experience offered.
type TourCategory string

const (
	CategorySafari    TourCategory = "safari"
	CategoryCultural  TourCategory = "cultural"
	CategoryAdventure TourCategory = "adventure"
	CategoryBeach     TourCategory = "beach"
	CategoryMountain  TourCategory = "mountain"
	CategoryWildlife  TourCategory = "wildlife"
	CategoryLuxury    TourCategory = "luxury"
)

// TourCategories lists every category.
var TourCategories = []TourCategory{
	CategorySafari, CategoryCultural, CategoryAdventure, CategoryBeach,
	CategoryMountain, CategoryWildlife, CategoryLuxury,
}

func (c TourCategory) Valid() bool {
	for _, known := range TourCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Circuit is the geographic grouping of a tour's destinations.
type Circuit string

const (
	CircuitNorthern Circuit = "northern"
	CircuitSouthern Circuit = "southern"
	CircuitWestern  Circuit = "western"
	CircuitCoastal  Circuit = "coastal"
	CircuitZanzibar Circuit = "zanzibar"
)

// Circuits lists every circuit.
var Circuits = []Circuit{CircuitNorthern, CircuitSouthern, CircuitWestern, CircuitCoastal, CircuitZanzibar}

func (c Circuit) Valid() bool {
	for _, known := range Circuits {
		if c == known {
			return true
		}
	}
	return false
}

// TourPackage is a catalog entry.
type TourPackage struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	ShortDescription string         `json:"shortDescription,omitempty"`
	Category         TourCategory   `json:"category"`
	Circuit          Circuit        `json:"circuit"`
	Destinations     []Destination  `json:"destinations"`
	Duration         TourDuration   `json:"duration"`
	Pricing          TourPricing    `json:"pricing"`
	Availability     Availability   `json:"availability"`
	Inclusions       Inclusions     `json:"inclusions"`
	Itinerary        []ItineraryDay `json:"itinerary"`
	Media            Media          `json:"media"`
	Requirements     Requirements   `json:"requirements"`
	Reviews          Reviews        `json:"reviews"`
	SEO              SEO            `json:"seo"`
	IsActive         bool           `json:"isActive"`
	IsFeatured       bool           `json:"isFeatured"`
	CreatedBy        string         `json:"createdBy,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type Destination struct {
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
	Activities    []string     `json:"activities,omitempty"`
	Accommodation string       `json:"accommodation,omitempty"`
	Duration      int          `json:"duration,omitempty"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type TourDuration struct {
	Days   int `json:"days"`
	Nights int `json:"nights"`
}

// TourPricing holds the live price list of a package. Bookings copy what they
// need into their own PricingSnapshot.
type TourPricing struct {
	BasePrice       decimal.Decimal `json:"basePrice"`
	Currency        string          `json:"currency"`
	PriceIncludes   []string        `json:"priceIncludes,omitempty"`
	PriceExcludes   []string        `json:"priceExcludes,omitempty"`
	SeasonalPricing []SeasonalPrice `json:"seasonalPricing,omitempty"`
	GroupDiscounts  []GroupDiscount `json:"groupDiscounts,omitempty"`
}

type SeasonalPrice struct {
	Season     string          `json:"season"`
	StartDate  *Date           `json:"startDate,omitempty"`
	EndDate    *Date           `json:"endDate,omitempty"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// GroupDiscount grants Discount percent once a party reaches MinSize travelers.
type GroupDiscount struct {
	MinSize  int             `json:"minSize"`
	Discount decimal.Decimal `json:"discount"`
}

type Availability struct {
	MaxGroupSize       int    `json:"maxGroupSize,omitempty"`
	MinGroupSize       int    `json:"minGroupSize"`
	DepartureDates     []Date `json:"departureDates,omitempty"`
	BlackoutDates      []Date `json:"blackoutDates,omitempty"`
	AdvanceBookingDays int    `json:"advanceBookingDays"`
}

type Inclusions struct {
	Accommodation string   `json:"accommodation,omitempty"`
	Meals         []string `json:"meals,omitempty"`
	Transport     string   `json:"transport,omitempty"`
	Guide         bool     `json:"guide"`
	Activities    []string `json:"activities,omitempty"`
	Equipment     []string `json:"equipment,omitempty"`
}

type ItineraryDay struct {
	Day           int      `json:"day"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Meals         []string `json:"meals,omitempty"`
	Accommodation string   `json:"accommodation,omitempty"`
	Activities    []string `json:"activities,omitempty"`
}

type Media struct {
	Images   []string `json:"images,omitempty"`
	Videos   []string `json:"videos,omitempty"`
	Brochure string   `json:"brochure,omitempty"`
}

type Requirements struct {
	FitnessLevel        string           `json:"fitnessLevel,omitempty"`
	AgeRestrictions     *AgeRestrictions `json:"ageRestrictions,omitempty"`
	MedicalRequirements []string         `json:"medicalRequirements,omitempty"`
	Equipment           []string         `json:"equipment,omitempty"`
}

type AgeRestrictions struct {
	MinAge int `json:"minAge,omitempty"`
	MaxAge int `json:"maxAge,omitempty"`
}

type Reviews struct {
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}

type SEO struct {
	Slug            string   `json:"slug"`
	MetaTitle       string   `json:"metaTitle,omitempty"`
	MetaDescription string   `json:"metaDescription,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
}

var slugStrip = regexp.MustCompile(`[^\w-]+`)

// Slugify lowercases name, turns spaces into hyphens and drops everything
// that is neither a word character nor a hyphen.
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	return slugStrip.ReplaceAllString(slug, "")
}

// TourSummary is the slice of a package embedded in booking responses.
type TourSummary struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Category TourCategory `json:"category,omitempty"`
	Circuit  Circuit      `json:"circuit,omitempty"`
	Duration TourDuration `json:"duration"`
	Pricing  *TourPricing `json:"pricing,omitempty"`
}

// Summary projects the package for embedding.
func (t *TourPackage) Summary() *TourSummary {
	pricing := t.Pricing
	return &TourSummary{
		ID:       t.ID,
		Name:     t.Name,
		Category: t.Category,
		Circuit:  t.Circuit,
		Duration: t.Duration,
		Pricing:  &pricing,
	}
}
