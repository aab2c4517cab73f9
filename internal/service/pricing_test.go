package service

import (
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tourism-service/internal/domain"
)

func tiers(pairs ...int) []domain.GroupDiscount {
	var out []domain.GroupDiscount
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.GroupDiscount{MinSize: pairs[i], Discount: decimal.NewFromInt(int64(pairs[i+1]))})
	}
	return out
}

func TestCalculatePricingScenario(t *testing.T) {
	pricing := domain.TourPricing{BasePrice: decimal.NewFromInt(1000), GroupDiscounts: tiers(4, 10, 8, 15)}
	snap := CalculatePricing(pricing, domain.TravelerCounts{Adults: 5})

	assert.Equal(t, "5000", snap.BaseAmount.String())
	assert.Equal(t, "4500", snap.TotalAmount.String())
	assert.Equal(t, "USD", snap.Currency)
	require.Len(t, snap.Discounts, 1)
	assert.Equal(t, domain.DiscountGroup, snap.Discounts[0].Type)
	assert.Equal(t, "500", snap.Discounts[0].Amount.String())
	assert.Equal(t, "Group discount for 5 travelers", snap.Discounts[0].Description)
}

func TestCalculatePricingPicksLargestPercentage(t *testing.T) {
	// A smaller minimum with a bigger discount beats the closest fitting tier.
	pricing := domain.TourPricing{BasePrice: decimal.NewFromInt(100), GroupDiscounts: tiers(6, 5, 2, 20, 4, 10)}
	snap := CalculatePricing(pricing, domain.TravelerCounts{Adults: 4, Children: 2})

	require.Len(t, snap.Discounts, 1)
	assert.Equal(t, "120", snap.Discounts[0].Amount.String())
	assert.Equal(t, "480", snap.TotalAmount.String())
}

func TestCalculatePricingExcludesInfants(t *testing.T) {
	pricing := domain.TourPricing{BasePrice: decimal.NewFromInt(1000), Currency: "EUR", GroupDiscounts: tiers(4, 10)}
	snap := CalculatePricing(pricing, domain.TravelerCounts{Adults: 2, Children: 1, Infants: 3})

	assert.Equal(t, "3000", snap.BaseAmount.String())
	assert.Empty(t, snap.Discounts)
	assert.Equal(t, "3000", snap.TotalAmount.String())
	assert.Equal(t, "EUR", snap.Currency)
}

func TestCalculatePricingKeepsFractionalCents(t *testing.T) {
	pricing := domain.TourPricing{
		BasePrice:      decimal.RequireFromString("333.33"),
		GroupDiscounts: []domain.GroupDiscount{{MinSize: 1, Discount: decimal.RequireFromString("12.5")}},
	}
	snap := CalculatePricing(pricing, domain.TravelerCounts{Adults: 1})
	assert.Equal(t, "41.66625", snap.Discounts[0].Amount.String())
	assert.Equal(t, "291.66375", snap.TotalAmount.String())
	assert.True(t, snap.BaseAmount.Sub(snap.Discounts[0].Amount).Equal(snap.TotalAmount))
}

var referencePattern = regexp.MustCompile(`^EA\d{6}[A-Z0-9]{4}$`)

func TestNewBookingReference(t *testing.T) {
	at := time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC)
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		ref, err := NewBookingReference(at)
		require.NoError(t, err)
		assert.Regexp(t, referencePattern, ref)
		assert.Equal(t, "EA250314", ref[:8])
		seen[ref] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}

func TestNewPagination(t *testing.T) {
	page := PageRequest{Page: 2, Limit: 10}.normalize(20)
	assert.Equal(t, 10, page.offset())
	assert.Equal(t, Pagination{Current: 2, Pages: 2, Total: 15}, newPagination(page, 15))
	assert.Equal(t, Pagination{Current: 1, Pages: 0, Total: 0}, newPagination(PageRequest{}.normalize(20), 0))
}

func TestPageRequestClampsOversizedValues(t *testing.T) {
	page := PageRequest{Page: math.MaxInt, Limit: 5000}.normalize(20)
	assert.Equal(t, MaxPageLimit, page.Limit)
	assert.Equal(t, MaxPage, page.Page)
	assert.Positive(t, page.offset())
	assert.LessOrEqual(t, page.offset(), math.MaxInt32)
}
