package service

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/tourism-service/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// CalculatePricing freezes the price of a party at the package's current
// rates. Infants travel free. Of all group tiers the party qualifies for, the
// one with the largest percentage wins, regardless of its minimum size.
// Amounts are exact; rounding is left to presentation.
func CalculatePricing(pricing domain.TourPricing, travelers domain.TravelerCounts) domain.PricingSnapshot {
	priced := travelers.Priced()
	base := pricing.BasePrice.Mul(decimal.NewFromInt(int64(priced)))

	currency := pricing.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	snapshot := domain.PricingSnapshot{
		BaseAmount:  base,
		Discounts:   []domain.Discount{},
		Extras:      []domain.Extra{},
		TotalAmount: base,
		Currency:    currency,
	}

	tier, ok := bestGroupDiscount(pricing.GroupDiscounts, priced)
	if !ok {
		return snapshot
	}
	amount := base.Mul(tier.Discount).Div(hundred)
	snapshot.Discounts = append(snapshot.Discounts, domain.Discount{
		Type:        domain.DiscountGroup,
		Amount:      amount,
		Description: fmt.Sprintf("Group discount for %d travelers", priced),
	})
	snapshot.TotalAmount = base.Sub(amount)
	return snapshot
}

func bestGroupDiscount(tiers []domain.GroupDiscount, partySize int) (domain.GroupDiscount, bool) {
	sorted := append([]domain.GroupDiscount(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Discount.GreaterThan(sorted[j].Discount)
	})
	for _, tier := range sorted {
		if tier.MinSize <= partySize && tier.Discount.IsPositive() {
			return tier, true
		}
	}
	return domain.GroupDiscount{}, false
}
