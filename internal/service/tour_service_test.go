package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/repository/repotest"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

type memoryTourCache struct {
	items       map[string]domain.TourPackage
	hits        int
	invalidated []string
}

func newMemoryTourCache() *memoryTourCache {
	return &memoryTourCache{items: map[string]domain.TourPackage{}}
}

func (c *memoryTourCache) Get(_ context.Context, id string) (*domain.TourPackage, bool) {
	tour, ok := c.items[id]
	if ok {
		c.hits++
	}
	return &tour, ok
}

func (c *memoryTourCache) Set(_ context.Context, tour *domain.TourPackage) {
	c.items[tour.ID] = *tour
}

func (c *memoryTourCache) Invalidate(_ context.Context, id string) {
	delete(c.items, id)
	c.invalidated = append(c.invalidated, id)
}

func newTour(name string) *domain.TourPackage {
	return &domain.TourPackage{
		Name:        name,
		Description: "Five days across the northern parks",
		Category:    domain.CategorySafari,
		Circuit:     domain.CircuitNorthern,
		Duration:    domain.TourDuration{Days: 5, Nights: 4},
		Pricing:     domain.TourPricing{BasePrice: decimal.NewFromInt(1500)},
		IsActive:    true,
	}
}

func TestCreateTourDerivesSlugAndDefaults(t *testing.T) {
	svc := NewTourService(repotest.NewTours(), nil, nil)
	admin := &domain.Account{ID: "admin-1", Role: domain.RoleAdmin}

	tour, err := svc.Create(context.Background(), admin, newTour("Kili & Climb"))
	require.NoError(t, err)
	assert.Equal(t, "kili--climb", tour.SEO.Slug)
	assert.Equal(t, "USD", tour.Pricing.Currency)
	assert.Equal(t, 1, tour.Availability.MinGroupSize)
	assert.Equal(t, "admin-1", tour.CreatedBy)

	explicit := newTour("Another Name")
	explicit.SEO.Slug = "custom-slug"
	tour, err = svc.Create(context.Background(), admin, explicit)
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", tour.SEO.Slug)

	_, err = svc.Create(context.Background(), admin, newTour("Kili & Climb"))
	assertStatus(t, err, http.StatusBadRequest)
}

func TestCreateTourValidation(t *testing.T) {
	svc := NewTourService(repotest.NewTours(), nil, nil)
	bad := newTour("")
	bad.Category = "space"
	bad.Duration.Days = 0
	bad.Pricing.GroupDiscounts = []domain.GroupDiscount{{MinSize: 2, Discount: decimal.NewFromInt(120)}}

	_, err := svc.Create(context.Background(), nil, bad)
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus)

	fields := map[string]bool{}
	for _, fe := range domainErr.Details.([]apperrors.FieldError) {
		fields[fe.Field] = true
	}
	for _, want := range []string{"name", "category", "duration", "pricing.groupDiscounts", "seo.slug"} {
		assert.True(t, fields[want], want)
	}
}

func TestGetTourUsesCache(t *testing.T) {
	cache := newMemoryTourCache()
	svc := NewTourService(repotest.NewTours(), cache, nil)
	ctx := context.Background()
	tour, err := svc.Create(ctx, nil, newTour("Serengeti"))
	require.NoError(t, err)

	_, err = svc.Get(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.hits)

	got, err := svc.Get(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, "Serengeti", got.Name)

	_, err = svc.Update(ctx, tour.ID, func(t *domain.TourPackage) error {
		t.Name = "Serengeti Deluxe"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{tour.ID}, cache.invalidated)

	got, err = svc.Get(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, "Serengeti Deluxe", got.Name)
}

func TestUpdateTourKeepsSlugWhenEmptied(t *testing.T) {
	svc := NewTourService(repotest.NewTours(), nil, nil)
	ctx := context.Background()
	tour, err := svc.Create(ctx, nil, newTour("Ngorongoro Day Trip"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, tour.ID, func(t *domain.TourPackage) error {
		t.SEO = domain.SEO{MetaTitle: "Crater"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ngorongoro-day-trip", updated.SEO.Slug)
	assert.Equal(t, "Crater", updated.SEO.MetaTitle)

	_, err = svc.Update(ctx, "missing", func(*domain.TourPackage) error { return nil })
	assertStatus(t, err, http.StatusNotFound)
}

func TestListToursFiltersAndPaginates(t *testing.T) {
	tours := repotest.NewTours()
	svc := NewTourService(tours, nil, nil)
	ctx := context.Background()
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		_, err := svc.Create(ctx, nil, newTour(name))
		require.NoError(t, err)
	}
	beach := newTour("Zanzibar Sands")
	beach.Category = domain.CategoryBeach
	beach.Circuit = domain.CircuitZanzibar
	beach.IsFeatured = true
	_, err := svc.Create(ctx, nil, beach)
	require.NoError(t, err)

	category := domain.CategoryBeach
	list, pagination, err := svc.List(ctx, TourListFilter{Category: &category})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Zanzibar Sands", list[0].Name)
	assert.Equal(t, 1, pagination.Total)

	list, pagination, err = svc.List(ctx, TourListFilter{PageRequest: PageRequest{Page: 2, Limit: 3}})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, Pagination{Current: 2, Pages: 2, Total: 4}, pagination)

	featured, err := svc.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 1)

	bySlug, err := svc.GetBySlug(ctx, "Zanzibar-Sands")
	require.NoError(t, err)
	assert.Equal(t, beach.ID, bySlug.ID)

	require.NoError(t, svc.Delete(ctx, beach.ID))
	_, err = svc.GetBySlug(ctx, "zanzibar-sands")
	assertStatus(t, err, http.StatusNotFound)
	featured, err = svc.Featured(ctx)
	require.NoError(t, err)
	assert.Empty(t, featured)

	assertStatus(t, svc.Delete(ctx, "missing"), http.StatusNotFound)
}
