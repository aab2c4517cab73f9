package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/repository"
	apperrors "github.com/spec-kit/tourism-service/pkg/util/errorutil"
)

const (
	featuredTourLimit       = 8
	maxShortDescriptionSize = 200
	tourNotFound            = "Tour package not found"
)

// TourCache stores public tour detail. Implementations swallow their own
// failures; a miss simply falls through to the database.
type TourCache interface {
	Get(ctx context.Context, id string) (*domain.TourPackage, bool)
	Set(ctx context.Context, tour *domain.TourPackage)
	Invalidate(ctx context.Context, id string)
}

// TourService manages the catalog.
type TourService struct {
	tours  repository.TourRepository
	cache  TourCache
	logger *zap.Logger
}

// NewTourService builds the service. cache may be nil.
func NewTourService(tours repository.TourRepository, cache TourCache, logger *zap.Logger) *TourService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TourService{tours: tours, cache: cache, logger: logger}
}

// TourListFilter holds the public catalog filters.
type TourListFilter struct {
	Category     *domain.TourCategory
	Circuit      *domain.Circuit
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	DurationDays *int
	Featured     *bool
	Search       string
	Sort         string
	PageRequest
}

// List returns active packages only.
func (s *TourService) List(ctx context.Context, filter TourListFilter) ([]domain.TourPackage, Pagination, error) {
	page := filter.PageRequest.normalize(10)
	tours, total, err := s.tours.List(ctx, repository.TourFilter{
		Category:     filter.Category,
		Circuit:      filter.Circuit,
		MinPrice:     filter.MinPrice,
		MaxPrice:     filter.MaxPrice,
		DurationDays: filter.DurationDays,
		Featured:     filter.Featured,
		Search:       filter.Search,
		Sort:         filter.Sort,
		ActiveOnly:   true,
		Page:         repository.Page{Limit: page.Limit, Offset: page.offset()},
	})
	if err != nil {
		return nil, Pagination{}, apperrors.NewInternalError(err)
	}
	if tours == nil {
		tours = []domain.TourPackage{}
	}
	return tours, newPagination(page, total), nil
}

func (s *TourService) Featured(ctx context.Context) ([]domain.TourPackage, error) {
	tours, err := s.tours.ListFeatured(ctx, featuredTourLimit)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if tours == nil {
		tours = []domain.TourPackage{}
	}
	return tours, nil
}

// Get returns an active package, serving from cache when possible.
func (s *TourService) Get(ctx context.Context, id string) (*domain.TourPackage, error) {
	if s.cache != nil {
		if tour, ok := s.cache.Get(ctx, id); ok {
			return tour, nil
		}
	}
	tour, err := s.tours.GetActiveByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, tourNotFound)
	}
	if s.cache != nil {
		s.cache.Set(ctx, tour)
	}
	return tour, nil
}

func (s *TourService) GetBySlug(ctx context.Context, slug string) (*domain.TourPackage, error) {
	tour, err := s.tours.GetActiveBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, notFoundOr(err, tourNotFound)
	}
	return tour, nil
}

// Create stores a new package. The slug is derived from the name only when
// none was supplied.
func (s *TourService) Create(ctx context.Context, actor *domain.Account, tour *domain.TourPackage) (*domain.TourPackage, error) {
	applyTourDefaults(tour)
	if tour.SEO.Slug == "" {
		tour.SEO.Slug = domain.Slugify(tour.Name)
	}
	if actor != nil {
		tour.CreatedBy = actor.ID
	}
	if err := validateTour(tour); err != nil {
		return nil, err
	}

	if err := s.tours.Create(ctx, tour); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.NewConflict("A tour package with this slug already exists", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("tour package created", zap.String("tour_id", tour.ID), zap.String("slug", tour.SEO.Slug))
	return tour, nil
}

// Update loads the package, lets apply overwrite the whitelisted fields and
// persists the result. An emptied slug keeps its previous value.
func (s *TourService) Update(ctx context.Context, id string, apply func(*domain.TourPackage) error) (*domain.TourPackage, error) {
	tour, err := s.tours.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, tourNotFound)
	}
	slug := tour.SEO.Slug

	if err := apply(tour); err != nil {
		return nil, err
	}
	if tour.SEO.Slug == "" {
		tour.SEO.Slug = slug
	}
	applyTourDefaults(tour)
	if err := validateTour(tour); err != nil {
		return nil, err
	}

	if err := s.tours.Update(ctx, tour); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.NewConflict("A tour package with this slug already exists", nil)
		}
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx, id)
	return tour, nil
}

// Delete hides the package from the public catalog. Bookings keep resolving it.
func (s *TourService) Delete(ctx context.Context, id string) error {
	if err := s.tours.Deactivate(ctx, id); err != nil {
		return notFoundOr(err, tourNotFound)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *TourService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func applyTourDefaults(tour *domain.TourPackage) {
	if tour.Pricing.Currency == "" {
		tour.Pricing.Currency = domain.DefaultCurrency
	}
	if tour.Availability.MinGroupSize == 0 {
		tour.Availability.MinGroupSize = 1
	}
}

func validateTour(tour *domain.TourPackage) error {
	var fields []apperrors.FieldError
	if strings.TrimSpace(tour.Name) == "" {
		fields = append(fields, apperrors.FieldError{Field: "name", Message: "name is required"})
	}
	if strings.TrimSpace(tour.Description) == "" {
		fields = append(fields, apperrors.FieldError{Field: "description", Message: "description is required"})
	}
	if len([]rune(tour.ShortDescription)) > maxShortDescriptionSize {
		fields = append(fields, apperrors.FieldError{Field: "shortDescription", Message: "shortDescription must be at most 200 characters"})
	}
	if !tour.Category.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "category", Message: "category is invalid"})
	}
	if !tour.Circuit.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "circuit", Message: "circuit is invalid"})
	}
	if tour.Duration.Days < 1 || tour.Duration.Nights < 0 {
		fields = append(fields, apperrors.FieldError{Field: "duration", Message: "duration must be at least one day"})
	}
	if tour.Pricing.BasePrice.IsNegative() {
		fields = append(fields, apperrors.FieldError{Field: "pricing.basePrice", Message: "basePrice cannot be negative"})
	}
	for _, tier := range tour.Pricing.GroupDiscounts {
		if tier.MinSize < 1 || tier.Discount.IsNegative() || tier.Discount.GreaterThan(hundred) {
			fields = append(fields, apperrors.FieldError{Field: "pricing.groupDiscounts", Message: "group discounts need minSize >= 1 and a discount between 0 and 100"})
			break
		}
	}
	if tour.SEO.Slug == "" {
		fields = append(fields, apperrors.FieldError{Field: "seo.slug", Message: "slug could not be derived from name"})
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError("Validation failed", fields)
	}
	return nil
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(message)
	}
	return apperrors.NewInternalError(err)
}
