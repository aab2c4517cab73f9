package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/tourism-service/internal/domain"
)

// TourFilter captures catalog listing parameters.
type TourFilter struct {
	Category     *domain.TourCategory
	Circuit      *domain.Circuit
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	DurationDays *int
	Featured     *bool
	Search       string
	Sort         string
	ActiveOnly   bool
	Page         Page
}

var tourSortColumns = map[string]string{
	"createdAt": "created_at",
	"price":     "base_price",
	"name":      "name",
	"duration":  "duration_days",
	"rating":    "COALESCE((reviews->>'averageRating')::numeric, 0)",
}

// TourSortKeys lists accepted sort keys without direction prefix.
func TourSortKeys() []string {
	keys := make([]string, 0, len(tourSortColumns))
	for k := range tourSortColumns {
		keys = append(keys, k)
	}
	return keys
}

// TourRepository encapsulates catalog persistence.
type TourRepository interface {
	Create(ctx context.Context, tour *domain.TourPackage) error
	Update(ctx context.Context, tour *domain.TourPackage) error
	GetByID(ctx context.Context, id string) (*domain.TourPackage, error)
	GetActiveByID(ctx context.Context, id string) (*domain.TourPackage, error)
	GetActiveBySlug(ctx context.Context, slug string) (*domain.TourPackage, error)
	List(ctx context.Context, filter TourFilter) ([]domain.TourPackage, int, error)
	ListFeatured(ctx context.Context, limit int) ([]domain.TourPackage, error)
	Deactivate(ctx context.Context, id string) error
}

type tourRepository struct {
	db DB
}

// NewTourRepository instantiates repository.
func NewTourRepository(db DB) TourRepository {
	return &tourRepository{db: db}
}

const tourColumns = `id, name, description, short_description, category, circuit, destinations,
               duration_days, duration_nights, pricing, availability, inclusions, itinerary, media,
               requirements, reviews, seo, slug, is_active, is_featured, created_by, created_at, updated_at`

func (r *tourRepository) Create(ctx context.Context, tour *domain.TourPackage) error {
	const query = `
        INSERT INTO tour_packages (name, description, short_description, category, circuit, destinations,
            duration_days, duration_nights, pricing, base_price, availability, inclusions, itinerary, media,
            requirements, reviews, seo, slug, is_active, is_featured, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::numeric,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
        RETURNING id, created_at, updated_at`

	var createdBy *string
	if tour.CreatedBy != "" {
		createdBy = &tour.CreatedBy
	}
	err := r.db.QueryRow(ctx, query,
		tour.Name,
		tour.Description,
		tour.ShortDescription,
		tour.Category,
		tour.Circuit,
		tour.Destinations,
		tour.Duration.Days,
		tour.Duration.Nights,
		tour.Pricing,
		tour.Pricing.BasePrice.String(),
		tour.Availability,
		tour.Inclusions,
		tour.Itinerary,
		tour.Media,
		tour.Requirements,
		tour.Reviews,
		tour.SEO,
		tour.SEO.Slug,
		tour.IsActive,
		tour.IsFeatured,
		createdBy,
	).Scan(&tour.ID, &tour.CreatedAt, &tour.UpdatedAt)
	return translateError(err)
}

func (r *tourRepository) Update(ctx context.Context, tour *domain.TourPackage) error {
	const query = `
        UPDATE tour_packages SET name=$1, description=$2, short_description=$3, category=$4, circuit=$5,
            destinations=$6, duration_days=$7, duration_nights=$8, pricing=$9, base_price=$10::numeric,
            availability=$11, inclusions=$12, itinerary=$13, media=$14, requirements=$15, seo=$16,
            slug=$17, is_active=$18, is_featured=$19, updated_at=NOW()
        WHERE id=$20
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		tour.Name,
		tour.Description,
		tour.ShortDescription,
		tour.Category,
		tour.Circuit,
		tour.Destinations,
		tour.Duration.Days,
		tour.Duration.Nights,
		tour.Pricing,
		tour.Pricing.BasePrice.String(),
		tour.Availability,
		tour.Inclusions,
		tour.Itinerary,
		tour.Media,
		tour.Requirements,
		tour.SEO,
		tour.SEO.Slug,
		tour.IsActive,
		tour.IsFeatured,
		tour.ID,
	).Scan(&tour.UpdatedAt)
	return translateError(err)
}

func (r *tourRepository) GetByID(ctx context.Context, id string) (*domain.TourPackage, error) {
	query := `SELECT ` + tourColumns + ` FROM tour_packages WHERE id=$1`
	return scanTour(r.db.QueryRow(ctx, query, id))
}

func (r *tourRepository) GetActiveByID(ctx context.Context, id string) (*domain.TourPackage, error) {
	query := `SELECT ` + tourColumns + ` FROM tour_packages WHERE id=$1 AND is_active`
	return scanTour(r.db.QueryRow(ctx, query, id))
}

func (r *tourRepository) GetActiveBySlug(ctx context.Context, slug string) (*domain.TourPackage, error) {
	query := `SELECT ` + tourColumns + ` FROM tour_packages WHERE slug=$1 AND is_active`
	return scanTour(r.db.QueryRow(ctx, query, slug))
}

func (r *tourRepository) List(ctx context.Context, filter TourFilter) ([]domain.TourPackage, int, error) {
	where := buildTourWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tour_packages`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page.withDefault(10)
	query := fmt.Sprintf(`SELECT %s FROM tour_packages%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		tourColumns, where.sql(), tourOrderBy(filter.Sort), where.next(), where.next()+1)
	args := append(where.args, page.Limit, page.Offset)

	tours, err := r.queryTours(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return tours, total, nil
}

func (r *tourRepository) ListFeatured(ctx context.Context, limit int) ([]domain.TourPackage, error) {
	query := `SELECT ` + tourColumns + ` FROM tour_packages
        WHERE is_active AND is_featured ORDER BY created_at DESC LIMIT $1`
	return r.queryTours(ctx, query, limit)
}

func (r *tourRepository) Deactivate(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE tour_packages SET is_active=false, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tourRepository) queryTours(ctx context.Context, query string, args ...any) ([]domain.TourPackage, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tours []domain.TourPackage
	for rows.Next() {
		tour, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, *tour)
	}
	return tours, rows.Err()
}

func buildTourWhere(filter TourFilter) *whereBuilder {
	where := &whereBuilder{}
	if filter.ActiveOnly {
		where.raw("is_active")
	}
	if filter.Category != nil {
		where.add("category=$%d", *filter.Category)
	}
	if filter.Circuit != nil {
		where.add("circuit=$%d", *filter.Circuit)
	}
	if filter.MinPrice != nil {
		where.add("base_price >= $%d::numeric", filter.MinPrice.String())
	}
	if filter.MaxPrice != nil {
		where.add("base_price <= $%d::numeric", filter.MaxPrice.String())
	}
	if filter.DurationDays != nil {
		where.add("duration_days=$%d", *filter.DurationDays)
	}
	if filter.Featured != nil {
		where.add("is_featured=$%d", *filter.Featured)
	}
	where.search(filter.Search,
		"name",
		"description",
		"short_description",
		"EXISTS (SELECT 1 FROM jsonb_array_elements(destinations) d WHERE d->>'name' ILIKE $%d)")
	return where
}

// tourOrderBy maps a sort key such as "-price" to an ORDER BY expression.
// Unknown keys fall back to creation time.
func tourOrderBy(sort string) string {
	direction := "ASC"
	key := strings.TrimSpace(sort)
	if strings.HasPrefix(key, "-") {
		direction = "DESC"
		key = key[1:]
	}
	column, ok := tourSortColumns[key]
	if !ok {
		column = "created_at"
	}
	return column + " " + direction + ", id " + direction
}

func scanTour(row pgx.Row) (*domain.TourPackage, error) {
	var (
		tour      domain.TourPackage
		slug      string
		createdBy *string
	)
	if err := row.Scan(
		&tour.ID,
		&tour.Name,
		&tour.Description,
		&tour.ShortDescription,
		&tour.Category,
		&tour.Circuit,
		&tour.Destinations,
		&tour.Duration.Days,
		&tour.Duration.Nights,
		&tour.Pricing,
		&tour.Availability,
		&tour.Inclusions,
		&tour.Itinerary,
		&tour.Media,
		&tour.Requirements,
		&tour.Reviews,
		&tour.SEO,
		&slug,
		&tour.IsActive,
		&tour.IsFeatured,
		&createdBy,
		&tour.CreatedAt,
		&tour.UpdatedAt,
	); err != nil {
		return nil, err
	}
	tour.SEO.Slug = slug
	if createdBy != nil {
		tour.CreatedBy = *createdBy
	}
	return &tour, nil
}
