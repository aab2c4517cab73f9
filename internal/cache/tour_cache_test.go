package cache

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

func sampleTour() *domain.TourPackage {
	return &domain.TourPackage{
		ID:       "7f1c",
		Name:     "Serengeti Classic",
		Category: domain.CategorySafari,
		Circuit:  domain.CircuitNorthern,
		Pricing:  domain.TourPricing{BasePrice: decimal.RequireFromString("1250.50"), Currency: "USD"},
		SEO:      domain.SEO{Slug: "serengeti-classic"},
		IsActive: true,
	}
}

func TestTourCacheSetAndGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewTourCache(client, 5*time.Minute, nil)
	tour := sampleTour()
	payload, err := json.Marshal(tour)
	require.NoError(t, err)

	mock.ExpectSet("tour:7f1c", payload, 5*time.Minute).SetVal("OK")
	c.Set(context.Background(), tour)

	mock.ExpectGet("tour:7f1c").SetVal(string(payload))
	got, ok := c.Get(context.Background(), "7f1c")
	require.True(t, ok)
	assert.Equal(t, "Serengeti Classic", got.Name)
	assert.Equal(t, "1250.5", got.Pricing.BasePrice.String())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTourCacheMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewTourCache(client, time.Minute, nil)

	mock.ExpectGet("tour:missing").RedisNil()
	_, ok := c.Get(context.Background(), "missing")
	assert.False(t, ok)

	mock.ExpectGet("tour:down").SetErr(errors.New("connection refused"))
	_, ok = c.Get(context.Background(), "down")
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTourCacheDropsCorruptEntry(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewTourCache(client, time.Minute, nil)

	mock.ExpectGet("tour:bad").SetVal("{not json")
	mock.ExpectDel("tour:bad").SetVal(1)
	_, ok := c.Get(context.Background(), "bad")
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTourCacheInvalidate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewTourCache(client, time.Minute, nil)

	mock.ExpectDel("tour:7f1c").SetVal(1)
	c.Invalidate(context.Background(), "7f1c")

	require.NoError(t, mock.ExpectationsWereMet())
}
