package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/okarpenko/retreathub-backend/internal/retreats"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
	"github.com/okarpenko/retreathub-backend/pkg/pagination"
)

type stubRetreatService struct {
	listFn   func(ctx context.Context, input retreats.ListInput) (*retreats.ListOutput, error)
	detailFn func(ctx context.Context, idOrSlug string) (*retreats.RetreatDetailDTO, error)
}

func (s stubRetreatService) List(ctx context.Context, input retreats.ListInput) (*retreats.ListOutput, error) {
	if s.listFn != nil {
		return s.listFn(ctx, input)
	}
	return &retreats.ListOutput{}, nil
}

func (s stubRetreatService) GetDetail(ctx context.Context, idOrSlug string) (*retreats.RetreatDetailDTO, error) {
	if s.detailFn != nil {
		return s.detailFn(ctx, idOrSlug)
	}
	return &retreats.RetreatDetailDTO{}, nil
}

func (s stubRetreatService) Create(context.Context, uuid.UUID, retreats.CreateRetreatInput) (*retreats.RetreatDetailDTO, error) {
	return nil, nil
}

func (s stubRetreatService) Update(context.Context, uuid.UUID, enums.UserRole, uuid.UUID, retreats.UpdateRetreatInput) (*retreats.RetreatDetailDTO, error) {
	return nil, nil
}

func (s stubRetreatService) Delete(context.Context, uuid.UUID, enums.UserRole, uuid.UUID) error {
	return nil
}

func (s stubRetreatService) ListByOrganizer(context.Context, uuid.UUID) ([]retreats.RetreatSummaryDTO, error) {
	return nil, nil
}

func (s stubRetreatService) SetVerified(context.Context, uuid.UUID, bool) error { return nil }
func (s stubRetreatService) SetFeatured(context.Context, uuid.UUID, bool) error { return nil }

func TestRetreatListLenientQueryParsing(t *testing.T) {
	categoryID := uuid.New()

	var captured retreats.ListInput
	svc := stubRetreatService{
		listFn: func(ctx context.Context, input retreats.ListInput) (*retreats.ListOutput, error) {
			captured = input
			return &retreats.ListOutput{Pagination: pagination.Meta{Page: 1, Limit: 12}}, nil
		},
	}

	handler := RetreatList(svc, logger.NewNop())
	target := "/?search=yoga&minPrice=abc&maxPrice=100.50&minAge=x&maxAge=65" +
		"&difficulty=beginner,bogus&categories=" + categoryID.String() + ",not-a-uuid" +
		"&page=2&limit=200&sortBy=popularity&sortOrder=asc"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	require.NotNil(t, captured.Filters.Search)
	require.Equal(t, "yoga", *captured.Filters.Search)

	// Malformed numerics vanish instead of failing the request.
	require.Nil(t, captured.Filters.MinPrice)
	require.NotNil(t, captured.Filters.MaxPrice)
	require.True(t, captured.Filters.MaxPrice.Equal(decimal.RequireFromString("100.50")))
	require.Nil(t, captured.Filters.MinAge)
	require.NotNil(t, captured.Filters.MaxAge)
	require.Equal(t, 65, *captured.Filters.MaxAge)

	require.Equal(t, []enums.Difficulty{enums.DifficultyBeginner}, captured.Filters.Difficulties)
	require.Equal(t, []uuid.UUID{categoryID}, captured.Filters.CategoryIDs)

	// Raw sort and paging flow through; normalization is the service's job.
	require.Equal(t, 2, captured.Pagination.Page)
	require.Equal(t, 200, captured.Pagination.Limit)
	require.Equal(t, "popularity", captured.SortBy)
	require.Equal(t, "asc", captured.SortOrder)
}

func TestRetreatListEmptyQuery(t *testing.T) {
	var captured retreats.ListInput
	svc := stubRetreatService{
		listFn: func(ctx context.Context, input retreats.ListInput) (*retreats.ListOutput, error) {
			captured = input
			return &retreats.ListOutput{}, nil
		},
	}

	handler := RetreatList(svc, logger.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Nil(t, captured.Filters.Search)
	require.Nil(t, captured.Filters.MinPrice)
	require.Empty(t, captured.Filters.Difficulties)
	require.Zero(t, captured.Pagination.Page)
	require.Zero(t, captured.Pagination.Limit)
}
