package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playforge/gamestore/internal/domain"
	"github.com/playforge/gamestore/internal/search"
	apperrors "github.com/playforge/gamestore/pkg/errors"
)

// QueryService serves read traffic from the search index.
type QueryService struct {
	projector search.Projector
	logger    *slog.Logger
}

func NewQueryService(projector search.Projector, logger *slog.Logger) *QueryService {
	return &QueryService{projector: projector, logger: logger}
}

// Search returns games whose title fuzzily matches the query.
func (s *QueryService) Search(ctx context.Context, title string) ([]domain.Game, error) {
	idxCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	games, err := s.projector.SearchByTitle(idxCtx, title)
	if err != nil {
		return nil, fmt.Errorf("search games: %w", err)
	}
	return games, nil
}

// TopSelling returns up to n games ordered by sales count descending. Any
// n larger than the catalog simply returns all games sorted.
func (s *QueryService) TopSelling(ctx context.Context, n int) ([]domain.Game, error) {
	idxCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	games, err := s.projector.TopSelling(idxCtx, n)
	if err != nil {
		return nil, fmt.Errorf("top selling games: %w", err)
	}
	return games, nil
}

// MaxSalesCount returns the highest sales count in the index, with ok=false
// for an empty index.
func (s *QueryService) MaxSalesCount(ctx context.Context) (int, bool, error) {
	idxCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	count, ok, err := s.projector.MaxSalesCount(idxCtx)
	if err != nil {
		return 0, false, fmt.Errorf("max sales count: %w", err)
	}
	return count, ok, nil
}

// PopularCategories returns the most populated categories.
func (s *QueryService) PopularCategories(ctx context.Context) ([]domain.CategoryCount, error) {
	idxCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	counts, err := s.projector.PopularCategories(idxCtx, search.DefaultPopularCategories)
	if err != nil {
		return nil, fmt.Errorf("popular categories: %w", err)
	}
	return counts, nil
}

// Recommendations returns games from the given categories. An empty category
// set is a caller error, not a match-nothing query.
func (s *QueryService) Recommendations(ctx context.Context, categories []string) ([]domain.Game, error) {
	if len(categories) == 0 {
		return nil, apperrors.InvalidInput("at least one category is required")
	}

	idxCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	games, err := s.projector.RecommendationsFor(idxCtx, categories)
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}
	return games, nil
}
