package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/playforge/gamestore/internal/domain"
	"github.com/playforge/gamestore/internal/repository"
	"github.com/playforge/gamestore/internal/search"
)

// Per-call timeouts for the two backends. Derived inside the service layer so
// each dependency gets its own deadline regardless of what the caller passed.
const (
	storeTimeout = 5 * time.Second
	indexTimeout = 5 * time.Second
)

// CreateGameInput carries the caller-supplied fields for a new game.
type CreateGameInput struct {
	Title       string
	Description string
	Category    string
	Price       float64
}

// UpdateGameInput carries a partial update. Nil fields are left unchanged.
type UpdateGameInput struct {
	Title       *string
	Description *string
	Category    *string
	Price       *float64
}

// CreateResult is the outcome of a create. Degraded is set when the game was
// persisted but could not be projected into the index; the catalog record is
// authoritative and a later resync heals the index.
type CreateResult struct {
	Game     *domain.Game
	Degraded bool
}

// ResyncResult reports how a full store-to-index rebuild went.
type ResyncResult struct {
	Total   int `json:"total"`
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

// CatalogService owns game lifecycle: writes go to the catalog store first,
// then to the search index.
type CatalogService struct {
	games     repository.GameRepository
	projector search.Projector
	logger    *slog.Logger
}

func NewCatalogService(games repository.GameRepository, projector search.Projector, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		games:     games,
		projector: projector,
		logger:    logger,
	}
}

// Create validates and persists a new game, then projects it into the index.
// A store failure fails the call; a projection failure does not, it only
// marks the result degraded.
func (s *CatalogService) Create(ctx context.Context, input CreateGameInput) (*CreateResult, error) {
	game := &domain.Game{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		SalesCount:  0,
		CreatedAt:   time.Now().UTC(),
	}
	if err := game.Validate(); err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.games.Create(storeCtx, game); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	degraded := !s.project(ctx, game, "create")
	return &CreateResult{Game: game, Degraded: degraded}, nil
}

// Get reads a game from the catalog store, the authoritative source.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Game, error) {
	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	game, err := s.games.GetByID(storeCtx, id)
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// Update loads the game, merges the changed fields, persists it, and
// re-projects the full document.
func (s *CatalogService) Update(ctx context.Context, id string, input UpdateGameInput) (*domain.Game, error) {
	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	game, err := s.games.GetByID(storeCtx, id)
	if err != nil {
		return nil, fmt.Errorf("update game: %w", err)
	}

	if input.Title != nil {
		game.Title = *input.Title
	}
	if input.Description != nil {
		game.Description = *input.Description
	}
	if input.Category != nil {
		game.Category = *input.Category
	}
	if input.Price != nil {
		game.Price = *input.Price
	}
	if err := game.Validate(); err != nil {
		return nil, err
	}

	if err := s.games.Update(storeCtx, game); err != nil {
		return nil, fmt.Errorf("update game: %w", err)
	}

	if !s.project(ctx, game, "update") {
		s.logger.WarnContext(ctx, "index lagging behind store after update", "game_id", game.ID)
	}
	return game, nil
}

// Delete removes the game from the store and, best effort, from the index.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := s.games.Delete(storeCtx, id); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}

	idxCtx, cancelIdx := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancelIdx()
	if err := s.projector.Remove(idxCtx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to remove game from index", "game_id", id, "error", err)
	}
	return nil
}

// List returns every indexed game. The index is the read path here; a game
// whose projection failed will not appear until the next resync.
func (s *CatalogService) List(ctx context.Context) ([]domain.Game, error) {
	idxCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	games, err := s.projector.SearchAll(idxCtx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// Resync reads every game from the store and re-projects it, continuing past
// per-item failures. An empty store is a successful no-op.
func (s *CatalogService) Resync(ctx context.Context) (*ResyncResult, error) {
	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	games, err := s.games.List(storeCtx)
	if err != nil {
		return nil, fmt.Errorf("resync: %w", err)
	}

	result := &ResyncResult{Total: len(games)}
	for i := range games {
		if s.project(ctx, &games[i], "resync") {
			result.Indexed++
		} else {
			result.Failed++
		}
	}

	s.logger.InfoContext(ctx, "catalog resync finished",
		"total", result.Total, "indexed", result.Indexed, "failed", result.Failed)
	return result, nil
}

// project pushes one game into the index and reports success. It detaches
// from the caller's cancellation so a dropped request cannot abort the
// projection of an already committed store write.
func (s *CatalogService) project(ctx context.Context, game *domain.Game, op string) bool {
	idxCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancel()

	if err := s.projector.Project(idxCtx, game); err != nil {
		s.logger.WarnContext(ctx, "failed to project game into index",
			"op", op, "game_id", game.ID, "error", err)
		return false
	}
	return true
}
