package search

import (
	"context"

	"github.com/playforge/gamestore/internal/domain"
)

// Projector owns the denormalized search index derived from the catalog
// store: its schema, every write into it, and every query against it.
// Implementations may use Elasticsearch or in-memory storage.
type Projector interface {
	// BootstrapIndex creates the index with its schema if it does not exist.
	// Idempotent; safe to call on every process start.
	BootstrapIndex(ctx context.Context) error

	// Project upserts the document keyed by the game's ID, replacing it
	// entirely. It lazily creates the index if missing.
	Project(ctx context.Context, game *domain.Game) error

	// Remove deletes a game's document from the index. Removing an absent
	// document is not an error.
	Remove(ctx context.Context, id string) error

	// SearchAll returns every indexed game.
	SearchAll(ctx context.Context) ([]domain.Game, error)

	// SearchByTitle returns games whose title fuzzily matches the query,
	// ranked by relevance.
	SearchByTitle(ctx context.Context, query string) ([]domain.Game, error)

	// TopSelling returns up to limit games sorted by sales count descending.
	// A limit of zero or less yields an empty slice.
	TopSelling(ctx context.Context, limit int) ([]domain.Game, error)

	// MaxSalesCount returns the sales count of the single top-selling game.
	// The boolean is false when the index holds no games.
	MaxSalesCount(ctx context.Context) (int, bool, error)

	// PopularCategories returns per-category document counts ordered by
	// count descending, truncated to topN.
	PopularCategories(ctx context.Context, topN int) ([]domain.CategoryCount, error)

	// RecommendationsFor returns games whose category is in the given set.
	RecommendationsFor(ctx context.Context, categories []string) ([]domain.Game, error)

	// Ping checks whether the index backend is reachable.
	Ping(ctx context.Context) error
}

// DefaultPopularCategories is the bucket count used when a caller does not
// specify one.
const DefaultPopularCategories = 10
