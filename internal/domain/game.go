package domain

import (
	"fmt"
	"time"

	apperrors "github.com/playforge/gamestore/pkg/errors"
)

// Field limits enforced by the catalog store schema.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 500
	MaxCategoryLen    = 100
)

// Game represents a purchasable catalog item. The catalog store owns it; the
// search index holds a derived copy keyed by the same ID that may lag behind
// the store until the next successful projection.
type Game struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	SalesCount  int       `json:"sales_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the invariants the catalog store enforces on a game.
func (g *Game) Validate() error {
	if g.Title == "" {
		return apperrors.InvalidInput("title is required")
	}
	if len(g.Title) > MaxTitleLen {
		return apperrors.InvalidInput(fmt.Sprintf("title must be at most %d characters", MaxTitleLen))
	}
	if len(g.Description) > MaxDescriptionLen {
		return apperrors.InvalidInput(fmt.Sprintf("description must be at most %d characters", MaxDescriptionLen))
	}
	if g.Category == "" {
		return apperrors.InvalidInput("category is required")
	}
	if len(g.Category) > MaxCategoryLen {
		return apperrors.InvalidInput(fmt.Sprintf("category must be at most %d characters", MaxCategoryLen))
	}
	if g.Price < 0 {
		return apperrors.InvalidInput("price must not be negative")
	}
	if g.SalesCount < 0 {
		return apperrors.InvalidInput("sales count must not be negative")
	}
	return nil
}

// CategoryCount is a derived popularity metric: the number of indexed games
// in a category. Computed on demand from the index, never persisted.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
