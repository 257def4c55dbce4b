package repository

import (
	"context"

	"github.com/playforge/gamestore/internal/domain"
)

// GameRepository defines persistence operations for catalog games. The store
// behind it is authoritative: search reads may lag it, store reads never do.
type GameRepository interface {
	Create(ctx context.Context, game *domain.Game) error
	GetByID(ctx context.Context, id string) (*domain.Game, error)
	List(ctx context.Context) ([]domain.Game, error)
	Update(ctx context.Context, game *domain.Game) error
	Delete(ctx context.Context, id string) error
}

// LibraryRepository defines persistence operations for ownership grants.
type LibraryRepository interface {
	// Grant inserts a library entry unless one already exists for the
	// (user, game) pair. It returns true when a new entry was created and
	// false when the grant was already present; both are success.
	Grant(ctx context.Context, entry *domain.LibraryEntry) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]domain.LibraryEntry, error)
}
