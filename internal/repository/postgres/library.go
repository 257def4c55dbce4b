package postgres

import (
	"context"
	"fmt"

	"github.com/playforge/gamestore/internal/domain"
	"github.com/playforge/gamestore/pkg/database"
	apperrors "github.com/playforge/gamestore/pkg/errors"
)

// LibraryRepository implements repository.LibraryRepository using PostgreSQL.
type LibraryRepository struct {
	pool database.DBTX
}

// NewLibraryRepository creates a new PostgreSQL-backed library repository.
func NewLibraryRepository(pool database.DBTX) *LibraryRepository {
	return &LibraryRepository{pool: pool}
}

// Grant inserts a library entry for (user, game) unless one already exists.
// The unique index on (user_id, game_id) makes this the idempotency point for
// at-least-once payment approvals: redelivered approvals hit the conflict
// branch and report success without a second row.
func (r *LibraryRepository) Grant(ctx context.Context, e *domain.LibraryEntry) (bool, error) {
	query := `
		INSERT INTO library_entries (id, user_id, game_id, purchased_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, game_id) DO NOTHING`

	ct, err := r.pool.Exec(ctx, query,
		e.ID,
		e.UserID,
		e.GameID,
		e.PurchasedAt,
	)
	if err != nil {
		return false, apperrors.StoreUnavailable(fmt.Errorf("insert library entry: %w", err))
	}

	return ct.RowsAffected() > 0, nil
}

// ListByUser returns every library entry owned by the given user, most recent
// purchase first.
func (r *LibraryRepository) ListByUser(ctx context.Context, userID string) ([]domain.LibraryEntry, error) {
	query := `
		SELECT id, user_id, game_id, purchased_at
		FROM library_entries
		WHERE user_id = $1
		ORDER BY purchased_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, apperrors.StoreUnavailable(fmt.Errorf("list library entries: %w", err))
	}
	defer rows.Close()

	var entries []domain.LibraryEntry
	for rows.Next() {
		var e domain.LibraryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.GameID, &e.PurchasedAt); err != nil {
			return nil, fmt.Errorf("scan library entry row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreUnavailable(fmt.Errorf("iterate library entry rows: %w", err))
	}

	if entries == nil {
		entries = []domain.LibraryEntry{}
	}

	return entries, nil
}
