package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/playforge/gamestore/internal/domain"
	"github.com/playforge/gamestore/pkg/database"
	apperrors "github.com/playforge/gamestore/pkg/errors"
)

// gameColumns is the standard SELECT column list for games.
const gameColumns = `id, title, description, category, price, sales_count, created_at`

// GameRepository implements repository.GameRepository using PostgreSQL.
type GameRepository struct {
	pool database.DBTX
}

// NewGameRepository creates a new PostgreSQL-backed game repository.
func NewGameRepository(pool database.DBTX) *GameRepository {
	return &GameRepository{pool: pool}
}

// Create inserts a new game into the database.
func (r *GameRepository) Create(ctx context.Context, g *domain.Game) error {
	query := `
		INSERT INTO games (id, title, description, category, price, sales_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		g.ID,
		g.Title,
		g.Description,
		g.Category,
		g.Price,
		g.SalesCount,
		g.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("game", "id", g.ID)
		}
		return apperrors.StoreUnavailable(fmt.Errorf("insert game: %w", err))
	}

	return nil
}

// GetByID retrieves a game by its ID.
func (r *GameRepository) GetByID(ctx context.Context, id string) (*domain.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	var g domain.Game
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&g.ID,
		&g.Title,
		&g.Description,
		&g.Category,
		&g.Price,
		&g.SalesCount,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("game", id)
		}
		return nil, apperrors.StoreUnavailable(fmt.Errorf("scan game: %w", err))
	}

	return &g, nil
}

// List returns every game in the store, oldest first. Used by the resync pass.
func (r *GameRepository) List(ctx context.Context) ([]domain.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.StoreUnavailable(fmt.Errorf("list games: %w", err))
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		var g domain.Game
		if err := rows.Scan(
			&g.ID,
			&g.Title,
			&g.Description,
			&g.Category,
			&g.Price,
			&g.SalesCount,
			&g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreUnavailable(fmt.Errorf("iterate game rows: %w", err))
	}

	if games == nil {
		games = []domain.Game{}
	}

	return games, nil
}

// Update modifies an existing game. Plain UPDATE by id: last write wins.
func (r *GameRepository) Update(ctx context.Context, g *domain.Game) error {
	query := `
		UPDATE games
		SET title = $1, description = $2, category = $3, price = $4, sales_count = $5
		WHERE id = $6`

	ct, err := r.pool.Exec(ctx, query,
		g.Title,
		g.Description,
		g.Category,
		g.Price,
		g.SalesCount,
		g.ID,
	)
	if err != nil {
		return apperrors.StoreUnavailable(fmt.Errorf("update game: %w", err))
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("game", g.ID)
	}

	return nil
}

// Delete removes a game from the database by its ID.
func (r *GameRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM games WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return apperrors.StoreUnavailable(fmt.Errorf("delete game: %w", err))
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("game", id)
	}

	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
