package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge/gamestore/internal/domain"
	"github.com/playforge/gamestore/pkg/database"
	apperrors "github.com/playforge/gamestore/pkg/errors"
)

func gameColumnsList() []string {
	return []string{"id", "title", "description", "category", "price", "sales_count", "created_at"}
}

func sampleGame() domain.Game {
	return domain.Game{
		ID:          "b2f7d9f0-3f64-4e9b-a6a6-0a2a2f8d9c11",
		Title:       "Hollow Knight",
		Description: "Explore a vast interconnected kingdom",
		Category:    "Metroidvania",
		Price:       14.99,
		SalesCount:  120,
		CreatedAt:   time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func gameRows(games ...domain.Game) *pgxmock.Rows {
	rows := pgxmock.NewRows(gameColumnsList())
	for _, g := range games {
		rows.AddRow(g.ID, g.Title, g.Description, g.Category, g.Price, g.SalesCount, g.CreatedAt)
	}
	return rows
}

func newGameRepo(t *testing.T) (*GameRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewGameRepository(mock), mock
}

func TestGameCreate(t *testing.T) {
	repo, mock := newGameRepo(t)
	g := sampleGame()

	mock.ExpectExec("INSERT INTO games").
		WithArgs(g.ID, g.Title, g.Description, g.Category, g.Price, g.SalesCount, g.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), &g))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGameCreateDuplicateID(t *testing.T) {
	repo, mock := newGameRepo(t)
	g := sampleGame()

	mock.ExpectExec("INSERT INTO games").
		WithArgs(g.ID, g.Title, g.Description, g.Category, g.Price, g.SalesCount, g.CreatedAt).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "games_pkey" (SQLSTATE 23505)`))

	err := repo.Create(context.Background(), &g)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestGameCreateStoreDown(t *testing.T) {
	repo, mock := newGameRepo(t)
	g := sampleGame()

	mock.ExpectExec("INSERT INTO games").
		WithArgs(g.ID, g.Title, g.Description, g.Category, g.Price, g.SalesCount, g.CreatedAt).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), &g)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}

func TestGameGetByID(t *testing.T) {
	repo, mock := newGameRepo(t)
	g := sampleGame()

	mock.ExpectQuery("SELECT (.+) FROM games WHERE id").
		WithArgs(g.ID).
		WillReturnRows(gameRows(g))

	got, err := repo.GetByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, &g, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGameGetByIDNotFound(t *testing.T) {
	repo, mock := newGameRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM games WHERE id").
		WithArgs("missing-id").
		WillReturnRows(gameRows())

	_, err := repo.GetByID(context.Background(), "missing-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGameList(t *testing.T) {
	repo, mock := newGameRepo(t)
	g1 := sampleGame()
	g2 := sampleGame()
	g2.ID = "0f1a8c77-5a2e-4f5e-9d34-82a1c5a7e6b2"
	g2.Title = "Celeste"

	mock.ExpectQuery("SELECT (.+) FROM games ORDER BY created_at ASC").
		WillReturnRows(gameRows(g1, g2))

	games, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, g1, games[0])
	assert.Equal(t, g2, games[1])
}

func TestGameListEmpty(t *testing.T) {
	repo, mock := newGameRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM games ORDER BY created_at ASC").
		WillReturnRows(gameRows())

	games, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, games)
	assert.Empty(t, games)
}

func TestGameUpdate(t *testing.T) {
	repo, mock := newGameRepo(t)
	g := sampleGame()

	mock.ExpectExec("UPDATE games").
		WithArgs(g.Title, g.Description, g.Category, g.Price, g.SalesCount, g.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), &g))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGameUpdateNotFound(t *testing.T) {
	repo, mock := newGameRepo(t)
	g := sampleGame()

	mock.ExpectExec("UPDATE games").
		WithArgs(g.Title, g.Description, g.Category, g.Price, g.SalesCount, g.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), &g)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGameDelete(t *testing.T) {
	repo, mock := newGameRepo(t)

	mock.ExpectExec("DELETE FROM games").
		WithArgs("some-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.Delete(context.Background(), "some-id"))
}

func TestGameDeleteNotFound(t *testing.T) {
	repo, mock := newGameRepo(t)

	mock.ExpectExec("DELETE FROM games").
		WithArgs("missing-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
