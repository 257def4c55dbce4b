package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge/gamestore/internal/domain"
	"github.com/playforge/gamestore/internal/search/memory"
	apperrors "github.com/playforge/gamestore/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// faultyProjector lets tests break the index while the store stays healthy.
type faultyProjector struct {
	*memory.Projector
	projectErr error
	removeErr  error
}

func (p *faultyProjector) Project(ctx context.Context, game *domain.Game) error {
	if p.projectErr != nil {
		return p.projectErr
	}
	return p.Projector.Project(ctx, game)
}

func (p *faultyProjector) Remove(ctx context.Context, id string) error {
	if p.removeErr != nil {
		return p.removeErr
	}
	return p.Projector.Remove(ctx, id)
}

func TestCatalogCreateGetRoundtrip(t *testing.T) {
	repo := newFakeGameRepo()
	idx := memory.New()
	svc := NewCatalogService(repo, idx, testLogger())

	result, err := svc.Create(context.Background(), CreateGameInput{
		Title:       "Celeste",
		Description: "A platformer about climbing a mountain",
		Category:    "Platformer",
		Price:       19.99,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Game)
	assert.False(t, result.Degraded)
	assert.NotEmpty(t, result.Game.ID)
	assert.Zero(t, result.Game.SalesCount)
	assert.False(t, result.Game.CreatedAt.IsZero())

	got, err := svc.Get(context.Background(), result.Game.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Game, got)

	// The create also became visible on the index read path.
	listed, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, result.Game.ID, listed[0].ID)
}

func TestCatalogCreateRejectsInvalidInput(t *testing.T) {
	repo := newFakeGameRepo()
	svc := NewCatalogService(repo, memory.New(), testLogger())

	tests := []struct {
		name  string
		input CreateGameInput
	}{
		{name: "missing title", input: CreateGameInput{Category: "RPG", Price: 10}},
		{name: "missing category", input: CreateGameInput{Title: "X", Price: 10}},
		{name: "negative price", input: CreateGameInput{Title: "X", Category: "RPG", Price: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Empty(t, repo.games)
		})
	}
}

func TestCatalogCreateDegradedOnProjectionFailure(t *testing.T) {
	repo := newFakeGameRepo()
	idx := &faultyProjector{Projector: memory.New(), projectErr: errors.New("index down")}
	svc := NewCatalogService(repo, idx, testLogger())

	result, err := svc.Create(context.Background(), CreateGameInput{
		Title:    "Outer Wilds",
		Category: "Adventure",
		Price:    24.99,
	})
	require.NoError(t, err)
	assert.True(t, result.Degraded)

	// Authoritative record exists even though the index missed it.
	got, err := svc.Get(context.Background(), result.Game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Outer Wilds", got.Title)
	assert.Equal(t, 0, idx.Len())
}

func TestCatalogUpdateMergesFields(t *testing.T) {
	repo := newFakeGameRepo()
	idx := memory.New()
	svc := NewCatalogService(repo, idx, testLogger())

	created, err := svc.Create(context.Background(), CreateGameInput{
		Title:       "Hades",
		Description: "Roguelike",
		Category:    "Action",
		Price:       24.99,
	})
	require.NoError(t, err)

	newPrice := 19.99
	updated, err := svc.Update(context.Background(), created.Game.ID, UpdateGameInput{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 19.99, updated.Price)
	assert.Equal(t, "Hades", updated.Title)
	assert.Equal(t, "Action", updated.Category)

	// Index holds the re-projected document.
	indexed, err := idx.SearchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, indexed, 1)
	assert.Equal(t, 19.99, indexed[0].Price)
}

func TestCatalogUpdateNotFound(t *testing.T) {
	svc := NewCatalogService(newFakeGameRepo(), memory.New(), testLogger())

	title := "Anything"
	_, err := svc.Update(context.Background(), "missing-id", UpdateGameInput{Title: &title})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalogDeleteBestEffortIndexRemoval(t *testing.T) {
	repo := newFakeGameRepo()
	idx := &faultyProjector{Projector: memory.New(), removeErr: errors.New("index down")}
	svc := NewCatalogService(repo, idx, testLogger())

	created, err := svc.Create(context.Background(), CreateGameInput{
		Title:    "Tunic",
		Category: "Adventure",
		Price:    29.99,
	})
	require.NoError(t, err)

	// Delete succeeds despite the index refusing the removal.
	require.NoError(t, svc.Delete(context.Background(), created.Game.ID))
	_, err = svc.Get(context.Background(), created.Game.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = svc.Delete(context.Background(), created.Game.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalogResyncHealsIndex(t *testing.T) {
	repo := newFakeGameRepo()
	idx := &faultyProjector{Projector: memory.New(), projectErr: errors.New("index down")}
	svc := NewCatalogService(repo, idx, testLogger())

	for _, title := range []string{"A", "B", "C"} {
		_, err := svc.Create(context.Background(), CreateGameInput{Title: title, Category: "RPG", Price: 10})
		require.NoError(t, err)
	}
	require.Equal(t, 0, idx.Len())

	// Index recovers; resync rebuilds it from the store.
	idx.projectErr = nil
	result, err := svc.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ResyncResult{Total: 3, Indexed: 3, Failed: 0}, result)
	assert.Equal(t, 3, idx.Len())

	// Resync is idempotent: running it again changes nothing.
	again, err := svc.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result, again)
	assert.Equal(t, 3, idx.Len())
}

func TestCatalogResyncContinuesPastFailures(t *testing.T) {
	repo := newFakeGameRepo()
	idx := memory.New()
	svc := NewCatalogService(repo, idx, testLogger())

	result, err := svc.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ResyncResult{}, result)

	for _, title := range []string{"A", "B"} {
		_, err := svc.Create(context.Background(), CreateGameInput{Title: title, Category: "RPG", Price: 10})
		require.NoError(t, err)
	}

	faulty := &faultyProjector{Projector: idx, projectErr: errors.New("index down")}
	svcFaulty := NewCatalogService(repo, faulty, testLogger())
	result, err = svcFaulty.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ResyncResult{Total: 2, Indexed: 0, Failed: 2}, result)
}
