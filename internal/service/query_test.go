package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge/gamestore/internal/domain"
	"github.com/playforge/gamestore/internal/search/memory"
	apperrors "github.com/playforge/gamestore/pkg/errors"
)

func seedIndex(t *testing.T, idx *memory.Projector, games ...domain.Game) {
	t.Helper()
	for i := range games {
		require.NoError(t, idx.Project(context.Background(), &games[i]))
	}
}

func TestQueryTopSelling(t *testing.T) {
	idx := memory.New()
	seedIndex(t, idx,
		domain.Game{ID: "g1", Title: "A", SalesCount: 5},
		domain.Game{ID: "g2", Title: "B", SalesCount: 50},
		domain.Game{ID: "g3", Title: "C", SalesCount: 20},
	)
	svc := NewQueryService(idx, testLogger())

	games, err := svc.TopSelling(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "g2", games[0].ID)
	assert.Equal(t, "g3", games[1].ID)

	// A limit beyond the catalog size returns everything, still sorted.
	games, err = svc.TopSelling(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, []string{"g2", "g3", "g1"}, []string{games[0].ID, games[1].ID, games[2].ID})

	games, err = svc.TopSelling(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestQueryMaxSalesCount(t *testing.T) {
	idx := memory.New()
	svc := NewQueryService(idx, testLogger())

	_, ok, err := svc.MaxSalesCount(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	seedIndex(t, idx, domain.Game{ID: "g1", SalesCount: 13})
	count, ok, err := svc.MaxSalesCount(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 13, count)
}

func TestQueryRecommendations(t *testing.T) {
	idx := memory.New()
	seedIndex(t, idx,
		domain.Game{ID: "g1", Category: "RPG"},
		domain.Game{ID: "g2", Category: "Horror"},
		domain.Game{ID: "g3", Category: "RPG"},
	)
	svc := NewQueryService(idx, testLogger())

	games, err := svc.Recommendations(context.Background(), []string{"RPG"})
	require.NoError(t, err)
	require.Len(t, games, 2)
	for _, g := range games {
		assert.Equal(t, "RPG", g.Category)
	}
}

func TestQueryRecommendationsEmptyCategories(t *testing.T) {
	svc := NewQueryService(memory.New(), testLogger())

	_, err := svc.Recommendations(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Recommendations(context.Background(), []string{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestQuerySearch(t *testing.T) {
	idx := memory.New()
	seedIndex(t, idx,
		domain.Game{ID: "g1", Title: "Slay the Spire"},
		domain.Game{ID: "g2", Title: "Into the Breach"},
	)
	svc := NewQueryService(idx, testLogger())

	games, err := svc.Search(context.Background(), "spire")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "g1", games[0].ID)
}
