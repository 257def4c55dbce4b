package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge/gamestore/internal/domain"
)

func seed(t *testing.T, p *Projector, games ...domain.Game) {
	t.Helper()
	for i := range games {
		require.NoError(t, p.Project(context.Background(), &games[i]))
	}
}

func TestProjectUpsertsByID(t *testing.T) {
	p := New()
	seed(t, p, domain.Game{ID: "g1", Title: "Elden Ring", SalesCount: 5})
	seed(t, p, domain.Game{ID: "g1", Title: "Elden Ring GOTY", SalesCount: 9})

	games, err := p.SearchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Elden Ring GOTY", games[0].Title)
	assert.Equal(t, 9, games[0].SalesCount)
}

func TestRemoveIsIdempotent(t *testing.T) {
	p := New()
	seed(t, p, domain.Game{ID: "g1", Title: "Hades"})

	require.NoError(t, p.Remove(context.Background(), "g1"))
	require.NoError(t, p.Remove(context.Background(), "g1"))
	require.NoError(t, p.Remove(context.Background(), "never-indexed"))

	assert.Equal(t, 0, p.Len())
}

func TestSearchByTitle(t *testing.T) {
	p := New()
	seed(t, p,
		domain.Game{ID: "g1", Title: "Stardew Valley", Category: "Simulation"},
		domain.Game{ID: "g2", Title: "Hollow Knight", Category: "Metroidvania"},
		domain.Game{ID: "g3", Title: "Dark Souls", Category: "RPG"},
	)

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{name: "exact", query: "Hollow Knight", wantIDs: []string{"g2"}},
		{name: "substring", query: "valley", wantIDs: []string{"g1"}},
		{name: "typo tolerated", query: "Stardew Walley", wantIDs: []string{"g1"}},
		{name: "no match", query: "Factorio", wantIDs: []string{}},
		{name: "blank query", query: "   ", wantIDs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			games, err := p.SearchByTitle(context.Background(), tt.query)
			require.NoError(t, err)
			ids := make([]string, 0, len(games))
			for _, g := range games {
				ids = append(ids, g.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestTopSelling(t *testing.T) {
	p := New()
	seed(t, p,
		domain.Game{ID: "g1", Title: "A", SalesCount: 10},
		domain.Game{ID: "g2", Title: "B", SalesCount: 30},
		domain.Game{ID: "g3", Title: "C", SalesCount: 20},
		domain.Game{ID: "g4", Title: "D", SalesCount: 30},
	)

	games, err := p.TopSelling(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, games, 3)
	// Ties broken by ID for a stable order.
	assert.Equal(t, "g2", games[0].ID)
	assert.Equal(t, "g4", games[1].ID)
	assert.Equal(t, "g3", games[2].ID)
}

func TestTopSellingNonPositiveLimit(t *testing.T) {
	p := New()
	seed(t, p, domain.Game{ID: "g1", SalesCount: 10})

	for _, limit := range []int{0, -1, -100} {
		games, err := p.TopSelling(context.Background(), limit)
		require.NoError(t, err)
		assert.Empty(t, games, "limit %d", limit)
	}
}

func TestMaxSalesCount(t *testing.T) {
	p := New()

	_, ok, err := p.MaxSalesCount(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	seed(t, p,
		domain.Game{ID: "g1", SalesCount: 7},
		domain.Game{ID: "g2", SalesCount: 42},
	)

	count, ok, err := p.MaxSalesCount(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, count)
}

func TestPopularCategories(t *testing.T) {
	p := New()
	for i := 0; i < 3; i++ {
		seed(t, p, domain.Game{ID: fmt.Sprintf("rpg-%d", i), Category: "RPG"})
	}
	for i := 0; i < 2; i++ {
		seed(t, p, domain.Game{ID: fmt.Sprintf("sim-%d", i), Category: "Simulation"})
	}
	seed(t, p, domain.Game{ID: "str-0", Category: "Strategy"})

	counts, err := p.PopularCategories(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, domain.CategoryCount{Category: "RPG", Count: 3}, counts[0])
	assert.Equal(t, domain.CategoryCount{Category: "Simulation", Count: 2}, counts[1])
}

func TestRecommendationsFor(t *testing.T) {
	p := New()
	seed(t, p,
		domain.Game{ID: "g1", Category: "RPG"},
		domain.Game{ID: "g2", Category: "Simulation"},
		domain.Game{ID: "g3", Category: "RPG"},
	)

	games, err := p.RecommendationsFor(context.Background(), []string{"RPG"})
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "g1", games[0].ID)
	assert.Equal(t, "g3", games[1].ID)

	games, err = p.RecommendationsFor(context.Background(), []string{"Horror"})
	require.NoError(t, err)
	assert.Empty(t, games)
}
