package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/playforge/gamestore/internal/domain"
	"github.com/playforge/gamestore/internal/search"
)

// Projector is an in-memory implementation of search.Projector. It backs unit
// tests and local development where no Elasticsearch cluster is available.
type Projector struct {
	mu    sync.RWMutex
	games map[string]domain.Game
}

var _ search.Projector = (*Projector)(nil)

// New returns an empty in-memory projector.
func New() *Projector {
	return &Projector{games: make(map[string]domain.Game)}
}

func (p *Projector) BootstrapIndex(_ context.Context) error { return nil }

func (p *Projector) Ping(_ context.Context) error { return nil }

func (p *Projector) Project(_ context.Context, game *domain.Game) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.games[game.ID] = *game
	return nil
}

func (p *Projector) Remove(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.games, id)
	return nil
}

func (p *Projector) SearchAll(_ context.Context) ([]domain.Game, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	games := make([]domain.Game, 0, len(p.games))
	for _, g := range p.games {
		games = append(games, g)
	}
	sortByID(games)
	return games, nil
}

// SearchByTitle matches case-insensitively on substrings and, word by word,
// tolerates typos with an edit distance that scales with word length, similar
// to auto fuzziness in a real search engine.
func (p *Projector) SearchByTitle(_ context.Context, query string) ([]domain.Game, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	games := make([]domain.Game, 0)
	if q == "" {
		return games, nil
	}

	for _, g := range p.games {
		if titleMatches(strings.ToLower(g.Title), q) {
			games = append(games, g)
		}
	}
	sortByID(games)
	return games, nil
}

func (p *Projector) TopSelling(_ context.Context, limit int) ([]domain.Game, error) {
	if limit <= 0 {
		return []domain.Game{}, nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	games := make([]domain.Game, 0, len(p.games))
	for _, g := range p.games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool {
		if games[i].SalesCount != games[j].SalesCount {
			return games[i].SalesCount > games[j].SalesCount
		}
		return games[i].ID < games[j].ID
	})

	if len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

func (p *Projector) MaxSalesCount(ctx context.Context) (int, bool, error) {
	games, err := p.TopSelling(ctx, 1)
	if err != nil || len(games) == 0 {
		return 0, false, err
	}
	return games[0].SalesCount, true, nil
}

func (p *Projector) PopularCategories(_ context.Context, topN int) ([]domain.CategoryCount, error) {
	if topN <= 0 {
		topN = search.DefaultPopularCategories
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	byCategory := make(map[string]int)
	for _, g := range p.games {
		byCategory[g.Category]++
	}

	counts := make([]domain.CategoryCount, 0, len(byCategory))
	for category, count := range byCategory {
		counts = append(counts, domain.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Category < counts[j].Category
	})

	if len(counts) > topN {
		counts = counts[:topN]
	}
	return counts, nil
}

func (p *Projector) RecommendationsFor(_ context.Context, categories []string) ([]domain.Game, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	wanted := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}

	games := make([]domain.Game, 0)
	for _, g := range p.games {
		if _, ok := wanted[g.Category]; ok {
			games = append(games, g)
		}
	}
	sortByID(games)
	return games, nil
}

// Len reports how many documents the index holds. Test helper.
func (p *Projector) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.games)
}

func sortByID(games []domain.Game) {
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
}

func titleMatches(title, query string) bool {
	if strings.Contains(title, query) {
		return true
	}
	for _, qw := range strings.Fields(query) {
		for _, tw := range strings.Fields(title) {
			if levenshtein(tw, qw) <= maxEdits(qw) {
				return true
			}
		}
	}
	return false
}

// maxEdits mirrors auto fuzziness: short words must match exactly, medium
// words allow one edit, long words two.
func maxEdits(word string) int {
	switch {
	case len(word) < 3:
		return 0
	case len(word) < 6:
		return 1
	default:
		return 2
	}
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
