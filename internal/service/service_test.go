package service

import (
	"context"
	"sort"
	"sync"

	"github.com/playforge/gamestore/internal/domain"
	apperrors "github.com/playforge/gamestore/pkg/errors"
)

// fakeGameRepo is a map-backed GameRepository with optional error injection.
type fakeGameRepo struct {
	mu    sync.Mutex
	games map[string]domain.Game
	err   error
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: make(map[string]domain.Game)}
}

func (r *fakeGameRepo) Create(_ context.Context, game *domain.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.games[game.ID] = *game
	return nil
}

func (r *fakeGameRepo) GetByID(_ context.Context, id string) (*domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	game, ok := r.games[id]
	if !ok {
		return nil, apperrors.NotFound("game", id)
	}
	return &game, nil
}

func (r *fakeGameRepo) List(_ context.Context) ([]domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	games := make([]domain.Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (r *fakeGameRepo) Update(_ context.Context, game *domain.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.games[game.ID]; !ok {
		return apperrors.NotFound("game", game.ID)
	}
	r.games[game.ID] = *game
	return nil
}

func (r *fakeGameRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.games[id]; !ok {
		return apperrors.NotFound("game", id)
	}
	delete(r.games, id)
	return nil
}

// fakeLibraryRepo enforces (user, game) uniqueness like the real table does.
type fakeLibraryRepo struct {
	mu      sync.Mutex
	entries map[string]domain.LibraryEntry
	err     error
}

func newFakeLibraryRepo() *fakeLibraryRepo {
	return &fakeLibraryRepo{entries: make(map[string]domain.LibraryEntry)}
}

func (r *fakeLibraryRepo) Grant(_ context.Context, entry *domain.LibraryEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	key := entry.UserID + "/" + entry.GameID
	if _, ok := r.entries[key]; ok {
		return false, nil
	}
	r.entries[key] = *entry
	return true, nil
}

func (r *fakeLibraryRepo) ListByUser(_ context.Context, userID string) ([]domain.LibraryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	entries := make([]domain.LibraryEntry, 0)
	for _, e := range r.entries {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].PurchasedAt.After(entries[j].PurchasedAt)
	})
	return entries, nil
}

// fakePublisher records published orders and can simulate broker failures.
type fakePublisher struct {
	mu     sync.Mutex
	orders []OrderPlaced
	err    error
}

func (p *fakePublisher) PublishOrderPlaced(_ context.Context, order OrderPlaced) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.orders = append(p.orders, order)
	return nil
}

func (p *fakePublisher) published() []OrderPlaced {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]OrderPlaced(nil), p.orders...)
}
