package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/playforge/gamestore/internal/domain"
	"github.com/playforge/gamestore/internal/repository"
)

// publishTimeout bounds the synchronous broker write when placing an order.
const publishTimeout = 10 * time.Second

// OrderStatusAccepted is the only status PlaceOrder returns: fulfillment is
// asynchronous, acceptance only means the order event was durably published.
const OrderStatusAccepted = "accepted"

// OrderPlaced is the payload handed to the order publisher. Price is a
// snapshot of the catalog price at placement time.
type OrderPlaced struct {
	OrderID  string    `json:"order_id"`
	UserID   string    `json:"user_id"`
	GameID   string    `json:"game_id"`
	Price    float64   `json:"price"`
	PlacedAt time.Time `json:"placed_at"`
}

// OrderPublisher is the outbound port for order events.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, order OrderPlaced) error
}

// PlacedOrder is the acknowledgement returned to the caller.
type PlacedOrder struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// FulfillmentService places orders and grants library ownership once payment
// is approved.
type FulfillmentService struct {
	games     repository.GameRepository
	library   repository.LibraryRepository
	publisher OrderPublisher
	logger    *slog.Logger
}

func NewFulfillmentService(
	games repository.GameRepository,
	library repository.LibraryRepository,
	publisher OrderPublisher,
	logger *slog.Logger,
) *FulfillmentService {
	return &FulfillmentService{
		games:     games,
		library:   library,
		publisher: publisher,
		logger:    logger,
	}
}

// PlaceOrder verifies the game exists, snapshots its price into an
// order.placed event and publishes it. The caller is only told "accepted"
// after the broker confirmed the write.
func (s *FulfillmentService) PlaceOrder(ctx context.Context, userID, gameID string) (*PlacedOrder, error) {
	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	game, err := s.games.GetByID(storeCtx, gameID)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	order := OrderPlaced{
		OrderID:  uuid.NewString(),
		UserID:   userID,
		GameID:   game.ID,
		Price:    game.Price,
		PlacedAt: time.Now().UTC(),
	}

	pubCtx, cancelPub := context.WithTimeout(ctx, publishTimeout)
	defer cancelPub()
	if err := s.publisher.PublishOrderPlaced(pubCtx, order); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.logger.InfoContext(ctx, "order placed",
		"order_id", order.OrderID, "user_id", userID, "game_id", gameID, "price", order.Price)
	return &PlacedOrder{OrderID: order.OrderID, Status: OrderStatusAccepted}, nil
}

// GrantLibraryEntry records ownership of a game for a user. It is idempotent:
// granting an already owned game succeeds and reports created=false.
func (s *FulfillmentService) GrantLibraryEntry(ctx context.Context, userID, gameID string) (bool, error) {
	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	entry := &domain.LibraryEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		GameID:      gameID,
		PurchasedAt: time.Now().UTC(),
	}

	created, err := s.library.Grant(storeCtx, entry)
	if err != nil {
		return false, fmt.Errorf("grant library entry: %w", err)
	}

	if created {
		s.logger.InfoContext(ctx, "library entry granted", "user_id", userID, "game_id", gameID)
	} else {
		s.logger.InfoContext(ctx, "library entry already present", "user_id", userID, "game_id", gameID)
	}
	return created, nil
}

// ListLibrary returns the games a user owns, newest purchase first.
func (s *FulfillmentService) ListLibrary(ctx context.Context, userID string) ([]domain.LibraryEntry, error) {
	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	entries, err := s.library.ListByUser(storeCtx, userID)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	return entries, nil
}
