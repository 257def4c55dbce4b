package domain

import "time"

// LibraryEntry records that a user owns a game. It is created only by the
// fulfillment consumer when a payment approval is processed. At most one
// entry exists per (user, game) pair; the database uniqueness constraint is
// what makes reprocessing the same approval a no-op.
type LibraryEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	GameID      string    `json:"game_id"`
	PurchasedAt time.Time `json:"purchased_at"`
}
