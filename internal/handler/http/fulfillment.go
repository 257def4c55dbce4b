package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playforge/gamestore/internal/service"
	apperrors "github.com/playforge/gamestore/pkg/errors"
	"github.com/playforge/gamestore/pkg/httputil"
	"github.com/playforge/gamestore/pkg/validator"
)

type placeOrderRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	GameID string `json:"game_id" validate:"required,uuid"`
}

// FulfillmentHandler serves order placement and library reads.
type FulfillmentHandler struct {
	fulfillment *service.FulfillmentService
	logger      *slog.Logger
}

func NewFulfillmentHandler(fulfillment *service.FulfillmentService, logger *slog.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{fulfillment: fulfillment, logger: logger}
}

// PlaceOrder accepts an order for asynchronous fulfillment. 202 means the
// order event reached the broker, not that payment or ownership happened.
func (h *FulfillmentHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid JSON body"), h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	placed, err := h.fulfillment.PlaceOrder(r.Context(), req.UserID, req.GameID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: placed})
}

func (h *FulfillmentHandler) ListLibrary(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParseUUID(w, chi.URLParam(r, "userID"))
	if !ok {
		return
	}

	entries, err := h.fulfillment.ListLibrary(r.Context(), userID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: entries})
}
