package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playforge/gamestore/internal/service"
	apperrors "github.com/playforge/gamestore/pkg/errors"
	"github.com/playforge/gamestore/pkg/httputil"
	"github.com/playforge/gamestore/pkg/validator"
)

// defaultTopLimit is used when /games/top is called without a limit.
const defaultTopLimit = 10

type createGameRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=500"`
	Category    string  `json:"category" validate:"required,max=100"`
	Price       float64 `json:"price" validate:"gte=0"`
}

type updateGameRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Category    *string  `json:"category" validate:"omitempty,max=100"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
}

type createGameResponse struct {
	Game     any  `json:"game"`
	Degraded bool `json:"degraded"`
}

// GameHandler serves the catalog and query endpoints.
type GameHandler struct {
	catalog *service.CatalogService
	query   *service.QueryService
	logger  *slog.Logger
}

func NewGameHandler(catalog *service.CatalogService, query *service.QueryService, logger *slog.Logger) *GameHandler {
	return &GameHandler{catalog: catalog, query: query, logger: logger}
}

func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid JSON body"), h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.catalog.Create(r.Context(), service.CreateGameInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Data: createGameResponse{Game: result.Game, Degraded: result.Degraded},
	})
}

func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	game, err := h.catalog.Get(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: game})
}

func (h *GameHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req updateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid JSON body"), h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	game, err := h.catalog.Update(r.Context(), id.String(), service.UpdateGameInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: game})
}

func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.Delete(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	games, err := h.catalog.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: games})
}

func (h *GameHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("query parameter q is required"), h.logger)
		return
	}

	games, err := h.query.Search(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: games})
}

func (h *GameHandler) TopSelling(w http.ResponseWriter, r *http.Request) {
	limit := defaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("limit must be an integer"), h.logger)
			return
		}
		limit = parsed
	}

	games, err := h.query.TopSelling(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: games})
}

func (h *GameHandler) PopularCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.query.PopularCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: counts})
}

func (h *GameHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("categories")
	categories := make([]string, 0)
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}

	games, err := h.query.Recommendations(r.Context(), categories)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: games})
}

func (h *GameHandler) Resync(w http.ResponseWriter, r *http.Request) {
	result, err := h.catalog.Resync(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
