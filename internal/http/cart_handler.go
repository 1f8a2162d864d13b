package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
)

type CartHandler struct {
	storage cart.Storage
	logger  *zap.Logger
}

func NewCartHandler(storage cart.Storage, logger *zap.Logger) *CartHandler {
	return &CartHandler{storage: storage, logger: logger}
}

type cartItemResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
	Type        string  `json:"type,omitempty"`
	Quantity    int     `json:"quantity"`
}

type cartResponse struct {
	Items     []cartItemResponse `json:"items"`
	ItemCount int                `json:"itemCount"`
	Subtotal  float64            `json:"subtotal"`
	IsOpen    bool               `json:"isOpen"`
}

func toCartResponse(s *cart.Store) cartResponse {
	items := s.Items()
	out := make([]cartItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, cartItemResponse{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price.InexactFloat64(),
			Image:       it.Image,
			Type:        it.Type,
			Quantity:    it.Quantity,
		})
	}
	return cartResponse{
		Items:     out,
		ItemCount: s.ItemCount(),
		Subtotal:  s.Subtotal().InexactFloat64(),
		IsOpen:    s.IsOpen(),
	}
}

// load opens the cart named in the path. It writes the error response itself
// and returns nil when the cart cannot be read.
func (h *CartHandler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) *cart.Store {
	cartID := chi.URLParam(r, "cartId")
	if cartID == "" {
		writeError(w, http.StatusBadRequest, "missing cartId")
		return nil
	}

	s := cart.NewStore(h.storage, cart.Key(cartID), h.logger)
	if err := s.Load(ctx); err != nil {
		h.logger.Error("load cart failed", zap.String("cart_id", cartID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return nil
	}
	return s
}

func itemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	return id, err == nil && id > 0
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s := h.load(ctx, w, r)
	if s == nil {
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(s))
}

type addItemRequest struct {
	Item     cart.Item `json:"item"`
	Quantity int       `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Item.ID <= 0 || body.Item.Price.IsNegative() {
		writeError(w, http.StatusBadRequest, "invalid item")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s := h.load(ctx, w, r)
	if s == nil {
		return
	}
	if err := s.AddItem(ctx, body.Item, body.Quantity); err != nil {
		h.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(s))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid itemId")
		return
	}
	var body updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s := h.load(ctx, w, r)
	if s == nil {
		return
	}
	if err := s.UpdateQuantity(ctx, id, body.Quantity); err != nil {
		h.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(s))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid itemId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s := h.load(ctx, w, r)
	if s == nil {
		return
	}
	if err := s.RemoveItem(ctx, id); err != nil {
		h.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(s))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s := h.load(ctx, w, r)
	if s == nil {
		return
	}
	if err := s.Clear(ctx); err != nil {
		h.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(s))
}

func (h *CartHandler) writeMutationError(w http.ResponseWriter, err error) {
	if errors.Is(err, cart.ErrNegativeQuantity) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("save cart failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "failed to save cart")
}
