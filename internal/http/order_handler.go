package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

// OrderReader is the read side of the order repository used by the success page.
type OrderReader interface {
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*order.Order, error)
}

type OrderHandler struct {
	orders OrderReader
}

func NewOrderHandler(orders OrderReader) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderStatusResponse struct {
	OrderID string       `json:"orderId"`
	Status  order.Status `json:"status"`
	Total   float64      `json:"total"`
}

func (h *OrderHandler) GetByPaymentIntent(w http.ResponseWriter, r *http.Request) {
	pi := chi.URLParam(r, "paymentIntentId")
	if pi == "" {
		writeError(w, http.StatusBadRequest, "missing paymentIntentId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.orders.GetByPaymentIntentID(ctx, pi)
	if errors.Is(err, order.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	writeJSON(w, http.StatusOK, orderStatusResponse{
		OrderID: o.ID,
		Status:  o.Status,
		Total:   o.TotalAmount.InexactFloat64(),
	})
}
