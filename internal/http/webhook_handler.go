package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
)

// Stripe documents 64KB as an upper bound for webhook payloads.
const maxWebhookBody = 65536

type WebhookProcessor interface {
	Handle(ctx context.Context, ev payment.Event, meta events.Metadata) error
}

type WebhookHandler struct {
	verifier  payment.WebhookVerifier
	processor WebhookProcessor
	logger    *zap.Logger
}

func NewWebhookHandler(verifier payment.WebhookVerifier, processor WebhookProcessor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, processor: processor, logger: logger}
}

// Receive answers 5xx on processing failures so the processor redelivers.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	ev, err := h.verifier.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.processor.Handle(ctx, ev, requestMeta(r)); err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("event_id", ev.ID), zap.String("type", string(ev.Type)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process event")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
