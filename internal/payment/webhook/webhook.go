package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"uziwear-be/internal/logger"
	"uziwear-be/internal/order"
	"uziwear-be/internal/payment"

	"go.uber.org/zap"
)

// Payload is the event shape the gateway posts on transaction updates. The
// reference carries our order id.
type Payload struct {
	Event string `json:"event"`
	Data  struct {
		Transaction struct {
			ID        string `json:"id"`
			Reference string `json:"reference"`
			Status    string `json:"status"`
		} `json:"transaction"`
	} `json:"data"`
}

type Handler struct {
	orderSvc order.Service
	gateway  payment.Gateway
}

func NewHandler(orderSvc order.Service, gateway payment.Gateway) *Handler {
	return &Handler{orderSvc: orderSvc, gateway: gateway}
}

func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context())

	if err := h.gateway.VerifyCallback(r); err != nil {
		log.Warn("webhook signature rejected", zap.Error(err))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	txn := payload.Data.Transaction
	log = log.With(
		zap.String("order_id", txn.Reference),
		zap.String("transaction_id", txn.ID),
		zap.String("gateway_status", txn.Status),
	)

	var status order.PaymentStatus
	switch txn.Status {
	case payment.StatusApproved:
		status = order.PaymentPaid
	case payment.StatusDeclined, payment.StatusError, payment.StatusVoided:
		status = order.PaymentFailed
	default:
		// Intermediate statuses acknowledged and ignored.
		w.WriteHeader(http.StatusOK)
		return
	}

	err = h.orderSvc.UpdatePaymentStatus(r.Context(), txn.Reference, status, txn.ID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			log.Warn("webhook for unknown order")
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		log.Error("failed to update payment status", zap.Error(err))
		http.Error(w, "failed to update order", http.StatusInternalServerError)
		return
	}

	log.Info("payment status updated from webhook")
	w.WriteHeader(http.StatusOK)
}
