package httpapi

import (
	"encoding/json"
	"net/http"

	"uziwear-be/internal/order"
)

type checkoutResponse struct {
	OrderID       string `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	Total         int64  `json:"total"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`

	// CheckoutURL is set for online payment methods; the storefront redirects
	// the shopper there to pay.
	CheckoutURL string `json:"checkout_url,omitempty"`
}

func newCheckoutResponse(o *order.Order) checkoutResponse {
	return checkoutResponse{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Total:         o.Total,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
	}
}

type validateCouponRequest struct {
	Code      string `json:"code"`
	CartTotal int64  `json:"cart_total"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type trackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, reason string) {
	writeJSON(w, status, errorResponse{Error: message, Reason: reason})
}
