package payment

import "time"

// CheckoutResponse is what the gateway hands back when an online payment is
// initiated; the storefront redirects the shopper to CheckoutURL.
type CheckoutResponse struct {
	Reference     string `json:"reference"`
	TransactionID string `json:"transaction_id"`
	CheckoutURL   string `json:"checkout_url"`
	AmountInCents int64  `json:"amount_in_cents"`
	Status        string `json:"status"`
}

type TransactionStatus struct {
	TransactionID string     `json:"transaction_id"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// Gateway transaction statuses as Wompi reports them.
const (
	StatusApproved = "APPROVED"
	StatusDeclined = "DECLINED"
	StatusVoided   = "VOIDED"
	StatusError    = "ERROR"
	StatusPending  = "PENDING"
)
