package notify

import "context"

// OrderConfirmedEvent is published after a checkout transaction commits. The
// mailer service downstream turns it into a confirmation email.
type OrderConfirmedEvent struct {
	OrderID       string `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Total         int64  `json:"total"`
	PaymentMethod string `json:"payment_method"`
}

type OrderShippedEvent struct {
	OrderID        string `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	CustomerEmail  string `json:"customer_email"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

// Notifier delivers best-effort notifications. Implementations must never be
// called inside a transaction; callers log and swallow any error.
type Notifier interface {
	OrderConfirmed(ctx context.Context, ev OrderConfirmedEvent) error
	OrderShipped(ctx context.Context, ev OrderShippedEvent) error
	Close() error
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) OrderConfirmed(context.Context, OrderConfirmedEvent) error { return nil }
func (Nop) OrderShipped(context.Context, OrderShippedEvent) error     { return nil }
func (Nop) Close() error                                              { return nil }
