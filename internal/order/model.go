package order

import "time"

type OrderStatus string

// Status values are the storefront's own labels and travel as-is through the
// API and the database.
const (
	StatusPreparing OrderStatus = "en preparacion"
	StatusShipped   OrderStatus = "enviado"
	StatusDelivered OrderStatus = "entregado"
	StatusCancelled OrderStatus = "cancelado"
	StatusReturned  OrderStatus = "devuelto"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pendiente"
	PaymentInitiated PaymentStatus = "iniciado"
	PaymentPaid      PaymentStatus = "pagado"
	PaymentFailed    PaymentStatus = "fallido"
)

type PaymentMethod string

const (
	MethodCOD  PaymentMethod = "contraentrega"
	MethodCard PaymentMethod = "tarjeta"
	MethodPSE  PaymentMethod = "pse"
)

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "estandar"
	ShippingExpress  ShippingMethod = "express"
)

type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	UserID      string `json:"user_id"`

	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	CustomerPhone string  `json:"customer_phone"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	Department    string  `json:"department"`
	Notes         *string `json:"notes,omitempty"`

	Items []OrderItem `json:"items"`

	Subtotal     int64   `json:"subtotal"`
	Discount     int64   `json:"discount"`
	CouponCode   *string `json:"coupon_code,omitempty"`
	ShippingCost int64   `json:"shipping_cost"`
	Total        int64   `json:"total"`

	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TransactionID *string       `json:"transaction_id,omitempty"`

	Status         OrderStatus `json:"status"`
	TrackingNumber *string     `json:"tracking_number,omitempty"`
	Carrier        *string     `json:"carrier,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem is a frozen snapshot of the product at purchase time; name and
// price never change after the order is created.
type OrderItem struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type CheckoutInput struct {
	UserID string `json:"-"`

	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	CustomerPhone string  `json:"customer_phone"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	Department    string  `json:"department"`
	Notes         *string `json:"notes,omitempty"`

	Items          []CheckoutItem `json:"items"`
	CouponCode     *string        `json:"coupon_code,omitempty"`
	ShippingMethod ShippingMethod `json:"shipping_method"`
	PaymentMethod  PaymentMethod  `json:"payment_method"`
}

type OrderFilterInput struct {
	Search   *string
	Status   *OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

type OrderSortField string

const (
	OrderSortFieldCreatedAt OrderSortField = "created_at"
	OrderSortFieldTotal     OrderSortField = "total"
)

type OrderSortInput struct {
	Field     OrderSortField
	Direction string
}
