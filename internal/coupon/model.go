package coupon

import "time"

type Coupon struct {
	Code            string     `json:"code"`
	DiscountPercent int        `json:"discount_percent"`
	MinPurchase     int64      `json:"min_purchase"`
	UsageLimit      *int       `json:"usage_limit,omitempty"` // nil = unlimited
	UsedCount       int        `json:"used_count"`
	OncePerPerson   bool       `json:"once_per_person"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Snapshot is what a successful validation hands to the order coordinator:
// the discount already computed against the cart subtotal.
type Snapshot struct {
	Code            string `json:"code"`
	DiscountPercent int    `json:"discount_percent"`
	Discount        int64  `json:"discount"`
}
