package catalog

import "time"

type ProductStatus string

const (
	StatusActive   ProductStatus = "active"
	StatusDraft    ProductStatus = "draft"
	StatusArchived ProductStatus = "archived"
)

type Product struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description *string       `json:"description,omitempty"`
	Price       int64         `json:"price"` // whole COP
	Category    string        `json:"category"`
	Gender      string        `json:"gender"`
	Status      ProductStatus `json:"status"`
	ImageURL    *string       `json:"image_url,omitempty"`
	TotalStock  int           `json:"total_stock"`
	Sold        int           `json:"sold"`
	Variants    []Variant     `json:"variants"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type Variant struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Stock     int    `json:"stock"`
	Sold      int    `json:"sold"`
}

// CheckoutVariant is the snapshot the order coordinator reads inside its
// transaction: live price and stock for one (product, size) pair.
type CheckoutVariant struct {
	ProductID   string
	ProductName string
	Price       int64
	Size        string
	Stock       int
}

type ProductFilter struct {
	Category *string
	Gender   *string
	Status   *ProductStatus
	Search   *string
}
