package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

// InsufficientStockError names the product and size that could not be
// reserved, so the storefront can tell the shopper which line failed.
type InsufficientStockError struct {
	ProductID string
	Size      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for product %s size %s: requested %d, available %d",
		e.ProductID, e.Size, e.Requested, e.Available,
	)
}
