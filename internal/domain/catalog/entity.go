// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"github.com/lib/pq"
)

// ServiceItem is one entry of the service catalog. The catalog is static
// configuration consumed by the order flow; this service reads it, never
// produces it.
type ServiceItem struct {
	Ref          string         `json:"ref" db:"ref"`
	Platform     string         `json:"platform" db:"platform"`
	Name         string         `json:"name" db:"name"`
	Description  string         `json:"description" db:"description"`
	Price        int64          `json:"price" db:"price"` // per-unit price, whole currency units
	MinOrder     int            `json:"min_order" db:"min_order"`
	MaxOrder     int            `json:"max_order" db:"max_order"`
	DeliveryTime string         `json:"delivery_time" db:"delivery_time"`
	Quality      string         `json:"quality" db:"quality"`
	Features     pq.StringArray `json:"features" db:"features"`
	IsPopular    bool           `json:"is_popular" db:"is_popular"`
	IsActive     bool           `json:"is_active" db:"is_active"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// Total returns the catalog price for the given quantity.
func (s ServiceItem) Total(quantity int) int64 {
	return s.Price * int64(quantity)
}
