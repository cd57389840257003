package converter

import "time"

// ProductRedisModel — товар в кэше, сериализуется в JSON.
type ProductRedisModel struct {
	ID        int64      `json:"id"`
	Barcode   string     `json:"barcode"`
	Name      string     `json:"name"`
	SKU       *string    `json:"sku,omitempty"`
	Brand     *string    `json:"brand,omitempty"`
	Category  *string    `json:"category,omitempty"`
	Size      *string    `json:"size,omitempty"`
	Color     *string    `json:"color,omitempty"`
	Stock     int        `json:"stock"`
	Price     float64    `json:"price"`
	ImageURL  *string    `json:"image_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
