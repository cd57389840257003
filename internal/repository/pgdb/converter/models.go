package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID        int64      `db:"id"`
	Barcode   string     `db:"barcode"`
	Name      string     `db:"name"`
	SKU       *string    `db:"sku"`
	Brand     *string    `db:"brand"`
	Category  *string    `db:"category"`
	Size      *string    `db:"size"`
	Color     *string    `db:"color"`
	Stock     int        `db:"stock"`
	Price     float64    `db:"price"`
	ImageURL  *string    `db:"image_url"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt *time.Time `db:"updated_at"`
}

// SaleModel представляет запись таблицы sales. Позиции хранятся JSON-текстом.
type SaleModel struct {
	ID            int64     `db:"id"`
	Barcode       string    `db:"barcode"`
	Items         *string   `db:"items"`
	QuantitySold  int       `db:"quantity_sold"`
	Price         float64   `db:"price"`
	PaymentMethod string    `db:"payment_method"`
	Date          time.Time `db:"date"`
}

// OutboxEventModel представляет запись таблицы outbox_events.
type OutboxEventModel struct {
	ID           int64      `db:"id"`
	EventID      string     `db:"event_id"`
	EventType    string     `db:"event_type"`
	AggregateKey string     `db:"aggregate_key"`
	Payload      []byte     `db:"payload"`
	Status       string     `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
	ProcessedAt  *time.Time `db:"processed_at"`
}
