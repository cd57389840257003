package domain

import "time"

const (
	// MultiItemBarcode записывается в Sale.Barcode, если в продаже больше одного товара.
	MultiItemBarcode = "MULTI"

	DefaultPaymentMethod = "Unknown"

	MaxPaymentMethodLen = 50
)

// SaleItem — снимок позиции на момент продажи, не зависит от последующих правок каталога.
type SaleItem struct {
	Barcode   string  `json:"barcode"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Sale — завершённая продажа. После создания не изменяется.
type Sale struct {
	ID            int64
	Barcode       string
	Items         []SaleItem
	QuantitySold  int
	Price         float64 // сумма корзины, переданная клиентом
	PaymentMethod string
	Date          time.Time
}
