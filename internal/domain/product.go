package domain

import (
	"math"
	"time"
)

// Границы полей товара совпадают с размерами колонок таблицы products.
const (
	MaxBarcodeLen  = 50
	MaxNameLen     = 100
	MaxSKULen      = 50
	MaxBrandLen    = 100
	MaxCategoryLen = 100
	MaxSizeLen     = 10
	MaxColorLen    = 50
	MaxImageURLLen = 200

	// MaxStock — наибольший остаток, который помещается в INTEGER.
	MaxStock = math.MaxInt32
)

// Product описывает товар каталога.
type Product struct {
	ID        int64
	Barcode   string
	Name      string
	SKU       *string
	Brand     *string
	Category  *string
	Size      *string
	Color     *string
	Stock     int
	Price     float64
	ImageURL  *string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func NewProduct(name string, barcode string, price float64, stock int) *Product {
	return &Product{
		Name:    name,
		Barcode: barcode,
		Price:   price,
		Stock:   stock,
	}
}

// Clone возвращает независимую копию товара.
func (p *Product) Clone() *Product {
	c := *p
	c.SKU = cloneString(p.SKU)
	c.Brand = cloneString(p.Brand)
	c.Category = cloneString(p.Category)
	c.Size = cloneString(p.Size)
	c.Color = cloneString(p.Color)
	c.ImageURL = cloneString(p.ImageURL)
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
