package http

import (
	"time"

	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
	"github.com/AhmadZaarour/store-manager-web-app/internal/usecase"
)

// ProductResponse — представление товара в API.
type ProductResponse struct {
	ID       int64   `json:"id"`
	Barcode  string  `json:"barcode"`
	Name     string  `json:"name"`
	SKU      *string `json:"sku"`
	Brand    *string `json:"brand"`
	Category *string `json:"category"`
	Size     *string `json:"size"`
	Color    *string `json:"color"`
	Stock    int     `json:"stock"`
	Price    float64 `json:"price"`
	ImageURL *string `json:"image_url"`
}

type SaleItemResponse struct {
	Barcode   string  `json:"barcode"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// SaleResponse — представление продажи, total хранит сумму корзины клиента.
type SaleResponse struct {
	ID            int64              `json:"id"`
	Barcode       string             `json:"barcode"`
	Items         []SaleItemResponse `json:"items"`
	QuantitySold  int                `json:"quantity_sold"`
	Total         float64            `json:"total"`
	PaymentMethod string             `json:"payment_method"`
	Date          string             `json:"date"`
}

type InventorySummaryResponse struct {
	TotalProducts  int64   `json:"total_products"`
	InStock        int64   `json:"in_stock"`
	LowStock       int64   `json:"low_stock"`
	OutOfStock     int64   `json:"out_of_stock"`
	InventoryValue float64 `json:"inventory_value"`
}

type AdjustStockResponse struct {
	Product *ProductResponse `json:"product"`
	Stock   int              `json:"stock"`
}

type DeleteProductResponse struct {
	Status  string `json:"status"`
	Barcode string `json:"barcode"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func toProductResponse(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:       p.ID,
		Barcode:  p.Barcode,
		Name:     p.Name,
		SKU:      p.SKU,
		Brand:    p.Brand,
		Category: p.Category,
		Size:     p.Size,
		Color:    p.Color,
		Stock:    p.Stock,
		Price:    p.Price,
		ImageURL: p.ImageURL,
	}
}

func toProductResponses(products []domain.Product) []*ProductResponse {
	res := make([]*ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res
}

func toSaleResponse(s *domain.Sale) *SaleResponse {
	items := make([]SaleItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, SaleItemResponse(item))
	}

	return &SaleResponse{
		ID:            s.ID,
		Barcode:       s.Barcode,
		Items:         items,
		QuantitySold:  s.QuantitySold,
		Total:         s.Price,
		PaymentMethod: s.PaymentMethod,
		Date:          s.Date.UTC().Format(time.RFC3339),
	}
}

func toSaleResponses(sales []domain.Sale) []*SaleResponse {
	res := make([]*SaleResponse, 0, len(sales))
	for i := range sales {
		res = append(res, toSaleResponse(&sales[i]))
	}
	return res
}

func toInventorySummaryResponse(s *domain.InventorySummary) *InventorySummaryResponse {
	return &InventorySummaryResponse{
		TotalProducts:  s.TotalProducts,
		InStock:        s.InStock,
		LowStock:       s.LowStock,
		OutOfStock:     s.OutOfStock,
		InventoryValue: s.InventoryValue,
	}
}

func toAdjustStockResponse(res *usecase.AdjustStockRes) *AdjustStockResponse {
	return &AdjustStockResponse{
		Product: toProductResponse(res.Product),
		Stock:   res.Stock,
	}
}

func toDeleteProductResponse(res *usecase.DeleteProductRes) *DeleteProductResponse {
	return &DeleteProductResponse{Status: res.Status, Barcode: res.Barcode}
}
