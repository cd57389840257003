package usecase

import (
	"context"

	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
)

// InventoryUC — бизнес-операции склада и кассы.
type InventoryUC interface {
	AddProduct(ctx context.Context, req *AddProductReq) (*domain.Product, error)
	GetProduct(ctx context.Context, barcode string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// UpdateProduct и AdjustStock принимают сырое тело: оно проверяется после поиска товара.
	UpdateProduct(ctx context.Context, barcode string, fields Fields) (*domain.Product, error)
	DeleteProduct(ctx context.Context, barcode string) (*DeleteProductRes, error)
	AdjustStock(ctx context.Context, barcode string, fields Fields) (*AdjustStockRes, error)
	UploadProductImage(ctx context.Context, barcode string, image ProductImage) (*domain.Product, error)
	InventorySummary(ctx context.Context) (*domain.InventorySummary, error)
	RecordSale(ctx context.Context, req *RecordSaleReq) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
}
