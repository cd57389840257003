package usecase

import (
	"context"

	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
)

// ProductRepository — каталог товаров. Уникальность barcode и sku обеспечивает хранилище,
// нарушение возвращается как *e.ConflictError, отсутствие записи — как *e.NotFoundError.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	// GetByBarcodeForUpdate блокирует строку до конца текущей транзакции.
	GetByBarcodeForUpdate(ctx context.Context, barcode string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpdateStock(ctx context.Context, id int64, stock int) error
	Delete(ctx context.Context, id int64) error
	Aggregate(ctx context.Context) (*domain.InventoryAggregate, error)
}

// SaleRepository — журнал продаж, только добавление и чтение.
type SaleRepository interface {
	Append(ctx context.Context, sale *domain.Sale) (*domain.Sale, error)
	List(ctx context.Context) ([]domain.Sale, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	MarkAsPending(ctx context.Context, id int64) error
}

// CacheRepository кэширует товары по штрихкоду. Промах — (nil, nil).
// У каждого штрихкода есть версия, которую увеличивает DeleteProducts.
type CacheRepository interface {
	GetProduct(ctx context.Context, barcode string) (*domain.Product, error)
	ProductVersion(ctx context.Context, barcode string) (int64, error)
	// SetProduct ничего не пишет, если версия штрихкода уже отличается от version.
	SetProduct(ctx context.Context, product *domain.Product, version int64) error
	DeleteProducts(ctx context.Context, barcodes []string) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}
