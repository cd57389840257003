package usecase

import (
	"time"

	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
)

// PRODUCTS

// AddProductReq — запрос на добавление товара.
type AddProductReq struct {
	Name     string
	Barcode  string
	Price    float64
	Stock    int
	SKU      *string
	Brand    *string
	Category *string
	Size     *string
	Color    *string
	ImageURL *string
}

// Optional — значение поля частичного обновления и признак его наличия в запросе.
type Optional[T any] struct {
	Set   bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// ProductPatch — частичное обновление товара.
// Для необязательных строк nil в Value означает очистку поля.
type ProductPatch struct {
	Name     Optional[string]
	Barcode  Optional[string]
	SKU      Optional[*string]
	Brand    Optional[*string]
	Category Optional[*string]
	Size     Optional[*string]
	Color    Optional[*string]
	Stock    Optional[int]
	Price    Optional[float64]
	ImageURL Optional[*string]
}

// IsEmpty сообщает, что в патче нет ни одного поля из разрешённого набора.
func (p *ProductPatch) IsEmpty() bool {
	return !p.Name.Set && !p.Barcode.Set && !p.SKU.Set && !p.Brand.Set && !p.Category.Set &&
		!p.Size.Set && !p.Color.Set && !p.Stock.Set && !p.Price.Set && !p.ImageURL.Set
}

// Apply переносит заданные поля патча в товар.
func (p *ProductPatch) Apply(product *domain.Product) {
	if p.Name.Set {
		product.Name = p.Name.Value
	}
	if p.Barcode.Set {
		product.Barcode = p.Barcode.Value
	}
	if p.SKU.Set {
		product.SKU = p.SKU.Value
	}
	if p.Brand.Set {
		product.Brand = p.Brand.Value
	}
	if p.Category.Set {
		product.Category = p.Category.Value
	}
	if p.Size.Set {
		product.Size = p.Size.Value
	}
	if p.Color.Set {
		product.Color = p.Color.Value
	}
	if p.Stock.Set {
		product.Stock = p.Stock.Value
	}
	if p.Price.Set {
		product.Price = p.Price.Value
	}
	if p.ImageURL.Set {
		product.ImageURL = p.ImageURL.Value
	}
}

// AdjustStockReq — относительное (Adjustment) или абсолютное (Stock) изменение остатка.
// Если заданы оба, применяется Adjustment.
type AdjustStockReq struct {
	Adjustment *int
	Stock      *int
}

type AdjustStockRes struct {
	Product *domain.Product
	Stock   int
}

type DeleteProductRes struct {
	Status  string
	Barcode string
}

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type, определённый по содержимому
	Size     int64
	Name     string // оригинальное имя файла (для логов)
}

// SALES

type SaleItemReq struct {
	Barcode  string
	Quantity *int // nil — одна штука
}

// RecordSaleReq — запрос на проведение продажи.
type RecordSaleReq struct {
	Items         []SaleItemReq
	Date          *time.Time // nil — текущее время UTC
	CartTotal     float64
	PaymentMethod string // пустая строка — domain.DefaultPaymentMethod
}

// INFRASTRUCTURE

type UploadImageReq struct {
	Barcode string
	Image   ProductImage
}

// UploadImageRes — ключ объекта в MinIO и публичный URL.
type UploadImageRes struct {
	Key string
	URL string
}

type WriteRawMessageReq struct {
	Key     string
	Payload []byte
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

// OutboxEvent — событие, записанное в одной транзакции с изменением данных.
type OutboxEvent struct {
	ID           int64
	EventID      string
	EventType    string
	AggregateKey string
	Payload      []byte
	Status       OutboxStatus
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

// MAPPERS

func NewDeleteProductRes(barcode string) *DeleteProductRes {
	return &DeleteProductRes{
		Status:  "deleted",
		Barcode: barcode,
	}
}

func NewAdjustStockRes(product *domain.Product) *AdjustStockRes {
	return &AdjustStockRes{
		Product: product,
		Stock:   product.Stock,
	}
}

func NewUploadImageReq(barcode string, image ProductImage) *UploadImageReq {
	return &UploadImageReq{
		Barcode: barcode,
		Image:   image,
	}
}

func NewUploadImageRes(key string, url string) *UploadImageRes {
	return &UploadImageRes{
		Key: key,
		URL: url,
	}
}

func NewWriteRawMessageReq(key string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:     key,
		Payload: payload,
	}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}
