package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
	"github.com/shopspring/decimal"
)

// InventoryUseCase реализует бизнес-логику каталога, остатков и продаж.
// Собственного изменяемого состояния не хранит: всё читается и пишется в хранилища в рамках вызова.
type InventoryUseCase struct {
	productRepo ProductRepository
	saleRepo    SaleRepository
	outboxRepo  OutboxRepository
	cacheRepo   CacheRepository
	imagesInfra ImagesInfra
	trManager   TxManager
	logger      logger.Logger
	now         func() time.Time
}

func NewInventoryUC(
	productRepo ProductRepository,
	saleRepo SaleRepository,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	imagesInfra ImagesInfra,
	trManager TxManager,
	logger logger.Logger,
) *InventoryUseCase {
	return &InventoryUseCase{
		productRepo: productRepo,
		saleRepo:    saleRepo,
		outboxRepo:  outboxRepo,
		cacheRepo:   cacheRepo,
		imagesInfra: imagesInfra,
		trManager:   trManager,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// AddProduct создаёт товар. Коллизия barcode/sku возвращается как ConflictError.
func (u *InventoryUseCase) AddProduct(ctx context.Context, req *AddProductReq) (*domain.Product, error) {
	const op = "InventoryUseCase.AddProduct"

	if err := validateAddProduct(req); err != nil {
		return nil, err
	}

	product := domain.NewProduct(req.Name, req.Barcode, req.Price, req.Stock)
	product.SKU = req.SKU
	product.Brand = req.Brand
	product.Category = req.Category
	product.Size = req.Size
	product.Color = req.Color
	product.ImageURL = req.ImageURL

	created, err := u.productRepo.Create(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	u.logger.Infof("product created: barcode=%s id=%d", created.Barcode, created.ID)
	return created, nil
}

// GetProduct читает товар через кэш. Ошибки кэша только логируются.
// Кэш заполняется, только если штрихкод не инвалидировали между промахом и записью.
func (u *InventoryUseCase) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	const op = "InventoryUseCase.GetProduct"

	cached, err := u.cacheRepo.GetProduct(ctx, barcode)
	if err != nil {
		u.logger.Warnf("Failed to get product from cache: %v", e.Wrap(op, err))
	} else if cached != nil {
		return cached, nil
	}

	version, versionErr := u.cacheRepo.ProductVersion(ctx, barcode)
	if versionErr != nil {
		u.logger.Warnf("Failed to read cache version: %v", e.Wrap(op, versionErr))
	}

	product, err := u.productRepo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if versionErr == nil {
		if err := u.cacheRepo.SetProduct(ctx, product, version); err != nil {
			u.logger.Warnf("Failed to cache product: %v", e.Wrap(op, err))
		}
	}

	return product, nil
}

func (u *InventoryUseCase) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "InventoryUseCase.ListProducts"

	products, err := u.productRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

// UpdateProduct применяет поля запроса к товару под блокировкой строки.
// Тело разбирается после поиска товара: для отсутствующего товара ответ всегда NotFound.
func (u *InventoryUseCase) UpdateProduct(ctx context.Context, barcode string, fields Fields) (*domain.Product, error) {
	const op = "InventoryUseCase.UpdateProduct"

	var updated *domain.Product
	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		product, err := u.productRepo.GetByBarcodeForUpdate(ctx, barcode)
		if err != nil {
			return err
		}

		patch, err := DecodeProductPatch(fields)
		if err != nil {
			return err
		}
		if err := validatePatch(patch); err != nil {
			return err
		}

		if patch.Barcode.Set && patch.Barcode.Value != product.Barcode {
			if err := u.ensureBarcodeFree(ctx, patch.Barcode.Value, product.ID); err != nil {
				return err
			}
		}
		if patch.SKU.Set && patch.SKU.Value != nil && (product.SKU == nil || *patch.SKU.Value != *product.SKU) {
			if err := u.ensureSKUFree(ctx, *patch.SKU.Value, product.ID); err != nil {
				return err
			}
		}

		changed := product.Clone()
		patch.Apply(changed)

		updated, err = u.productRepo.Update(ctx, changed)
		if err != nil {
			return err
		}

		if updated.Stock != product.Stock {
			return u.writeEvent(ctx, domain.EventStockAdjusted, updated.Barcode, stockAdjustedData(updated, product.Stock))
		}
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	u.invalidate(ctx, op, barcode, updated.Barcode)
	return updated, nil
}

// DeleteProduct удаляет товар. Прошлые продажи не затрагиваются.
func (u *InventoryUseCase) DeleteProduct(ctx context.Context, barcode string) (*DeleteProductRes, error) {
	const op = "InventoryUseCase.DeleteProduct"

	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		product, err := u.productRepo.GetByBarcodeForUpdate(ctx, barcode)
		if err != nil {
			return err
		}

		if err := u.productRepo.Delete(ctx, product.ID); err != nil {
			return err
		}

		return u.writeEvent(ctx, domain.EventProductDeleted, product.Barcode, productDeletedData(product))
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	u.invalidate(ctx, op, barcode)
	u.logger.Infof("product deleted: barcode=%s", barcode)
	return NewDeleteProductRes(barcode), nil
}

// AdjustStock меняет остаток относительно (adjustment) или абсолютно (stock).
// Отрицательный или слишком большой результат отклоняется, остаток не меняется.
// Как и в UpdateProduct, тело проверяется только для существующего товара.
func (u *InventoryUseCase) AdjustStock(ctx context.Context, barcode string, fields Fields) (*AdjustStockRes, error) {
	const op = "InventoryUseCase.AdjustStock"

	var product *domain.Product
	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		var err error
		product, err = u.productRepo.GetByBarcodeForUpdate(ctx, barcode)
		if err != nil {
			return err
		}

		req, err := DecodeAdjustStockReq(fields)
		if err != nil {
			return err
		}

		previousStock := product.Stock
		newStock := previousStock
		if req.Adjustment != nil {
			newStock += *req.Adjustment
		} else {
			newStock = *req.Stock
		}
		if newStock < 0 {
			return e.NewNegativeStockError()
		}
		if newStock > domain.MaxStock {
			return e.NewOutOfRangeError("Stock", fmt.Sprintf("cannot exceed %d", domain.MaxStock))
		}

		if err := u.productRepo.UpdateStock(ctx, product.ID, newStock); err != nil {
			return err
		}
		product.Stock = newStock

		if newStock == previousStock {
			return nil
		}
		return u.writeEvent(ctx, domain.EventStockAdjusted, product.Barcode, stockAdjustedData(product, previousStock))
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	u.invalidate(ctx, op, barcode)
	return NewAdjustStockRes(product), nil
}

// InventorySummary считает сводку по складу. Стоимость округляется до копеек.
func (u *InventoryUseCase) InventorySummary(ctx context.Context) (*domain.InventorySummary, error) {
	const op = "InventoryUseCase.InventorySummary"

	agg, err := u.productRepo.Aggregate(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &domain.InventorySummary{
		TotalProducts:  agg.Total,
		InStock:        agg.InStock,
		LowStock:       agg.LowStock,
		OutOfStock:     agg.OutOfStock,
		InventoryValue: decimal.NewFromFloat(agg.Value).Round(2).InexactFloat64(),
	}, nil
}

// UploadProductImage загружает изображение в MinIO и записывает его URL в товар.
// При ошибке после загрузки объект удаляется в фоне.
func (u *InventoryUseCase) UploadProductImage(ctx context.Context, barcode string, image ProductImage) (*domain.Product, error) {
	const op = "InventoryUseCase.UploadProductImage"

	if len(image.Data) == 0 {
		return nil, e.Wrap(op, e.ErrNoImages)
	}

	// 404 до загрузки, чтобы не плодить объекты для несуществующих товаров
	if _, err := u.productRepo.GetByBarcode(ctx, barcode); err != nil {
		return nil, e.Wrap(op, err)
	}

	uploaded, err := u.imagesInfra.UploadImage(ctx, NewUploadImageReq(barcode, image))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var product *domain.Product
	err = u.trManager.Do(ctx, func(ctx context.Context) error {
		var err error
		product, err = u.productRepo.GetByBarcodeForUpdate(ctx, barcode)
		if err != nil {
			return err
		}

		product.ImageURL = &uploaded.URL
		product, err = u.productRepo.Update(ctx, product)
		return err
	})
	if err != nil {
		u.logger.Warnf(
			"Cleaning up orphaned image after transaction failure. barcode: %s, error: %v",
			barcode,
			e.Wrap(op, err),
		)
		u.imagesInfra.CleanupImages([]string{uploaded.Key})
		return nil, e.Wrap(op, err)
	}

	u.invalidate(ctx, op, barcode)
	return product, nil
}

// ensureBarcodeFree проверяет, что штрихкод не занят другим товаром.
func (u *InventoryUseCase) ensureBarcodeFree(ctx context.Context, barcode string, selfID int64) error {
	existing, err := u.productRepo.GetByBarcode(ctx, barcode)
	if errors.Is(err, e.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return e.NewConflictError("Barcode already in use", barcode)
	}
	return nil
}

func (u *InventoryUseCase) ensureSKUFree(ctx context.Context, sku string, selfID int64) error {
	existing, err := u.productRepo.GetBySKU(ctx, sku)
	if errors.Is(err, e.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return e.NewConflictError("SKU already in use", sku)
	}
	return nil
}

// writeEvent пишет событие в outbox в текущей транзакции.
func (u *InventoryUseCase) writeEvent(ctx context.Context, eventType string, key string, data map[string]any) error {
	event, err := newOutboxEvent(eventType, key, data, u.now())
	if err != nil {
		return err
	}

	_, err = u.outboxRepo.Create(ctx, event)
	return err
}

// invalidate удаляет товары из кэша после коммита. Ошибка не влияет на результат операции.
func (u *InventoryUseCase) invalidate(ctx context.Context, op string, barcodes ...string) {
	if err := u.cacheRepo.DeleteProducts(ctx, uniqueStrings(barcodes)); err != nil {
		u.logger.Warnf("Failed to delete products from cache: %v", e.Wrap(op, err))
	}
}

func validateAddProduct(req *AddProductReq) error {
	if req == nil {
		return e.NewMissingFieldsError([]string{"name", "barcode", "price"})
	}

	var missing []string
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(req.Barcode) == "" {
		missing = append(missing, "barcode")
	}
	if len(missing) > 0 {
		return e.NewMissingFieldsError(missing)
	}

	if req.Price < 0 {
		return e.NewValidationError("Price cannot be negative")
	}
	if req.Stock < 0 {
		return e.NewNegativeStockError()
	}
	if req.Stock > domain.MaxStock {
		return e.NewOutOfRangeError("Stock", fmt.Sprintf("cannot exceed %d", domain.MaxStock))
	}

	return checkLengths(
		stringLimit{"name", &req.Name, domain.MaxNameLen},
		stringLimit{"barcode", &req.Barcode, domain.MaxBarcodeLen},
		stringLimit{"sku", req.SKU, domain.MaxSKULen},
		stringLimit{"brand", req.Brand, domain.MaxBrandLen},
		stringLimit{"category", req.Category, domain.MaxCategoryLen},
		stringLimit{"size", req.Size, domain.MaxSizeLen},
		stringLimit{"color", req.Color, domain.MaxColorLen},
		stringLimit{"image_url", req.ImageURL, domain.MaxImageURLLen},
	)
}

func validatePatch(patch *ProductPatch) error {
	if patch.Name.Set && strings.TrimSpace(patch.Name.Value) == "" {
		return e.NewValidationError("name cannot be empty")
	}
	if patch.Barcode.Set && strings.TrimSpace(patch.Barcode.Value) == "" {
		return e.NewValidationError("barcode cannot be empty")
	}
	if patch.Stock.Set && patch.Stock.Value < 0 {
		return e.NewNegativeStockError()
	}
	if patch.Stock.Set && patch.Stock.Value > domain.MaxStock {
		return e.NewOutOfRangeError("Stock", fmt.Sprintf("cannot exceed %d", domain.MaxStock))
	}
	if patch.Price.Set && patch.Price.Value < 0 {
		return e.NewValidationError("Price cannot be negative")
	}

	var limits []stringLimit
	if patch.Name.Set {
		limits = append(limits, stringLimit{"name", &patch.Name.Value, domain.MaxNameLen})
	}
	if patch.Barcode.Set {
		limits = append(limits, stringLimit{"barcode", &patch.Barcode.Value, domain.MaxBarcodeLen})
	}
	optional := []struct {
		name  string
		field Optional[*string]
		max   int
	}{
		{"sku", patch.SKU, domain.MaxSKULen},
		{"brand", patch.Brand, domain.MaxBrandLen},
		{"category", patch.Category, domain.MaxCategoryLen},
		{"size", patch.Size, domain.MaxSizeLen},
		{"color", patch.Color, domain.MaxColorLen},
		{"image_url", patch.ImageURL, domain.MaxImageURLLen},
	}
	for _, o := range optional {
		if o.field.Set {
			limits = append(limits, stringLimit{o.name, o.field.Value, o.max})
		}
	}

	return checkLengths(limits...)
}

// stringLimit — строковое поле и его предельная длина в символах. nil не проверяется.
type stringLimit struct {
	name  string
	value *string
	max   int
}

func checkLengths(limits ...stringLimit) error {
	for _, l := range limits {
		if l.value != nil && utf8.RuneCountInString(*l.value) > l.max {
			return e.NewOutOfRangeError(l.name, fmt.Sprintf("must be at most %d characters", l.max))
		}
	}
	return nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
