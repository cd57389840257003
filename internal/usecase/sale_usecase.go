package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
)

// RecordSale проводит продажу в одной транзакции: списание остатков всех позиций,
// запись продажи и события sale.recorded применяются целиком либо не применяются вовсе.
func (u *InventoryUseCase) RecordSale(ctx context.Context, req *RecordSaleReq) (*domain.Sale, error) {
	const op = "InventoryUseCase.RecordSale"

	if req == nil || len(req.Items) == 0 {
		return nil, e.NewValidationError("No items provided")
	}

	date := u.now()
	if req.Date != nil {
		date = req.Date.UTC()
	}

	paymentMethod := req.PaymentMethod
	if strings.TrimSpace(paymentMethod) == "" {
		paymentMethod = domain.DefaultPaymentMethod
	}
	if utf8.RuneCountInString(paymentMethod) > domain.MaxPaymentMethodLen {
		return nil, e.NewOutOfRangeError("payment_method",
			fmt.Sprintf("must be at most %d characters", domain.MaxPaymentMethodLen))
	}

	var (
		sale    *domain.Sale
		touched []string
	)
	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		locked, missing, err := u.lockSaleProducts(ctx, req.Items)
		if err != nil {
			return err
		}

		// порядок первого появления в запросе, от него зависит штрихкод продажи
		touched = touched[:0]
		seen := make(map[string]struct{}, len(locked))

		items := make([]domain.SaleItem, 0, len(req.Items))
		quantitySold := 0

		for _, item := range req.Items {
			if strings.TrimSpace(item.Barcode) == "" {
				return e.NewValidationError("Item barcode is required")
			}

			quantity := 1
			if item.Quantity != nil {
				quantity = *item.Quantity
			}
			if quantity < 1 {
				return e.NewValidationError("Quantity must be a positive integer")
			}

			if notFound, ok := missing[item.Barcode]; ok {
				return notFound
			}
			product := locked[item.Barcode]
			if _, ok := seen[item.Barcode]; !ok {
				seen[item.Barcode] = struct{}{}
				touched = append(touched, item.Barcode)
			}

			if quantity > product.Stock {
				return e.NewInsufficientStockError(product.Name, product.Stock)
			}

			product.Stock -= quantity
			quantitySold += quantity
			if quantitySold > domain.MaxStock {
				return e.NewOutOfRangeError("Quantity sold", fmt.Sprintf("cannot exceed %d", domain.MaxStock))
			}
			items = append(items, domain.SaleItem{
				Barcode:   product.Barcode,
				Name:      product.Name,
				Quantity:  quantity,
				UnitPrice: product.Price,
			})
			if domain.ClassifyStock(product.Stock) != domain.StockLevelIn {
				u.logger.Debugf("stock of %s drops to %d after sale", product.Barcode, product.Stock)
			}
		}

		for _, barcode := range touched {
			product := locked[barcode]
			if err := u.productRepo.UpdateStock(ctx, product.ID, product.Stock); err != nil {
				return err
			}
		}

		saleBarcode := domain.MultiItemBarcode
		if len(touched) == 1 {
			saleBarcode = touched[0]
		}

		sale, err = u.saleRepo.Append(ctx, &domain.Sale{
			Barcode:       saleBarcode,
			Items:         items,
			QuantitySold:  quantitySold,
			Price:         req.CartTotal,
			PaymentMethod: paymentMethod,
			Date:          date,
		})
		if err != nil {
			return err
		}

		return u.writeEvent(ctx, domain.EventSaleRecorded, strconv.FormatInt(sale.ID, 10), saleRecordedData(sale))
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	u.invalidate(ctx, op, touched...)
	u.logger.Infof("sale recorded: id=%d items=%d quantity=%d", sale.ID, len(sale.Items), sale.QuantitySold)
	return sale, nil
}

// lockSaleProducts блокирует товары продажи строго в порядке возрастания штрихкода.
// Отсутствующие товары не прерывают блокировку: их ошибки возвращаются в missing
// и отдаются, когда до позиции дойдёт проверка в порядке запроса.
func (u *InventoryUseCase) lockSaleProducts(ctx context.Context, items []SaleItemReq) (map[string]*domain.Product, map[string]error, error) {
	barcodes := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Barcode) != "" {
			barcodes = append(barcodes, item.Barcode)
		}
	}
	barcodes = uniqueStrings(barcodes)
	sort.Strings(barcodes)

	locked := make(map[string]*domain.Product, len(barcodes))
	missing := make(map[string]error)
	for _, barcode := range barcodes {
		product, err := u.productRepo.GetByBarcodeForUpdate(ctx, barcode)
		if errors.Is(err, e.ErrNotFound) {
			missing[barcode] = err
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		locked[barcode] = product
	}

	return locked, missing, nil
}

func (u *InventoryUseCase) ListSales(ctx context.Context) ([]domain.Sale, error) {
	const op = "InventoryUseCase.ListSales"

	sales, err := u.saleRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return sales, nil
}
