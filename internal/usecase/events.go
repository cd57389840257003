package usecase

import (
	"time"

	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// newOutboxEvent упаковывает данные события в google.protobuf.Struct:
// {event_id, event_type, occurred_at, data}.
func newOutboxEvent(eventType string, aggregateKey string, data map[string]any, now time.Time) (*OutboxEvent, error) {
	const op = "newOutboxEvent"

	eventID := uuid.New().String()
	payload, err := structpb.NewStruct(map[string]any{
		"event_id":    eventID,
		"event_type":  eventType,
		"occurred_at": now.UTC().Format(time.RFC3339Nano),
		"data":        data,
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	raw, err := proto.Marshal(payload)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &OutboxEvent{
		EventID:      eventID,
		EventType:    eventType,
		AggregateKey: aggregateKey,
		Payload:      raw,
		Status:       Pending,
		CreatedAt:    now,
	}, nil
}

func stockAdjustedData(product *domain.Product, previous int) map[string]any {
	return map[string]any{
		"product_id":     product.ID,
		"barcode":        product.Barcode,
		"previous_stock": previous,
		"stock":          product.Stock,
		"stock_level":    string(domain.ClassifyStock(product.Stock)),
	}
}

func productDeletedData(product *domain.Product) map[string]any {
	return map[string]any{
		"product_id": product.ID,
		"barcode":    product.Barcode,
	}
}

func saleRecordedData(sale *domain.Sale) map[string]any {
	items := make([]any, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, map[string]any{
			"barcode":    item.Barcode,
			"name":       item.Name,
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
		})
	}

	return map[string]any{
		"sale_id":        sale.ID,
		"barcode":        sale.Barcode,
		"items":          items,
		"quantity_sold":  sale.QuantitySold,
		"total":          sale.Price,
		"payment_method": sale.PaymentMethod,
		"date":           sale.Date.UTC().Format(time.RFC3339),
	}
}
