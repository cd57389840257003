package converter

import (
	"encoding/json"

	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
	"github.com/AhmadZaarour/store-manager-web-app/internal/usecase"
)

// ProductConverter преобразует Product между domain и моделью PostgreSQL.
type ProductConverter struct{}

func (ProductConverter) ToModel(entity *domain.Product) *ProductModel {
	return &ProductModel{
		ID:        entity.ID,
		Barcode:   entity.Barcode,
		Name:      entity.Name,
		SKU:       entity.SKU,
		Brand:     entity.Brand,
		Category:  entity.Category,
		Size:      entity.Size,
		Color:     entity.Color,
		Stock:     entity.Stock,
		Price:     entity.Price,
		ImageURL:  entity.ImageURL,
		CreatedAt: entity.CreatedAt,
		UpdatedAt: entity.UpdatedAt,
	}
}

func (ProductConverter) ToEntity(model *ProductModel) *domain.Product {
	return &domain.Product{
		ID:        model.ID,
		Barcode:   model.Barcode,
		Name:      model.Name,
		SKU:       model.SKU,
		Brand:     model.Brand,
		Category:  model.Category,
		Size:      model.Size,
		Color:     model.Color,
		Stock:     model.Stock,
		Price:     model.Price,
		ImageURL:  model.ImageURL,
		CreatedAt: model.CreatedAt.UTC(),
		UpdatedAt: model.UpdatedAt,
	}
}

// SaleConverter преобразует Sale между domain и моделью PostgreSQL.
type SaleConverter struct{}

func (SaleConverter) ToModel(entity *domain.Sale) (*SaleModel, error) {
	items := entity.Items
	if items == nil {
		items = []domain.SaleItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	text := string(raw)

	return &SaleModel{
		ID:            entity.ID,
		Barcode:       entity.Barcode,
		Items:         &text,
		QuantitySold:  entity.QuantitySold,
		Price:         entity.Price,
		PaymentMethod: entity.PaymentMethod,
		Date:          entity.Date,
	}, nil
}

// ToEntity разбирает позиции продажи. Пустой или повреждённый items даёт пустой список
// и ошибку декодирования, которую вызывающий код только логирует.
func (SaleConverter) ToEntity(model *SaleModel) (*domain.Sale, error) {
	sale := &domain.Sale{
		ID:            model.ID,
		Barcode:       model.Barcode,
		Items:         []domain.SaleItem{},
		QuantitySold:  model.QuantitySold,
		Price:         model.Price,
		PaymentMethod: model.PaymentMethod,
		Date:          model.Date.UTC(),
	}

	if model.Items == nil || *model.Items == "" {
		return sale, nil
	}

	var items []domain.SaleItem
	if err := json.Unmarshal([]byte(*model.Items), &items); err != nil {
		return sale, err
	}
	if items != nil {
		sale.Items = items
	}

	return sale, nil
}

// OutboxEventConverter преобразует OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter struct{}

func (OutboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:           entity.ID,
		EventID:      entity.EventID,
		EventType:    entity.EventType,
		AggregateKey: entity.AggregateKey,
		Payload:      entity.Payload,
		Status:       string(entity.Status),
		CreatedAt:    entity.CreatedAt,
		ProcessedAt:  entity.ProcessedAt,
	}
}

func (OutboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:           model.ID,
		EventID:      model.EventID,
		EventType:    model.EventType,
		AggregateKey: model.AggregateKey,
		Payload:      model.Payload,
		Status:       usecase.OutboxStatus(model.Status),
		CreatedAt:    model.CreatedAt,
		ProcessedAt:  model.ProcessedAt,
	}
}

func (c OutboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	result := make([]*usecase.OutboxEvent, 0, len(models))
	for _, m := range models {
		result = append(result, c.ToEntity(m))
	}
	return result
}
