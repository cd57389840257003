package converter

import "github.com/AhmadZaarour/store-manager-web-app/internal/domain"

// ProductConverter преобразует Product между domain и моделью кэша.
type ProductConverter struct{}

func (ProductConverter) ToRedisModel(entity *domain.Product) *ProductRedisModel {
	return &ProductRedisModel{
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

func (ProductConverter) ToEntity(model *ProductRedisModel) *domain.Product {
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
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
