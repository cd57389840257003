package http

import (
	"net/http"

	"github.com/AhmadZaarour/store-manager-web-app/internal/usecase"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	inventoryUsecase usecase.InventoryUC
	logger           logger.Logger
}

func NewProductHandler(inventoryUsecase usecase.InventoryUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{inventoryUsecase: inventoryUsecase, logger: logger}
}

// listProducts
//
//	@Summary		Список товаров
//	@Description	Возвращает весь каталог
//	@Tags			products
//	@Produce		json
//	@Success		200	{array}		ProductResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := p.inventoryUsecase.ListProducts(r.Context())
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponses(products))
}

// addProduct
//
//	@Summary		Добавление товара
//	@Description	Создает товар. Обязательны name, barcode и price; quantity принимается как синоним stock
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			product	body		object			true	"Товар"
//	@Success		201		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации или конфликт"
//	@Router			/products [post]
func (p *ProductHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		p.writeError(w, err)
		return
	}

	req, err := usecase.DecodeAddProductReq(fields)
	if err != nil {
		p.writeError(w, err)
		return
	}

	product, err := p.inventoryUsecase.AddProduct(r.Context(), req)
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toProductResponse(product))
}

// getProduct
//
//	@Summary	Товар по штрихкоду
//	@Tags		products
//	@Produce	json
//	@Param		barcode	path		string	true	"Штрихкод"
//	@Success	200		{object}	ProductResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/products/{barcode} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := p.inventoryUsecase.GetProduct(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// updateProduct
//
//	@Summary		Изменение товара
//	@Description	Частичное обновление. Учитываются только name, barcode, sku, brand, category, size, color, stock, price, image_url
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			barcode	path		string	true	"Штрихкод"
//	@Param			patch	body		object	true	"Изменяемые поля"
//	@Success		200		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/products/{barcode} [put]
//	@Router			/products/{barcode} [patch]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		p.writeError(w, err)
		return
	}

	product, err := p.inventoryUsecase.UpdateProduct(r.Context(), chi.URLParam(r, "barcode"), fields)
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// deleteProduct
//
//	@Summary	Удаление товара
//	@Tags		products
//	@Produce	json
//	@Param		barcode	path		string	true	"Штрихкод"
//	@Success	200		{object}	DeleteProductResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/products/{barcode} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	res, err := p.inventoryUsecase.DeleteProduct(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toDeleteProductResponse(res))
}

// adjustStock
//
//	@Summary		Корректировка остатка
//	@Description	adjustment меняет остаток на величину, stock задает его явно
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			barcode	path		string	true	"Штрихкод"
//	@Param			body	body		object	true	"adjustment или stock"
//	@Success		200		{object}	AdjustStockResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/products/{barcode}/stock [post]
func (p *ProductHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		p.writeError(w, err)
		return
	}

	res, err := p.inventoryUsecase.AdjustStock(r.Context(), chi.URLParam(r, "barcode"), fields)
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toAdjustStockResponse(res))
}

// uploadProductImage
//
//	@Summary		Загрузка изображения товара
//	@Description	Сохраняет изображение в объектном хранилище и записывает его URL в image_url
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			barcode	path		string	true	"Штрихкод"
//	@Param			image	formData	file	true	"Изображение товара"
//	@Success		200		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/products/{barcode}/image [post]
func (p *ProductHandler) uploadProductImage(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 20 << 20
		maxMemory           = 8 << 20
		maxFileSize         = 15 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, err.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	image, err := parseImage(r.MultipartForm, maxFileSize)
	if err != nil {
		p.writeError(w, err)
		return
	}

	product, err := p.inventoryUsecase.UploadProductImage(r.Context(), chi.URLParam(r, "barcode"), *image)
	if err != nil {
		p.writeError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// writeError пишет ответ и логирует ошибку: 5xx как Errorf, клиентские как Warnf.
func (p *ProductHandler) writeError(w http.ResponseWriter, err error) {
	logError(p.logger, err)
	WriteError(w, err)
}

func logError(log logger.Logger, err error) {
	code, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		log.Errorf(err, "%d", code)
		return
	}
	log.Warnf("%d %s", code, err.Error())
}
