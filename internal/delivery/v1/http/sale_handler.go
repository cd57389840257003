package http

import (
	"net/http"

	"github.com/AhmadZaarour/store-manager-web-app/internal/usecase"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
)

type SaleHandler struct {
	inventoryUsecase usecase.InventoryUC
	logger           logger.Logger
}

func NewSaleHandler(inventoryUsecase usecase.InventoryUC, logger logger.Logger) *SaleHandler {
	return &SaleHandler{inventoryUsecase: inventoryUsecase, logger: logger}
}

// recordSale
//
//	@Summary		Проведение продажи
//	@Description	Списывает остатки по всем позициям и записывает продажу. При любой ошибке ничего не меняется
//	@Tags			sales
//	@Accept			json
//	@Produce		json
//	@Param			sale	body		object	true	"items, date, cart_total, payment_method"
//	@Success		201		{object}	SaleResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации или нехватка товара"
//	@Failure		404		{object}	ErrorResponse
//	@Router			/sales [post]
func (s *SaleHandler) recordSale(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		logError(s.logger, err)
		WriteError(w, err)
		return
	}

	req, err := usecase.DecodeRecordSaleReq(fields)
	if err != nil {
		logError(s.logger, err)
		WriteError(w, err)
		return
	}

	sale, err := s.inventoryUsecase.RecordSale(r.Context(), req)
	if err != nil {
		logError(s.logger, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toSaleResponse(sale))
}

// listSales
//
//	@Summary	Журнал продаж
//	@Tags		sales
//	@Produce	json
//	@Success	200	{array}		SaleResponse
//	@Failure	500	{object}	ErrorResponse
//	@Router		/sales [get]
func (s *SaleHandler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := s.inventoryUsecase.ListSales(r.Context())
	if err != nil {
		logError(s.logger, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toSaleResponses(sales))
}
