package http

import (
	"net/http"

	"github.com/AhmadZaarour/store-manager-web-app/internal/usecase"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
)

type InventoryHandler struct {
	inventoryUsecase usecase.InventoryUC
	logger           logger.Logger
}

func NewInventoryHandler(inventoryUsecase usecase.InventoryUC, logger logger.Logger) *InventoryHandler {
	return &InventoryHandler{inventoryUsecase: inventoryUsecase, logger: logger}
}

// summary
//
//	@Summary		Сводка по складу
//	@Description	Количество товаров по классам остатка и стоимость склада
//	@Tags			inventory
//	@Produce		json
//	@Success		200	{object}	InventorySummaryResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/inventory/summary [get]
func (i *InventoryHandler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := i.inventoryUsecase.InventorySummary(r.Context())
	if err != nil {
		logError(i.logger, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toInventorySummaryResponse(summary))
}

// healthz
//
//	@Summary	Проверка живости
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/healthz [get]
func healthz(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, http.StatusOK, HealthResponse{Status: "ok"})
}
