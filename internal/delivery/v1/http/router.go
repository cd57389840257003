package http

import (
	"net/http"
	"time"

	_ "github.com/AhmadZaarour/store-manager-web-app/docs" // Регистрация swagger-спецификации
	"github.com/AhmadZaarour/store-manager-web-app/internal/usecase"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// Init регистрирует маршруты API. Одни и те же обработчики доступны
// и от корня, и под префиксом /api/v1.
func (r *Router) Init(inventoryUC usecase.InventoryUC) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.Recoverer)
	r.router.Use(requestLogger(r.logger))

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.router.Get("/healthz", healthz)

	prHandler := NewProductHandler(inventoryUC, r.logger)
	saleHandler := NewSaleHandler(inventoryUC, r.logger)
	invHandler := NewInventoryHandler(inventoryUC, r.logger)

	register := func(api chi.Router) {
		registerProductRoutes(api, prHandler)
		registerSaleRoutes(api, saleHandler)
		registerInventoryRoutes(api, invHandler)
	}

	register(r.router)
	r.router.Route("/api/v1", func(v1 chi.Router) {
		register(v1)
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Post("/", prHandler.addProduct)

		pr.Route("/{barcode}", func(one chi.Router) {
			one.Get("/", prHandler.getProduct)
			one.Put("/", prHandler.updateProduct)
			one.Patch("/", prHandler.updateProduct)
			one.Delete("/", prHandler.deleteProduct)
			one.Post("/stock", prHandler.adjustStock)
			one.Post("/image", prHandler.uploadProductImage)
		})
	})
}

func registerSaleRoutes(router chi.Router, saleHandler *SaleHandler) {
	router.Route("/sales", func(s chi.Router) {
		s.Get("/", saleHandler.listSales)
		s.Post("/", saleHandler.recordSale)
	})
}

func registerInventoryRoutes(router chi.Router, invHandler *InventoryHandler) {
	router.Get("/inventory/summary", invHandler.summary)
}

// requestLogger пишет в лог метод, путь, статус и длительность каждого запроса.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Infof("%s %s %d %dB %s request_id=%s",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start), middleware.GetReqID(r.Context()))
		})
	}
}
