package domain

// Типы доменных событий, публикуемых через outbox.
const (
	EventSaleRecorded   = "sale.recorded"
	EventStockAdjusted  = "stock.adjusted"
	EventProductDeleted = "product.deleted"
)
