package domain

const (
	// LowStockThreshold — верхняя граница «мало на складе» включительно.
	LowStockThreshold = 10
)

// StockLevel — класс остатка товара.
type StockLevel string

const (
	StockLevelIn  StockLevel = "in_stock"
	StockLevelLow StockLevel = "low_stock"
	StockLevelOut StockLevel = "out_of_stock"
)

// ClassifyStock относит остаток ровно к одному классу: >10, (0;10], <=0.
func ClassifyStock(stock int) StockLevel {
	switch {
	case stock > LowStockThreshold:
		return StockLevelIn
	case stock > 0:
		return StockLevelLow
	default:
		return StockLevelOut
	}
}

// InventoryAggregate — агрегаты по каталогу, считаются хранилищем.
type InventoryAggregate struct {
	Total      int64
	InStock    int64
	LowStock   int64
	OutOfStock int64
	Value      float64
}

// InventorySummary — итоговая сводка по складу.
type InventorySummary struct {
	TotalProducts  int64
	InStock        int64
	LowStock       int64
	OutOfStock     int64
	InventoryValue float64
}
