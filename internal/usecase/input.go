package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/shopspring/decimal"
)

// Fields — тело JSON-запроса в сыром виде: ключ -> необработанное значение.
// Отсутствие ключа и явный null различаются.
type Fields map[string]json.RawMessage

// Допустимые форматы даты продажи. Дата без зоны трактуется как UTC.
var isoDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// present сообщает, что ключ есть и значение не null.
func (f Fields) present(key string) bool {
	raw, ok := f[key]
	return ok && !isNull(raw)
}

// ParseInt принимает целое JSON-число, дробное число без дробной части и числовую строку.
func ParseInt(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, fmt.Errorf("empty value")
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		text = strings.TrimSpace(s)
	}

	if i, err := strconv.ParseInt(text, 10, 0); err == nil {
		return int(i), nil
	}

	// JSON-числа вида 5.0 или 1e2
	if raw[0] == '"' {
		return 0, fmt.Errorf("%q is not an integer", text)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not an integer", text)
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%s is not an integer", text)
	}

	return int(f), nil
}

// ParseFloat принимает JSON-число или числовую строку.
func ParseFloat(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, fmt.Errorf("empty value")
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		text = strings.TrimSpace(s)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, fmt.Errorf("%s is not a number", text)
	}

	return d.InexactFloat64(), nil
}

// ParseString принимает только JSON-строку.
func ParseString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", fmt.Errorf("not a string")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("not a string")
	}
	return s, nil
}

// ParseOptionalString: null и пустая строка дают nil.
func ParseOptionalString(raw json.RawMessage) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}
	s, err := ParseString(raw)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

// ParseISODate разбирает дату ISO-8601 и приводит её к UTC.
func ParseISODate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 date", s)
}

var optionalStringFields = []string{"sku", "brand", "category", "size", "color", "image_url"}

// DecodeAddProductReq проверяет тело запроса на добавление товара.
// Отсутствующие обязательные поля перечисляются все сразу.
func DecodeAddProductReq(f Fields) (*AddProductReq, error) {
	var missing []string
	for _, key := range []string{"name", "barcode", "price"} {
		if !f.present(key) || isBlankString(f[key]) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, e.NewMissingFieldsError(missing)
	}

	req := &AddProductReq{}
	var err error

	if req.Name, err = ParseString(f["name"]); err != nil {
		return nil, e.NewValidationError("Name must be a string")
	}
	if req.Barcode, err = ParseString(f["barcode"]); err != nil {
		return nil, e.NewValidationError("Barcode must be a string")
	}
	if req.Price, err = ParseFloat(f["price"]); err != nil {
		return nil, e.NewValidationError("Price must be a number")
	}
	if req.Price < 0 {
		return nil, e.NewValidationError("Price cannot be negative")
	}

	// stock приоритетнее устаревшего quantity
	switch {
	case f.present("stock"):
		if req.Stock, err = ParseInt(f["stock"]); err != nil {
			return nil, e.NewValidationError("Stock must be an integer")
		}
	case f.present("quantity"):
		if req.Stock, err = ParseInt(f["quantity"]); err != nil {
			return nil, e.NewValidationError("Quantity must be an integer")
		}
	}
	if req.Stock < 0 {
		return nil, e.NewNegativeStockError()
	}

	targets := map[string]**string{
		"sku":       &req.SKU,
		"brand":     &req.Brand,
		"category":  &req.Category,
		"size":      &req.Size,
		"color":     &req.Color,
		"image_url": &req.ImageURL,
	}
	for _, key := range optionalStringFields {
		raw, ok := f[key]
		if !ok {
			continue
		}
		v, err := ParseOptionalString(raw)
		if err != nil {
			return nil, e.NewValidationError(fmt.Sprintf("%s must be a string", key))
		}
		*targets[key] = v
	}

	return req, nil
}

// DecodeProductPatch собирает патч из разрешённых ключей, остальные игнорируются.
func DecodeProductPatch(f Fields) (*ProductPatch, error) {
	if len(f) == 0 {
		return nil, e.NewValidationError("No data provided")
	}

	patch := &ProductPatch{}

	for _, key := range []string{"name", "barcode"} {
		raw, ok := f[key]
		if !ok {
			continue
		}
		s, err := ParseString(raw)
		if err != nil {
			return nil, e.NewValidationError(fmt.Sprintf("%s must be a string", key))
		}
		if strings.TrimSpace(s) == "" {
			return nil, e.NewValidationError(fmt.Sprintf("%s cannot be empty", key))
		}
		if key == "name" {
			patch.Name = Some(s)
		} else {
			patch.Barcode = Some(s)
		}
	}

	targets := map[string]*Optional[*string]{
		"sku":       &patch.SKU,
		"brand":     &patch.Brand,
		"category":  &patch.Category,
		"size":      &patch.Size,
		"color":     &patch.Color,
		"image_url": &patch.ImageURL,
	}
	for _, key := range optionalStringFields {
		raw, ok := f[key]
		if !ok {
			continue
		}
		v, err := ParseOptionalString(raw)
		if err != nil {
			return nil, e.NewValidationError(fmt.Sprintf("%s must be a string", key))
		}
		*targets[key] = Some(v)
	}

	if raw, ok := f["stock"]; ok {
		stock, err := ParseInt(raw)
		if err != nil {
			return nil, e.NewValidationError("Stock must be an integer")
		}
		if stock < 0 {
			return nil, e.NewNegativeStockError()
		}
		patch.Stock = Some(stock)
	}

	if raw, ok := f["price"]; ok {
		price, err := ParseFloat(raw)
		if err != nil {
			return nil, e.NewValidationError("Price must be a number")
		}
		if price < 0 {
			return nil, e.NewValidationError("Price cannot be negative")
		}
		patch.Price = Some(price)
	}

	if patch.IsEmpty() {
		return nil, e.NewValidationError("No valid fields to update")
	}

	return patch, nil
}

// DecodeAdjustStockReq: при наличии обоих ключей используется adjustment.
// Значения по модулю не больше domain.MaxStock, поэтому сумма с остатком не переполняется.
func DecodeAdjustStockReq(f Fields) (*AdjustStockReq, error) {
	if raw, ok := f["adjustment"]; ok {
		v, err := ParseInt(raw)
		if err != nil {
			return nil, e.NewValidationError("Adjustment must be an integer")
		}
		if v > domain.MaxStock || v < -domain.MaxStock {
			return nil, e.NewOutOfRangeError("Adjustment", "is out of range")
		}
		return &AdjustStockReq{Adjustment: &v}, nil
	}

	if raw, ok := f["stock"]; ok {
		v, err := ParseInt(raw)
		if err != nil {
			return nil, e.NewValidationError("Stock must be an integer")
		}
		if v > domain.MaxStock || v < -domain.MaxStock {
			return nil, e.NewOutOfRangeError("Stock", fmt.Sprintf("cannot exceed %d", domain.MaxStock))
		}
		return &AdjustStockReq{Stock: &v}, nil
	}

	return nil, e.NewValidationError("Provide adjustment or stock")
}

// DecodeRecordSaleReq проверяет структуру запроса продажи.
// Наличие штрихкода в позициях проверяет сценарий продажи по порядку позиций.
func DecodeRecordSaleReq(f Fields) (*RecordSaleReq, error) {
	if !f.present("items") {
		return nil, e.NewValidationError("No items provided")
	}

	var rawItems []map[string]json.RawMessage
	if err := json.Unmarshal(f["items"], &rawItems); err != nil {
		return nil, e.NewValidationError("Items must be a list of objects")
	}
	if len(rawItems) == 0 {
		return nil, e.NewValidationError("No items provided")
	}

	req := &RecordSaleReq{Items: make([]SaleItemReq, 0, len(rawItems))}
	for _, rawItem := range rawItems {
		item := Fields(rawItem)

		var saleItem SaleItemReq
		if item.present("barcode") {
			barcode, err := ParseString(item["barcode"])
			if err != nil {
				return nil, e.NewValidationError("Item barcode must be a string")
			}
			saleItem.Barcode = barcode
		}

		if item.present("quantity") {
			qty, err := ParseInt(item["quantity"])
			if err != nil {
				return nil, e.NewValidationError("Quantity must be an integer")
			}
			saleItem.Quantity = &qty
		}

		req.Items = append(req.Items, saleItem)
	}

	if f.present("date") && !isBlankString(f["date"]) {
		s, err := ParseString(f["date"])
		if err != nil {
			return nil, e.NewValidationError("Date must be an ISO-8601 string")
		}
		date, err := ParseISODate(s)
		if err != nil {
			return nil, e.NewValidationError("Invalid date format")
		}
		req.Date = &date
	}

	if f.present("cart_total") {
		total, err := ParseFloat(f["cart_total"])
		if err != nil {
			return nil, e.NewValidationError("cart_total must be a number")
		}
		req.CartTotal = total
	}

	if f.present("payment_method") {
		method, err := ParseString(f["payment_method"])
		if err != nil {
			return nil, e.NewValidationError("payment_method must be a string")
		}
		req.PaymentMethod = method
	}

	return req, nil
}

func isBlankString(raw json.RawMessage) bool {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	return strings.TrimSpace(s) == ""
}
