package e

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Классы ошибок сервиса, сопоставляются через errors.Is
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// 400 Bad Request
	ErrInvalidJSON          = fmt.Errorf("invalid JSON body")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrNoImages             = fmt.Errorf("no image provided")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")

	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// ValidationError описывает некорректный ввод клиента.
// Missing перечисляет все отсутствующие обязательные поля,
// Available — остаток товара при нехватке на складе.
type ValidationError struct {
	Msg       string
	Missing   []string
	Available *int
	Reason    string
}

func (v *ValidationError) Error() string {
	switch {
	case len(v.Missing) > 0:
		return fmt.Sprintf("%s: %s", v.Msg, strings.Join(v.Missing, ", "))
	case v.Available != nil:
		return fmt.Sprintf("%s (available: %d)", v.Msg, *v.Available)
	default:
		return v.Msg
	}
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError — запрошенная сущность отсутствует.
// Field — имя ключа поиска (barcode, sku, id), Key — его значение.
type NotFoundError struct {
	Entity string
	Field  string
	Key    string
}

func (n *NotFoundError) Error() string {
	field := n.Field
	if field == "" {
		field = "key"
	}
	return fmt.Sprintf("%s with %s %s not found", n.Entity, field, n.Key)
}

func (n *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError — нарушение уникальности barcode/sku.
type ConflictError struct {
	Msg    string
	Detail string
}

func (c *ConflictError) Error() string {
	if c.Detail == "" {
		return c.Msg
	}
	return fmt.Sprintf("%s: %s", c.Msg, c.Detail)
}

func (c *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

func NewMissingFieldsError(missing []string) *ValidationError {
	return &ValidationError{Msg: "Missing required fields", Missing: missing}
}

func NewInsufficientStockError(name string, available int) *ValidationError {
	return &ValidationError{
		Msg:       fmt.Sprintf("Insufficient stock for %s", name),
		Available: &available,
		Reason:    "insufficient stock",
	}
}

func NewNegativeStockError() *ValidationError {
	return &ValidationError{Msg: "Stock cannot be negative", Reason: "negative stock"}
}

func NewProductNotFound(barcode string) *NotFoundError {
	return &NotFoundError{Entity: "Product", Field: "barcode", Key: barcode}
}

// NewNotFound — отсутствие сущности по произвольному ключу.
func NewNotFound(entity, field, key string) *NotFoundError {
	return &NotFoundError{Entity: entity, Field: field, Key: key}
}

// NewOutOfRangeError — значение не помещается в допустимые границы поля.
func NewOutOfRangeError(field string, detail string) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf("%s %s", field, detail), Reason: "out of range"}
}

func NewConflictError(msg, detail string) *ConflictError {
	return &ConflictError{Msg: msg, Detail: detail}
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
