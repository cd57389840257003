package pgdb

import (
	"errors"

	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation        = "23505"
	checkViolation         = "23514"
	stringDataTruncation   = "22001"
	numericValueOutOfRange = "22003"
)

// postgresDuplicate сообщает о нарушении уникального ограничения.
func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

// translateErr переводит ошибки ограничений Postgres в ошибки сервиса:
// нарушение уникальности barcode/sku в ConflictError,
// слишком длинную строку, переполнение числа и нарушение CHECK в ValidationError.
func translateErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case uniqueViolation:
		detail := pgErr.Detail
		if detail == "" {
			detail = pgErr.ConstraintName
		}
		return e.NewConflictError("Product already exists", detail)
	case stringDataTruncation:
		return &e.ValidationError{Msg: "Value too long", Reason: "out of range"}
	case numericValueOutOfRange:
		return &e.ValidationError{Msg: "Numeric value out of range", Reason: "out of range"}
	case checkViolation:
		if pgErr.ConstraintName == "products_stock_non_negative" {
			return e.NewNegativeStockError()
		}
		return &e.ValidationError{Msg: "Value violates constraint " + pgErr.ConstraintName}
	}

	return err
}

func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
