package pgdb

import (
	"context"

	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
	"github.com/AhmadZaarour/store-manager-web-app/internal/repository/pgdb/converter"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// SaleRepo — журнал продаж. Записи только добавляются.
type SaleRepo struct {
	pool   *pgxpool.Pool
	conv   converter.SaleConverter
	logger logger.Logger
}

func NewSaleRepo(pool *pgxpool.Pool, conv converter.SaleConverter, logger logger.Logger) *SaleRepo {
	return &SaleRepo{
		pool:   pool,
		conv:   conv,
		logger: logger,
	}
}

func (s *SaleRepo) Append(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	model, err := s.conv.ToModel(sale)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO sales (barcode, items, quantity_sold, price, payment_method, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`

	if err := tr.Conn(ctx, s.pool).QueryRow(ctx, query,
		model.Barcode,
		model.Items,
		model.QuantitySold,
		model.Price,
		model.PaymentMethod,
		model.Date,
	).Scan(&model.ID); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), translateErr(err))
	}

	created := *sale
	created.ID = model.ID
	return &created, nil
}

// List возвращает все продажи по возрастанию id.
// Строка с повреждёнными позициями отдаётся с пустым списком позиций.
func (s *SaleRepo) List(ctx context.Context) ([]domain.Sale, error) {
	query := `
		SELECT id, barcode, items, quantity_sold, price, payment_method, date
		FROM sales
		ORDER BY id
	`

	rows, err := tr.Conn(ctx, s.pool).Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Sale, 0)
	for rows.Next() {
		var model converter.SaleModel
		if err := rows.Scan(
			&model.ID,
			&model.Barcode,
			&model.Items,
			&model.QuantitySold,
			&model.Price,
			&model.PaymentMethod,
			&model.Date,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		sale, err := s.conv.ToEntity(&model)
		if err != nil {
			s.logger.Warnf("sale %d: failed to decode items, returning empty list: %v", model.ID, err)
		}
		result = append(result, *sale)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
