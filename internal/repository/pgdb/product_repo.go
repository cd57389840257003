package pgdb

import (
	"context"
	"strconv"

	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
	"github.com/AhmadZaarour/store-manager-web-app/internal/repository/pgdb/converter"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const productColumns = `id, barcode, name, sku, brand, category, size, color, stock, price, image_url, created_at, updated_at`

// ProductRepo реализует каталог товаров поверх PostgreSQL.
// Внутри транзакции из контекста запросы идут через неё, иначе через пул.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// Create добавляет товар. Дубликат barcode или sku возвращается как ConflictError.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		INSERT INTO products (barcode, name, sku, brand, category, size, color, stock, price, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + productColumns

	row := tr.Conn(ctx, p.pool).QueryRow(ctx, query,
		model.Barcode, model.Name, model.SKU, model.Brand, model.Category,
		model.Size, model.Color, model.Stock, model.Price, model.ImageURL,
	)

	created, err := p.scan(row)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), translateErr(err))
	}

	return created, nil
}

func (p *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	return p.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE barcode = $1`, "barcode", barcode)
}

// GetByBarcodeForUpdate блокирует строку товара до конца транзакции.
func (p *ProductRepo) GetByBarcodeForUpdate(ctx context.Context, barcode string) (*domain.Product, error) {
	return p.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE barcode = $1 FOR UPDATE`, "barcode", barcode)
}

func (p *ProductRepo) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return p.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, "sku", sku)
}

// List возвращает весь каталог в порядке добавления.
func (p *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := tr.Conn(ctx, p.pool).Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		product, err := p.scan(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// Update сохраняет все изменяемые поля товара.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		UPDATE products SET
			barcode = $2, name = $3, sku = $4, brand = $5, category = $6,
			size = $7, color = $8, stock = $9, price = $10, image_url = $11,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	row := tr.Conn(ctx, p.pool).QueryRow(ctx, query,
		model.ID, model.Barcode, model.Name, model.SKU, model.Brand, model.Category,
		model.Size, model.Color, model.Stock, model.Price, model.ImageURL,
	)

	updated, err := p.scan(row)
	if err != nil {
		if noRows(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.NewProductNotFound(product.Barcode))
		}
		return nil, e.Wrap(whereami.WhereAmI(), translateErr(err))
	}

	return updated, nil
}

func (p *ProductRepo) UpdateStock(ctx context.Context, id int64, stock int) error {
	query := `UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`

	tag, err := tr.Conn(ctx, p.pool).Exec(ctx, query, id, stock)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), translateErr(err))
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.NewNotFound("Product", "id", strconv.FormatInt(id, 10)))
	}

	return nil
}

// Delete удаляет товар. Продажи хранят позиции по значению и не затрагиваются.
func (p *ProductRepo) Delete(ctx context.Context, id int64) error {
	if _, err := tr.Conn(ctx, p.pool).Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	return nil
}

// Aggregate считает классы остатков и стоимость склада одним запросом.
func (p *ProductRepo) Aggregate(ctx context.Context) (*domain.InventoryAggregate, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE stock > $1),
			COUNT(*) FILTER (WHERE stock > 0 AND stock <= $1),
			COUNT(*) FILTER (WHERE stock <= 0),
			COALESCE(SUM(stock * price), 0)
		FROM products
	`

	var agg domain.InventoryAggregate
	err := tr.Conn(ctx, p.pool).QueryRow(ctx, query, domain.LowStockThreshold).
		Scan(&agg.Total, &agg.InStock, &agg.LowStock, &agg.OutOfStock, &agg.Value)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &agg, nil
}

func (p *ProductRepo) getOne(ctx context.Context, query string, field string, key string) (*domain.Product, error) {
	product, err := p.scan(tr.Conn(ctx, p.pool).QueryRow(ctx, query, key))
	if err != nil {
		if noRows(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.NewNotFound("Product", field, key))
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	return product, nil
}

func (p *ProductRepo) scan(row pgx.Row) (*domain.Product, error) {
	var model converter.ProductModel
	if err := row.Scan(
		&model.ID, &model.Barcode, &model.Name, &model.SKU, &model.Brand, &model.Category,
		&model.Size, &model.Color, &model.Stock, &model.Price, &model.ImageURL,
		&model.CreatedAt, &model.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return p.conv.ToEntity(&model), nil
}
