package pgrepo

import (
	"context"

	"github.com/fsdevblog/lumen-credits/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const productColumns = `id, created_at, updated_at, product_id, name, COALESCE(description, ''),
	credits, price::text, currency, active, display_order`

type ProductRepository struct {
	conn DBTX
}

func NewProductRepository(conn DBTX) *ProductRepository {
	return &ProductRepository{conn: conn}
}

func (p *ProductRepository) FindByProductID(ctx context.Context, productID string) (*domain.Product, error) {
	row := p.conn.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE product_id = $1", productID)

	product, err := scanProduct(row)
	if err != nil {
		return nil, convertErr(err, "finding product %s", productID)
	}
	return product, nil
}

// GetActive возвращает активные продукты каталога в порядке отображения в пейволе.
func (p *ProductRepository) GetActive(ctx context.Context) ([]domain.Product, error) {
	rows, err := p.conn.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE active ORDER BY display_order, id")
	if err != nil {
		return nil, convertErr(err, "getting active products")
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, scanErr := scanProduct(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning product")
		}
		products = append(products, *product)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting active products")
	}
	return products, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var product domain.Product
	var price string

	err := row.Scan(
		&product.ID,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.ProductID,
		&product.Name,
		&product.Description,
		&product.Credits,
		&price,
		&product.Currency,
		&product.Active,
		&product.DisplayOrder,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	product.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &product, nil
}
