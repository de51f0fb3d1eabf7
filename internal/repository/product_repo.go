package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/calmnights/checkout-service/internal/models"
)

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// GetProduct loads the product and its regional price table. Returns
// (nil, nil) when the id is unknown.
func (r *ProductRepo) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product

	query := `
		SELECT id, name, entitlement_type, base_amount, base_currency, created_at
		FROM products
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.EntitlementType,
		&p.BaseAmount,
		&p.BaseCurrency,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	prices, err := r.getPrices(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Prices = prices

	return &p, nil
}

func (r *ProductRepo) getPrices(ctx context.Context, productID string) (map[string]int64, error) {
	query := `SELECT currency, amount FROM product_prices WHERE product_id = $1`
	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := make(map[string]int64)
	for rows.Next() {
		var currency string
		var amount int64
		if err := rows.Scan(&currency, &amount); err != nil {
			return nil, err
		}
		prices[currency] = amount
	}
	return prices, rows.Err()
}

// CreateProduct inserts a product and its price rows in one transaction.
func (r *ProductRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insert := `
		INSERT INTO products (id, name, entitlement_type, base_amount, base_currency, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	if _, err := tx.ExecContext(ctx, insert, p.ID, p.Name, p.EntitlementType, p.BaseAmount, p.BaseCurrency); err != nil {
		return err
	}

	stmt := `INSERT INTO product_prices (product_id, currency, amount) VALUES ($1, $2, $3)`
	for currency, amount := range p.Prices {
		if _, err := tx.ExecContext(ctx, stmt, p.ID, currency, amount); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpsertPrice edits one row of the price table (operator action).
func (r *ProductRepo) UpsertPrice(ctx context.Context, productID, currency string, amount int64) error {
	query := `
		INSERT INTO product_prices (product_id, currency, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, currency) DO UPDATE SET amount = EXCLUDED.amount
	`
	_, err := r.db.ExecContext(ctx, query, productID, currency, amount)
	return err
}
