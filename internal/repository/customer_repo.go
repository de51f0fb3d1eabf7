package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/calmnights/checkout-service/internal/models"
)

type CustomerRepo struct {
	db *sql.DB
}

func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

const customerColumns = `id, email, name, tier, profile_complete, created_at, updated_at`

func scanCustomer(row *sql.Row) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(
		&c.ID,
		&c.Email,
		&c.Name,
		&c.Tier,
		&c.ProfileComplete,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetByEmail matches case-insensitively inside the finalizer transaction.
// Returns (nil, nil) when no customer has the email.
func (r *CustomerRepo) GetByEmail(ctx context.Context, tx *sql.Tx, email string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE lower(email) = lower($1)`
	return scanCustomer(tx.QueryRowContext(ctx, query, email))
}

// GetByID reads a customer outside any transaction.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return scanCustomer(r.db.QueryRowContext(ctx, query, id))
}

// Create inserts a provisional customer created at purchase time. Profile
// fields stay untouched for existing customers; this is only ever called
// when GetByEmail found nothing.
func (r *CustomerRepo) Create(ctx context.Context, tx *sql.Tx, c *models.Customer) error {
	query := `
		INSERT INTO customers (id, email, name, tier, profile_complete, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := tx.ExecContext(ctx, query, c.ID, c.Email, c.Name, c.Tier, c.ProfileComplete)
	return err
}

// GrantEntitlement adds the course to the customer's entitlement set.
// Re-purchasing an owned course is a no-op, not a duplicate row.
func (r *CustomerRepo) GrantEntitlement(ctx context.Context, tx *sql.Tx, customerID, productID string) error {
	query := `
		INSERT INTO entitlements (customer_id, product_id, granted_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (customer_id, product_id) DO NOTHING
	`
	_, err := tx.ExecContext(ctx, query, customerID, productID)
	return err
}

// Entitlements lists the product ids a customer is entitled to.
func (r *CustomerRepo) Entitlements(ctx context.Context, customerID string) ([]string, error) {
	query := `SELECT product_id FROM entitlements WHERE customer_id = $1`
	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
