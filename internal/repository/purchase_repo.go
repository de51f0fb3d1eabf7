package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/calmnights/checkout-service/internal/models"
)

type PurchaseRepo struct {
	db *sql.DB
}

func NewPurchaseRepo(db *sql.DB) *PurchaseRepo {
	return &PurchaseRepo{db: db}
}

// GetByTransactionID returns the purchase recorded for a processor
// transaction id, or (nil, nil) when none exists.
func (r *PurchaseRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.Purchase, error) {
	var p models.Purchase

	query := `
		SELECT id, transaction_id, customer_id, product_id,
		       original_amount, discount_amount, final_amount, currency, created_at
		FROM purchases
		WHERE transaction_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, transactionID).Scan(
		&p.ID,
		&p.TransactionID,
		&p.CustomerID,
		&p.ProductID,
		&p.OriginalAmount,
		&p.DiscountAmount,
		&p.FinalAmount,
		&p.Currency,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &p, nil
}

// Insert writes the purchase record inside the finalizer transaction. The
// unique constraint on transaction_id is the idempotency guard: a
// concurrent confirmation for the same transaction surfaces here as
// models.ErrDuplicateTransaction.
func (r *PurchaseRepo) Insert(ctx context.Context, tx *sql.Tx, p *models.Purchase) error {
	query := `
		INSERT INTO purchases
		(id, transaction_id, customer_id, product_id,
		 original_amount, discount_amount, final_amount, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := tx.ExecContext(ctx, query,
		p.ID,
		p.TransactionID,
		p.CustomerID,
		p.ProductID,
		p.OriginalAmount,
		p.DiscountAmount,
		p.FinalAmount,
		p.Currency,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", models.ErrDuplicateTransaction, p.TransactionID)
		}
		return err
	}
	return nil
}
