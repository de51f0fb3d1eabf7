package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/calmnights/checkout-service/internal/models"
)

type CouponRepo struct {
	db *sql.DB
}

func NewCouponRepo(db *sql.DB) *CouponRepo {
	return &CouponRepo{db: db}
}

// GetByCode looks a coupon up by its code. Returns (nil, nil) when the
// code is unknown; the caller decides whether that is an error.
func (r *CouponRepo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon

	query := `
		SELECT id, code, discount_kind, value, active, created_at
		FROM coupons
		WHERE code = $1
	`

	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&c.ID,
		&c.Code,
		&c.Kind,
		&c.Value,
		&c.Active,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &c, nil
}

// CreateCoupon inserts a coupon (operator action) and returns its id.
func (r *CouponRepo) CreateCoupon(ctx context.Context, c *models.Coupon) (int, error) {
	query := `
		INSERT INTO coupons (code, discount_kind, value, active, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`
	var id int
	err := r.db.QueryRowContext(ctx, query, c.Code, c.Kind, c.Value, c.Active).Scan(&id)
	return id, err
}
