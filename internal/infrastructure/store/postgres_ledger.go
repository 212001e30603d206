package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/ec-orders/internal/domain/inventory"
)

// PostgresLedger keeps stock counts in the inventory table. Deduct relies on
// a conditional UPDATE so two concurrent deductions for the same product can
// never drive stock below zero.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Reserve(ctx context.Context, productID, variantID string, qty int) error {
	if qty <= 0 {
		return inventory.ErrInvalidQuantity
	}

	available, err := l.Available(ctx, productID, variantID)
	if err != nil {
		return err
	}
	if available < qty {
		return inventory.ErrInsufficientStock
	}
	return nil
}

func (l *PostgresLedger) Deduct(ctx context.Context, productID, variantID string, qty int) error {
	if qty <= 0 {
		return inventory.ErrInvalidQuantity
	}

	result, err := l.db.ExecContext(ctx,
		`UPDATE inventory SET stock = stock - $3, updated_at = now()
		 WHERE product_id = $1 AND variant_id = $2 AND stock >= $3`,
		productID, variantID, qty,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the row is missing or stock was too low.
		if _, err := l.Available(ctx, productID, variantID); err != nil {
			return err
		}
		return inventory.ErrInsufficientStock
	}
	return nil
}

func (l *PostgresLedger) Release(ctx context.Context, productID, variantID string, qty int) error {
	return l.addStock(ctx, productID, variantID, qty)
}

func (l *PostgresLedger) AddStock(ctx context.Context, productID, variantID string, qty int) error {
	return l.addStock(ctx, productID, variantID, qty)
}

func (l *PostgresLedger) addStock(ctx context.Context, productID, variantID string, qty int) error {
	if qty <= 0 {
		return inventory.ErrInvalidQuantity
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO inventory (product_id, variant_id, stock)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (product_id, variant_id)
		 DO UPDATE SET stock = inventory.stock + EXCLUDED.stock, updated_at = now()`,
		productID, variantID, qty,
	)
	return err
}

func (l *PostgresLedger) Available(ctx context.Context, productID, variantID string) (int, error) {
	var stock int
	err := l.db.QueryRowContext(ctx,
		`SELECT stock FROM inventory WHERE product_id = $1 AND variant_id = $2`,
		productID, variantID,
	).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, inventory.ErrNotTracked
		}
		return 0, err
	}
	return stock, nil
}
