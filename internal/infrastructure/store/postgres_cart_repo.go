package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/example/ec-orders/internal/domain/cart"
)

// PostgresCartRepository persists carts as one row per user with the items
// stored as a JSONB document.
type PostgresCartRepository struct {
	db *sql.DB
}

func NewPostgresCartRepository(db *sql.DB) *PostgresCartRepository {
	return &PostgresCartRepository{db: db}
}

func (r *PostgresCartRepository) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	var c cart.Cart
	var itemsJSON []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, items, created_at, updated_at FROM carts WHERE user_id = $1`,
		userID,
	).Scan(&c.ID, &c.UserID, &itemsJSON, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &c.Items); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO carts (user_id, id, items, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id)
		 DO UPDATE SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at`,
		c.UserID, c.ID, itemsJSON, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *PostgresCartRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}
