package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"

	"github.com/example/ec-orders/internal/domain/order"
)

// PostgresOrderRepository persists orders across the orders, order_items and
// order_status_history tables.
type PostgresOrderRepository struct {
	db *sql.DB
}

func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

const orderColumns = `id, order_number, user_id, status, payment_status,
	shipping_address, billing_address,
	subtotal, tax_amount, shipping_amount, discount_amount, total_amount,
	notes, tracking_number, shipped_at, delivered_at, created_at, updated_at`

func (r *PostgresOrderRepository) Create(ctx context.Context, o *order.Order, idempotencyKey string) error {
	shippingJSON, err := json.Marshal(o.Shipping)
	if err != nil {
		return err
	}
	billingJSON, err := json.Marshal(o.Billing)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// NULLIF keeps the unique index from matching orders created without a key.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, order_number, user_id, status, payment_status,
			shipping_address, billing_address,
			subtotal, tax_amount, shipping_amount, discount_amount, total_amount,
			notes, idempotency_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULLIF($14, ''), $15, $16)`,
		o.ID, o.OrderNumber, o.UserID, o.Status, o.PaymentStatus,
		shippingJSON, billingJSON,
		o.Subtotal, o.TaxAmount, o.ShippingAmount, o.DiscountAmount, o.TotalAmount,
		o.Notes, idempotencyKey, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return order.ErrDuplicateOrder
		}
		return err
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, variant_id, product_name,
				variant_name, sku, quantity, unit_price, total_price)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			o.ID, item.ProductID, item.VariantID, item.ProductName,
			item.VariantName, item.SKU, item.Quantity, item.UnitPrice, item.TotalPrice,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *PostgresOrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*order.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key)
}

func (r *PostgresOrderRepository) getOne(ctx context.Context, query string, arg any) (*order.Order, error) {
	row := r.db.QueryRowContext(ctx, query, arg)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, err
	}

	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PostgresOrderRepository) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
}

func (r *PostgresOrderRepository) ListAll(ctx context.Context) ([]*order.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *PostgresOrderRepository) list(ctx context.Context, query string, args ...any) ([]*order.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	return r.exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
		id, status)
}

func (r *PostgresOrderRepository) UpdatePaymentStatus(ctx context.Context, id string, status order.PaymentStatus) error {
	return r.exec(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1`,
		id, status)
}

func (r *PostgresOrderRepository) UpdateShippingInfo(ctx context.Context, id string, trackingNumber string) error {
	return r.exec(ctx,
		`UPDATE orders SET tracking_number = $2, shipped_at = now(), updated_at = now() WHERE id = $1`,
		id, trackingNumber)
}

func (r *PostgresOrderRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

func (r *PostgresOrderRepository) AppendStatusHistory(ctx context.Context, change *order.StatusChange) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO order_status_history (id, order_id, from_status, to_status, changed_by, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		change.ID, change.OrderID, change.FromStatus, change.ToStatus,
		change.ChangedBy, change.Note, change.CreatedAt,
	)
	return err
}

func (r *PostgresOrderRepository) StatusHistory(ctx context.Context, orderID string) ([]*order.StatusChange, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, from_status, to_status, changed_by, note, created_at
		 FROM order_status_history
		 WHERE order_id = $1
		 ORDER BY created_at ASC`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []*order.StatusChange
	for rows.Next() {
		var c order.StatusChange
		if err := rows.Scan(&c.ID, &c.OrderID, &c.FromStatus, &c.ToStatus, &c.ChangedBy, &c.Note, &c.CreatedAt); err != nil {
			return nil, err
		}
		changes = append(changes, &c)
	}
	return changes, rows.Err()
}

func (r *PostgresOrderRepository) loadItems(ctx context.Context, o *order.Order) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, variant_id, product_name, variant_name, sku, quantity, unit_price, total_price
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id ASC`,
		o.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item order.Item
		if err := rows.Scan(&item.ProductID, &item.VariantID, &item.ProductName,
			&item.VariantName, &item.SKU, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return err
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var o order.Order
	var shippingJSON, billingJSON []byte

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentStatus,
		&shippingJSON, &billingJSON,
		&o.Subtotal, &o.TaxAmount, &o.ShippingAmount, &o.DiscountAmount, &o.TotalAmount,
		&o.Notes, &o.TrackingNumber, &o.ShippedAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(shippingJSON, &o.Shipping); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(billingJSON, &o.Billing); err != nil {
		return nil, err
	}
	return &o, nil
}
