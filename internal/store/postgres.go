package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/yourorg/order-service/internal/order"
)

// PostgresStore persists orders in a single table (see schema.sql). Line
// items are stored as a jsonb column: the store is keyed access only, nothing
// queries inside an item.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool for the given DSN.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an existing handle; used by tests.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

const orderColumns = "order_id, customer_id, status, total_amount, created_at, items, payment_id"

func (s *PostgresStore) Get(ctx context.Context, orderID string) (order.Order, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE order_id = $1", orderID)
	return scanOrder(row)
}

func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE customer_id = $1 ORDER BY created_at", customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	orders := []order.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders for customer %s: %w", customerID, err)
	}
	return orders, nil
}

func (s *PostgresStore) Put(ctx context.Context, o order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal items for order %s: %w", o.OrderID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (order_id, customer_id, status, total_amount, created_at, items, payment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (order_id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			status = EXCLUDED.status,
			total_amount = EXCLUDED.total_amount,
			items = EXCLUDED.items,
			payment_id = EXCLUDED.payment_id`,
		o.OrderID, o.CustomerID, string(o.Status), o.TotalAmount, o.CreatedAt, items, nullable(o.PaymentID))
	if err != nil {
		return fmt.Errorf("put order %s: %w", o.OrderID, err)
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, orderID string, status order.Status) (order.Order, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE order_id = $2", string(status), orderID)
	if err != nil {
		return order.Order{}, fmt.Errorf("update status of order %s: %w", orderID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return order.Order{}, fmt.Errorf("update status of order %s: %w", orderID, err)
	}
	if affected == 0 {
		return order.Order{}, ErrNotFound
	}
	return s.Get(ctx, orderID)
}

// MarkPaid relies on a single conditional UPDATE for atomicity: the row moves
// to PAID only if the status column still holds the expected value.
func (s *PostgresStore) MarkPaid(ctx context.Context, orderID string, expect order.Status, paymentID string) (order.Order, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, payment_id = $2 WHERE order_id = $3 AND status = $4",
		string(order.StatusPaid), paymentID, orderID, string(expect))
	if err != nil {
		return order.Order{}, fmt.Errorf("mark order %s paid: %w", orderID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return order.Order{}, fmt.Errorf("mark order %s paid: %w", orderID, err)
	}
	if affected == 1 {
		return s.Get(ctx, orderID)
	}

	// Zero rows: either the order is gone or the status moved under us.
	if _, err := s.Get(ctx, orderID); errors.Is(err, ErrNotFound) {
		return order.Order{}, ErrNotFound
	}
	return order.Order{}, ErrConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (order.Order, error) {
	var (
		o         order.Order
		status    string
		items     []byte
		paymentID sql.NullString
	)
	err := row.Scan(&o.OrderID, &o.CustomerID, &status, &o.TotalAmount, &o.CreatedAt, &items, &paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, ErrNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("scan order: %w", err)
	}
	o.Status = order.Status(status)
	if paymentID.Valid {
		o.PaymentID = paymentID.String
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return order.Order{}, fmt.Errorf("unmarshal items of order %s: %w", o.OrderID, err)
		}
	}
	return o, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
