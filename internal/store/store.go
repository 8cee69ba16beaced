// Package store defines durable persistence for orders. Implementations must
// provide single-key atomic conditional update: MarkPaid is the only
// serialization point between concurrent payment flows for the same order.
package store

import (
	"context"
	"errors"

	"github.com/yourorg/order-service/internal/order"
)

var (
	// ErrNotFound is returned when no order exists for the given id.
	ErrNotFound = errors.New("order not found")
	// ErrConflict is returned by MarkPaid when the stored status no longer
	// matches the expected one, i.e. a concurrent caller got there first.
	ErrConflict = errors.New("order was concurrently updated")
)

// Store is the order persistence contract.
type Store interface {
	// Get returns the order for the given id, or ErrNotFound.
	Get(ctx context.Context, orderID string) (order.Order, error)

	// ListByCustomer returns all orders for a customer, possibly empty.
	ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error)

	// Put writes the order unconditionally, creating or replacing it.
	Put(ctx context.Context, o order.Order) error

	// UpdateStatus overwrites the status field without transition checks.
	// This is the administrative override, not a state-machine move.
	UpdateStatus(ctx context.Context, orderID string, status order.Status) (order.Order, error)

	// MarkPaid transitions the order to PAID and attaches the payment id,
	// but only if the stored status still equals expect. Returns ErrConflict
	// when the compare-and-set loses the race, ErrNotFound for unknown ids.
	MarkPaid(ctx context.Context, orderID string, expect order.Status, paymentID string) (order.Order, error)
}
