package store

import (
	"context"
	"sync"

	"github.com/yourorg/order-service/internal/order"
)

// MemoryStore is an in-memory Store guarded by a RWMutex. Values are copied
// in and out so callers never share backing state.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]order.Order
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]order.Order)}
}

func (s *MemoryStore) Get(_ context.Context, orderID string) (order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return order.Order{}, ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *MemoryStore) ListByCustomer(_ context.Context, customerID string) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []order.Order{}
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			result = append(result, copyOrder(o))
		}
	}
	return result, nil
}

func (s *MemoryStore) Put(_ context.Context, o order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.OrderID] = copyOrder(o)
	return nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, orderID string, status order.Status) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return order.Order{}, ErrNotFound
	}
	o.Status = status
	s.orders[orderID] = o
	return copyOrder(o), nil
}

func (s *MemoryStore) MarkPaid(_ context.Context, orderID string, expect order.Status, paymentID string) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return order.Order{}, ErrNotFound
	}
	if o.Status != expect {
		return order.Order{}, ErrConflict
	}
	o.Status = order.StatusPaid
	o.PaymentID = paymentID
	s.orders[orderID] = o
	return copyOrder(o), nil
}

func copyOrder(o order.Order) order.Order {
	cp := o
	if o.Items != nil {
		cp.Items = make([]order.OrderItem, len(o.Items))
		copy(cp.Items, o.Items)
	}
	return cp
}
