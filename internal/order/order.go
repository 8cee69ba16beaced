// Package order holds the purchase-order domain model: the Order aggregate,
// its line items, and the lifecycle status ordering that the payment flow
// relies on.
package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is a lifecycle state of an order. States are ordered; the payment
// orchestrator treats any state at or past StatusPaid as "payment complete".
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusPreparing Status = "PREPARING"
	StatusCompleted Status = "COMPLETED"
	StatusFulfilled Status = "FULFILLED"
)

var statusRank = map[Status]int{
	StatusCreated:   0,
	StatusPending:   1,
	StatusPaid:      2,
	StatusPreparing: 3,
	StatusCompleted: 4,
	StatusFulfilled: 5,
}

// ParseStatus converts the wire representation of a status into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusRank[st]; !ok {
		return "", fmt.Errorf("unknown order status: %q", s)
	}
	return st, nil
}

// AtLeast reports whether s is at or past the given lifecycle stage.
func (s Status) AtLeast(other Status) bool {
	return statusRank[s] >= statusRank[other]
}

// OrderItem is a single line item. Items are immutable once attached to an
// order.
type OrderItem struct {
	ItemID   string  `json:"itemId"`
	ItemName string  `json:"itemName"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Validate checks the item invariants.
func (i OrderItem) Validate() error {
	if i.ItemID == "" {
		return fmt.Errorf("itemId is required")
	}
	if i.ItemName == "" {
		return fmt.Errorf("itemName is required")
	}
	if i.Price <= 0 {
		return fmt.Errorf("item %s: price must be positive", i.ItemID)
	}
	if i.Quantity <= 0 {
		return fmt.Errorf("item %s: quantity must be positive", i.ItemID)
	}
	return nil
}

// Order is the aggregate persisted in the store. PaymentID is non-empty if
// and only if Status is StatusPaid or later.
type Order struct {
	OrderID     string      `json:"orderId"`
	CustomerID  string      `json:"customerId"`
	Status      Status      `json:"status"`
	TotalAmount float64     `json:"totalAmount"`
	CreatedAt   time.Time   `json:"createdAt"`
	Items       []OrderItem `json:"items"`
	PaymentID   string      `json:"paymentId,omitempty"`
}

// New builds a fully-formed order before any storage call. It assigns the
// identifier, creation timestamp and default status here rather than in a
// persistence hook, so the value is complete the moment it exists.
func New(customerID string, totalAmount float64, items []OrderItem) Order {
	return Order{
		OrderID:     uuid.NewString(),
		CustomerID:  customerID,
		Status:      StatusPending,
		TotalAmount: totalAmount,
		CreatedAt:   time.Now().UTC(),
		Items:       items,
	}
}

// WithDefaults fills the server-assigned fields of a client-supplied order:
// identifier, creation timestamp and status, each only when absent. The
// result is complete before any storage call.
func WithDefaults(o Order) Order {
	if o.OrderID == "" {
		o.OrderID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	return o
}

// Validate checks the order invariants prior to persistence.
func (o Order) Validate() error {
	if o.CustomerID == "" {
		return fmt.Errorf("customerId is required")
	}
	if o.TotalAmount <= 0 {
		return fmt.Errorf("totalAmount must be positive")
	}
	for _, item := range o.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}
