// Package mock provides a scriptable PaymentGateway for tests.
package mock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/order-service/internal/adapter"
)

// Gateway implements adapter.PaymentGateway. PayFunc, when set, scripts the
// behavior; otherwise every call succeeds with a fresh payment id. Calls are
// counted so tests can assert the retry and idempotency bounds.
type Gateway struct {
	PayFunc func(ctx context.Context, req adapter.PaymentRequest) (*adapter.PaymentResponse, error)

	calls atomic.Int64
}

// NewGateway creates a Gateway with default success behavior.
func NewGateway() *Gateway {
	return &Gateway{}
}

// Pay implements adapter.PaymentGateway.
func (g *Gateway) Pay(ctx context.Context, req adapter.PaymentRequest) (*adapter.PaymentResponse, error) {
	g.calls.Add(1)
	if g.PayFunc != nil {
		return g.PayFunc(ctx, req)
	}
	return &adapter.PaymentResponse{
		PaymentID:   uuid.NewString(),
		OrderID:     req.OrderID,
		CustomerID:  req.CustomerID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Status:      adapter.StatusCompleted,
		ProcessedAt: time.Now().UTC(),
	}, nil
}

// Calls returns how many times Pay was invoked.
func (g *Gateway) Calls() int {
	return int(g.calls.Load())
}
