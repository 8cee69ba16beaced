// Package adapter talks to the external payment provider. It owns the wire
// types of the provider contract, the HTTP client, and the mapping of raw
// failures into domain outcomes. The adapter never retries on its own; the
// orchestrator drives the retry loop.
package adapter

import (
	"context"
	"fmt"
	"time"
)

// StatusCompleted is the provider status denoting a successful payment. Any
// other status is a rejection carrying ErrorMessage.
const StatusCompleted = "COMPLETED"

// PaymentRequest is the body of the outbound provider call. Constructed fresh
// per attempt; immutable.
type PaymentRequest struct {
	OrderID    string  `json:"orderId"`
	CustomerID string  `json:"customerId"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

// PaymentResponse is the provider's structured reply.
type PaymentResponse struct {
	PaymentID    string    `json:"paymentId"`
	OrderID      string    `json:"orderId"`
	CustomerID   string    `json:"customerId"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	ProcessedAt  time.Time `json:"processedAt"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// PaymentGateway is the synchronous call to the payment provider. A failed
// round trip returns a *ProviderError so callers can classify it; a structured
// rejection (non-COMPLETED status) is a valid response, not an error.
type PaymentGateway interface {
	Pay(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
}

// ProviderError describes a failed provider round trip. StatusCode is zero
// when the failure happened before an HTTP status was received (connection
// refused, timeout, cancelled context).
type ProviderError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment provider returned HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("payment provider unreachable: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
