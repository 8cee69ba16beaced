// Package orchestrator drives the end-to-end payment flow for one order:
// idempotency check, request construction, retry loop around the gateway
// call, response interpretation, and the final conditional status update.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/yourorg/order-service/internal/adapter"
	"github.com/yourorg/order-service/internal/order"
	"github.com/yourorg/order-service/internal/policy"
	"github.com/yourorg/order-service/internal/reporting"
	"github.com/yourorg/order-service/internal/store"
)

const defaultCurrency = "USD"

// PaymentError is the terminal failure of a payment flow. It carries the
// classification so callers can distinguish an exhausted transient failure
// from a rejection.
type PaymentError struct {
	Outcome adapter.Outcome
	Message string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment failed (%s): %s", e.Outcome, e.Message)
}

// Orchestrator coordinates the store, the payment gateway and the retry
// policy. One ProcessPayment invocation is a single blocking flow; no lock is
// held across the gateway call.
type Orchestrator struct {
	store    store.Store
	gateway  adapter.PaymentGateway
	backoff  policy.Backoff
	enforcer *policy.Enforcer
	logger   *zap.Logger
	recorder *reporting.Recorder
	currency string
}

// New creates an Orchestrator. The recorder is optional; see WithRecorder.
func New(st store.Store, gw adapter.PaymentGateway, backoff policy.Backoff, enforcer *policy.Enforcer, logger *zap.Logger) *Orchestrator {
	if st == nil {
		panic("store cannot be nil")
	}
	if gw == nil {
		panic("gateway cannot be nil")
	}
	if enforcer == nil {
		panic("enforcer cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		store:    st,
		gateway:  gw,
		backoff:  backoff,
		enforcer: enforcer,
		logger:   logger,
		currency: defaultCurrency,
	}
}

// WithCurrency overrides the currency attached to payment requests.
func (o *Orchestrator) WithCurrency(currency string) *Orchestrator {
	if currency != "" {
		o.currency = currency
	}
	return o
}

// WithRecorder attaches a payment activity recorder.
func (o *Orchestrator) WithRecorder(r *reporting.Recorder) *Orchestrator {
	o.recorder = r
	return o
}

// ProcessPayment runs the payment flow for the given order. The correctness
// guarantee is at most one successful payment call per order, enforced by
// state: the idempotent short-circuit up front, and the compare-and-set
// commit at the end for callers that raced past the first check.
func (o *Orchestrator) ProcessPayment(ctx context.Context, orderID string) (order.Order, error) {
	tracer := otel.Tracer("orchestrator")
	ctx, span := tracer.Start(ctx, "Orchestrator.ProcessPayment")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	paymentRequestsTotal.Inc()
	log := o.logger.With(zap.String("orderId", orderID))
	log.Info("processing payment")

	ord, err := o.store.Get(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}

	if ord.Status.AtLeast(order.StatusPaid) {
		log.Info("order already paid, skipping gateway call",
			zap.String("status", string(ord.Status)),
			zap.String("paymentId", ord.PaymentID))
		paymentShortCircuitsTotal.Inc()
		o.record(reporting.Entry{
			Timestamp:  time.Now().UTC(),
			OrderID:    ord.OrderID,
			CustomerID: ord.CustomerID,
			Status:     reporting.StatusSkipped,
			Amount:     ord.TotalAmount,
			Currency:   o.currency,
		})
		return ord, nil
	}

	statusAtRead := ord.Status
	req := adapter.PaymentRequest{
		OrderID:    ord.OrderID,
		CustomerID: ord.CustomerID,
		Amount:     ord.TotalAmount,
		Currency:   o.currency,
	}

	resp, err := o.callWithRetries(ctx, log, ord, req)
	if err != nil {
		return order.Order{}, err
	}
	if resp == nil {
		o.recordFailure(ord, adapter.OutcomeUnknown, "empty response from payment provider")
		return order.Order{}, &PaymentError{Outcome: adapter.OutcomeUnknown, Message: "empty response from payment provider"}
	}

	log.Info("payment processed",
		zap.String("paymentId", resp.PaymentID),
		zap.String("providerStatus", resp.Status))

	if resp.Status != adapter.StatusCompleted {
		paymentAttemptsTotal.WithLabelValues(string(adapter.OutcomeRejected)).Inc()
		o.recordFailure(ord, adapter.OutcomeRejected, resp.ErrorMessage)
		return order.Order{}, &PaymentError{Outcome: adapter.OutcomeRejected, Message: resp.ErrorMessage}
	}

	paymentAttemptsTotal.WithLabelValues("SUCCESS").Inc()

	updated, err := o.store.MarkPaid(ctx, orderID, statusAtRead, resp.PaymentID)
	if errors.Is(err, store.ErrConflict) {
		// A concurrent caller completed the transition between our read and
		// our write. The payment is already satisfied; return current state
		// without touching the gateway again.
		log.Info("order concurrently updated, returning current state")
		return o.store.Get(ctx, orderID)
	}
	if err != nil {
		return order.Order{}, err
	}

	o.record(reporting.Entry{
		Timestamp:  time.Now().UTC(),
		OrderID:    updated.OrderID,
		CustomerID: updated.CustomerID,
		Status:     reporting.StatusSuccess,
		Amount:     updated.TotalAmount,
		Currency:   o.currency,
	})
	return updated, nil
}

// callWithRetries invokes the gateway until it yields a structured response,
// a non-retryable failure occurs, attempts run out, or the context is
// cancelled. Attempts are 1-indexed; only retryable failures wait.
func (o *Orchestrator) callWithRetries(ctx context.Context, log *zap.Logger, ord order.Order, req adapter.PaymentRequest) (*adapter.PaymentResponse, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("payment aborted before attempt %d: %w", attempt, err)
		}

		start := time.Now()
		resp, err := o.gateway.Pay(ctx, req)
		gatewayLatencySeconds.Observe(time.Since(start).Seconds())
		if err == nil {
			return resp, nil
		}

		outcome := adapter.Classify(err)
		paymentAttemptsTotal.WithLabelValues(string(outcome)).Inc()
		log.Warn("gateway attempt failed",
			zap.Int("attempt", attempt),
			zap.String("classification", string(outcome)),
			zap.Error(err))

		allow, ruleErr := o.enforcer.AllowRetry(outcome, attempt)
		if ruleErr != nil {
			return nil, fmt.Errorf("retry policy evaluation: %w", ruleErr)
		}
		if !allow || attempt >= o.backoff.MaxAttempts {
			o.recordFailure(ord, outcome, err.Error())
			return nil, &PaymentError{Outcome: outcome, Message: err.Error()}
		}

		o.record(reporting.Entry{
			Timestamp:  time.Now().UTC(),
			OrderID:    ord.OrderID,
			CustomerID: ord.CustomerID,
			Status:     reporting.StatusRetry,
			Currency:   o.currency,
			ErrorCode:  string(outcome),
		})

		delay := o.backoff.NextDelay(attempt)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("payment aborted during backoff after attempt %d: %w", attempt, ctx.Err())
		case <-time.After(delay):
		}
	}
}

// UpdateStatus is the administrative override: an unconditional overwrite of
// the status field, bypassing the lifecycle transitions.
func (o *Orchestrator) UpdateStatus(ctx context.Context, orderID string, status order.Status) (order.Order, error) {
	o.logger.Info("updating order status",
		zap.String("orderId", orderID),
		zap.String("status", string(status)))
	return o.store.UpdateStatus(ctx, orderID, status)
}

func (o *Orchestrator) record(e reporting.Entry) {
	if o.recorder != nil {
		o.recorder.Record(e)
	}
}

func (o *Orchestrator) recordFailure(ord order.Order, outcome adapter.Outcome, msg string) {
	o.record(reporting.Entry{
		Timestamp:    time.Now().UTC(),
		OrderID:      ord.OrderID,
		CustomerID:   ord.CustomerID,
		Status:       reporting.StatusFailure,
		Currency:     o.currency,
		ErrorCode:    string(outcome),
		ErrorMessage: msg,
	})
}
