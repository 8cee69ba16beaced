package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/order-service/internal/adapter"
	gwmock "github.com/yourorg/order-service/internal/adapter/mock"
	"github.com/yourorg/order-service/internal/monitor"
	"github.com/yourorg/order-service/internal/orchestrator"
	"github.com/yourorg/order-service/internal/order"
	"github.com/yourorg/order-service/internal/policy"
	"github.com/yourorg/order-service/internal/reporting"
	"github.com/yourorg/order-service/internal/store"
)

func newTestServer(t *testing.T, gw *gwmock.Gateway) (*gin.Engine, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	backoff := policy.Backoff{Base: time.Millisecond, Multiplier: 2, Cap: 10 * time.Millisecond, MaxAttempts: 5}
	enforcer, err := policy.NewEnforcer(nil, backoff.MaxAttempts)
	require.NoError(t, err)
	contractMonitor, err := monitor.NewContractMonitor()
	require.NoError(t, err)

	recorder := reporting.NewRecorder()
	orch := orchestrator.New(st, gw, backoff, enforcer, zap.NewNop()).WithRecorder(recorder)

	srv := &server{
		store:    st,
		orch:     orch,
		monitor:  contractMonitor,
		recorder: recorder,
		logger:   zap.NewNop(),
	}
	return setupRouter(srv), st
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedPending(t *testing.T, st *store.MemoryStore, id string) order.Order {
	t.Helper()
	o := order.New("cust-1", 49.99, []order.OrderItem{
		{ItemID: "i1", ItemName: "Widget", Price: 49.99, Quantity: 1},
	})
	o.OrderID = id
	require.NoError(t, st.Put(context.Background(), o))
	return o
}

func TestCreateOrder_AssignsDefaults(t *testing.T) {
	router, _ := newTestServer(t, gwmock.NewGateway())

	payload := map[string]any{
		"customerId":  "cust-1",
		"totalAmount": 49.99,
		"items": []map[string]any{
			{"itemId": "i1", "itemName": "Widget", "price": 49.99, "quantity": 1},
		},
	}
	w := doJSON(t, router, http.MethodPost, "/api/orders", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created order.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.OrderID)
	assert.Equal(t, order.StatusPending, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	// The persisted order is immediately readable.
	get := doJSON(t, router, http.MethodGet, "/api/orders/"+created.OrderID, nil)
	assert.Equal(t, http.StatusOK, get.Code)
}

func TestCreateOrder_SchemaViolations(t *testing.T) {
	router, _ := newTestServer(t, gwmock.NewGateway())

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing customerId", map[string]any{"totalAmount": 49.99}},
		{"zero amount", map[string]any{"customerId": "cust-1", "totalAmount": 0}},
		{"bad item", map[string]any{
			"customerId":  "cust-1",
			"totalAmount": 10,
			"items":       []map[string]any{{"itemId": "i1", "itemName": "Widget", "price": 10}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/orders", tt.payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "Validation failed")
		})
	}
}

func TestCreateOrder_MalformedJSON(t *testing.T) {
	router, _ := newTestServer(t, gwmock.NewGateway())

	req, err := http.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("this is not json"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	router, _ := newTestServer(t, gwmock.NewGateway())

	w := doJSON(t, router, http.MethodGet, "/api/orders/O404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "order not found")
}

func TestGetOrdersByCustomer(t *testing.T) {
	router, st := newTestServer(t, gwmock.NewGateway())
	seedPending(t, st, "O1")
	seedPending(t, st, "O2")

	w := doJSON(t, router, http.MethodGet, "/api/orders/customer/cust-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var orders []order.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	assert.Len(t, orders, 2)

	empty := doJSON(t, router, http.MethodGet, "/api/orders/customer/cust-none", nil)
	require.Equal(t, http.StatusOK, empty.Code)
	assert.Equal(t, "[]", string(bytes.TrimSpace(empty.Body.Bytes())))
}

func TestProcessPayment_Success(t *testing.T) {
	gw := gwmock.NewGateway()
	gw.PayFunc = func(_ context.Context, req adapter.PaymentRequest) (*adapter.PaymentResponse, error) {
		return &adapter.PaymentResponse{
			PaymentID: "P1",
			OrderID:   req.OrderID,
			Status:    adapter.StatusCompleted,
		}, nil
	}
	router, st := newTestServer(t, gw)
	seedPending(t, st, "O1")

	w := doJSON(t, router, http.MethodPost, "/api/orders/O1/payment", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var paid order.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &paid))
	assert.Equal(t, order.StatusPaid, paid.Status)
	assert.Equal(t, "P1", paid.PaymentID)
}

func TestProcessPayment_NotFound(t *testing.T) {
	router, _ := newTestServer(t, gwmock.NewGateway())

	w := doJSON(t, router, http.MethodPost, "/api/orders/O404/payment", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProcessPayment_GatewayFailure(t *testing.T) {
	gw := gwmock.NewGateway()
	gw.PayFunc = func(context.Context, adapter.PaymentRequest) (*adapter.PaymentResponse, error) {
		return nil, &adapter.ProviderError{StatusCode: 402, Body: "insufficient funds"}
	}
	router, st := newTestServer(t, gw)
	seedPending(t, st, "O1")

	w := doJSON(t, router, http.MethodPost, "/api/orders/O1/payment", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Payment processing failed")
	assert.Equal(t, 1, gw.Calls())
}

func TestProcessPayment_Idempotent(t *testing.T) {
	gw := gwmock.NewGateway()
	router, st := newTestServer(t, gw)
	o := seedPending(t, st, "O2")
	o.Status = order.StatusPaid
	o.PaymentID = "P9"
	require.NoError(t, st.Put(context.Background(), o))

	w := doJSON(t, router, http.MethodPost, "/api/orders/O2/payment", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got order.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "P9", got.PaymentID)
	assert.Equal(t, 0, gw.Calls())
}

func TestUpdateOrderStatus(t *testing.T) {
	router, st := newTestServer(t, gwmock.NewGateway())
	seedPending(t, st, "O1")

	w := doJSON(t, router, http.MethodPut, "/api/orders/O1/status?status=PREPARING", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var updated order.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, order.StatusPreparing, updated.Status)

	bad := doJSON(t, router, http.MethodPut, "/api/orders/O1/status?status=SHIPPED", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	missing := doJSON(t, router, http.MethodPut, "/api/orders/O404/status?status=PAID", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestPaymentReport(t *testing.T) {
	gw := gwmock.NewGateway()
	router, st := newTestServer(t, gw)
	seedPending(t, st, "O1")

	w := doJSON(t, router, http.MethodPost, "/api/orders/O1/payment", nil)
	require.Equal(t, http.StatusOK, w.Code)

	report := doJSON(t, router, http.MethodGet, "/api/reports/payments", nil)
	require.Equal(t, http.StatusOK, report.Code)

	var got reporting.Report
	require.NoError(t, json.Unmarshal(report.Body.Bytes(), &got))
	assert.Equal(t, 1, got.SuccessfulPayments)
	assert.InDelta(t, 49.99, got.TotalAmountProcessed, 0.001)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestServer(t, gwmock.NewGateway())

	w := doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "order_payment_requests_total")
}
