package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/yourorg/order-service/internal/monitor"
	"github.com/yourorg/order-service/internal/orchestrator"
	"github.com/yourorg/order-service/internal/order"
	"github.com/yourorg/order-service/internal/reporting"
	"github.com/yourorg/order-service/internal/store"
)

// server bundles the handler dependencies. Everything is constructed once in
// main and injected; handlers hold no hidden globals.
type server struct {
	store    store.Store
	orch     *orchestrator.Orchestrator
	monitor  *monitor.ContractMonitor
	recorder *reporting.Recorder
	logger   *zap.Logger
}

func setupRouter(s *server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("order-service"))

	api := router.Group("/api")
	api.GET("/orders/:orderId", s.getOrder)
	api.GET("/orders/customer/:customerId", s.getOrdersByCustomer)
	api.POST("/orders", s.createOrder)
	api.POST("/orders/:orderId/payment", s.processPayment)
	api.PUT("/orders/:orderId/status", s.updateOrderStatus)
	api.GET("/reports/payments", s.paymentReport)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func (s *server) getOrder(c *gin.Context) {
	orderID := c.Param("orderId")
	ord, err := s.store.Get(c.Request.Context(), orderID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ord)
}

func (s *server) getOrdersByCustomer(c *gin.Context) {
	customerID := c.Param("customerId")
	orders, err := s.store.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (s *server) createOrder(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read request body: " + err.Error()})
		return
	}

	valid, violations, err := s.monitor.Validate(body)
	if err != nil {
		// The schema loader rejects bodies that are not JSON at all.
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": monitor.FormatErrors(violations)})
		return
	}

	var ord order.Order
	if err := json.Unmarshal(body, &ord); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	ord = order.WithDefaults(ord)
	if err := ord.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed: " + err.Error()})
		return
	}

	s.logger.Info("creating order", zap.String("customerId", ord.CustomerID))
	if err := s.store.Put(c.Request.Context(), ord); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ord)
}

func (s *server) processPayment(c *gin.Context) {
	orderID := c.Param("orderId")
	s.logger.Info("payment requested", zap.String("orderId", orderID))

	ord, err := s.orch.ProcessPayment(c.Request.Context(), orderID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ord)
}

func (s *server) updateOrderStatus(c *gin.Context) {
	orderID := c.Param("orderId")
	status, err := order.ParseStatus(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ord, err := s.orch.UpdateStatus(c.Request.Context(), orderID, status)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ord)
}

func (s *server) paymentReport(c *gin.Context) {
	report := reporting.BuildReport(s.recorder.Snapshot())
	c.JSON(http.StatusOK, report)
}

// writeError maps domain failures onto the HTTP taxonomy: unknown order 404,
// payment failure 503, anything unanticipated 500.
func (s *server) writeError(c *gin.Context, err error) {
	var paymentErr *orchestrator.PaymentError
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.logger.Warn("order not found", zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &paymentErr):
		s.logger.Error("payment failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment processing failed: " + paymentErr.Message})
	default:
		s.logger.Error("unexpected error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error: " + err.Error()})
	}
}
