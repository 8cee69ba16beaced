package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_payment_requests_total",
		Help: "Total number of ProcessPayment invocations.",
	})

	paymentAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_payment_attempts_total",
		Help: "Gateway attempts by outcome (SUCCESS or a failure classification).",
	}, []string{"outcome"})

	paymentShortCircuitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_payment_short_circuits_total",
		Help: "ProcessPayment calls answered from state without a gateway call.",
	})

	gatewayLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_payment_gateway_latency_seconds",
		Help:    "Latency of individual payment provider round trips.",
		Buckets: prometheus.DefBuckets,
	})
)

// Metric accessors for tests and monitoring code.

func GetPaymentRequestsTotal() prometheus.Counter {
	return paymentRequestsTotal
}

func GetPaymentAttemptsTotal() *prometheus.CounterVec {
	return paymentAttemptsTotal
}

func GetPaymentShortCircuitsTotal() prometheus.Counter {
	return paymentShortCircuitsTotal
}

func GetGatewayLatencySeconds() prometheus.Histogram {
	return gatewayLatencySeconds
}
