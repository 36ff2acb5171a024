package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Workflow metrics
	TransitionsTotal     *prometheus.CounterVec
	PaymentsTotal        *prometheus.CounterVec
	PaymentAmountTotal   prometheus.Counter
	ProvisioningTotal    *prometheus.CounterVec
	ProvisioningDuration prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "billing_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_subscription_transitions_total",
				Help: "Subscription request operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		PaymentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_subscription_payments_total",
				Help: "Accepted subscription payments by resulting payment status",
			},
			[]string{"payment_status"},
		),
		PaymentAmountTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "billing_subscription_payment_amount_total",
				Help: "Sum of accepted subscription payments",
			},
		),
		ProvisioningTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_provisioning_total",
				Help: "Installation completions by outcome",
			},
			[]string{"outcome"},
		),
		ProvisioningDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "billing_provisioning_duration_seconds",
				Help:    "Time spent in the provisioning transaction",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TransitionsTotal,
		m.PaymentsTotal,
		m.PaymentAmountTotal,
		m.ProvisioningTotal,
		m.ProvisioningDuration,
	)

	return m
}

// ObserveTransition counts one workflow operation. A nil *Metrics records nothing.
func (m *Metrics) ObserveTransition(operation string, err error) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) ObservePayment(paymentStatus string, amount float64) {
	if m == nil {
		return
	}
	m.PaymentsTotal.WithLabelValues(paymentStatus).Inc()
	m.PaymentAmountTotal.Add(amount)
}

func (m *Metrics) ObserveProvisioning(started time.Time, err error) {
	if m == nil {
		return
	}
	m.ProvisioningTotal.WithLabelValues(outcome(err)).Inc()
	m.ProvisioningDuration.Observe(time.Since(started).Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// FiberMiddleware instruments requests by their route pattern, not the raw path,
// so ids do not blow up label cardinality.
func FiberMiddleware(m *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path

		m.HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry on a fiber route.
func Handler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
