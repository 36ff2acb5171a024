package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_WorkflowCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.ObserveTransition("approve", nil)
	m.ObserveTransition("approve", nil)
	m.ObserveTransition("approve", errors.New("boom"))
	m.ObservePayment("PARTIAL", 1000)
	m.ObservePayment("PAID", 1000)
	m.ObserveProvisioning(time.Now(), nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("approve", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("approve", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentsTotal.WithLabelValues("PAID")))
	assert.Equal(t, 2000.0, testutil.ToFloat64(m.PaymentAmountTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProvisioningTotal.WithLabelValues("success")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition("cancel", nil)
		m.ObservePayment("PAID", 1)
		m.ObserveProvisioning(time.Now(), errors.New("boom"))
	})
}

func TestFiberMiddlewareAndHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	app := fiber.New()
	app.Use(FiberMiddleware(m))
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/metrics", Handler(registry))

	resp, err := app.Test(httptest.NewRequest("GET", "/items/42", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/items/:id", "204")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "billing_http_requests_total"))
}
