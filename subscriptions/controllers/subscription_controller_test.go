package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	indexing_repository "utility-billing-backend/bleve/repositories"
	bleveindex "utility-billing-backend/bleve/services"
	"utility-billing-backend/config"
	"utility-billing-backend/internal/testutil"
	"utility-billing-backend/numbering"
	"utility-billing-backend/observability"
	controllers "utility-billing-backend/subscriptions/controllers"
	"utility-billing-backend/subscriptions/repositories"
	"utility-billing-backend/subscriptions/routes"
	"utility-billing-backend/subscriptions/services"
	"utility-billing-backend/tasks"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testNow = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

type recordingEnqueuer struct {
	tasks []*asynq.Task
}

func (r *recordingEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: uuid.NewString(), Queue: tasks.NotificationsQueue, Type: task.Type()}, nil
}

type testAPI struct {
	app      *fiber.App
	enqueuer *recordingEnqueuer
	redis    *miniredis.Miniredis
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db := testutil.NewSeededTestDB(t)
	requestRepo := repositories.NewSubscriptionRequestRepository(db)
	service := services.NewSubscriptionService(
		db,
		requestRepo,
		repositories.NewProvisioningRepository(db),
		numbering.NewSequenceGenerator().WithClock(func() time.Time { return testNow }),
		observability.NewMetrics(prometheus.NewRegistry()),
	).WithClock(func() time.Time { return testNow })

	indexer := bleveindex.NewIndexingService(config.Logger, "")
	t.Cleanup(func() { _ = indexer.Close() })
	_, bleveRepo := indexing_repository.NewBleveRepository(indexer)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	enqueuer := &recordingEnqueuer{}
	app := fiber.New()
	routes.SubscriptionRequestInitRoutes(app, &controllers.SubscriptionRequestController{
		Service:   service,
		Repo:      requestRepo,
		BleveRepo: bleveRepo,
		Tasks:     enqueuer,
		Cache:     rdb,
	}, time.Hour)

	return &testAPI{app: app, enqueuer: enqueuer, redis: mr}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Hint    string          `json:"hint"`
	Cached  bool            `json:"cached"`
	Data    json.RawMessage `json:"data"`
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}, headers ...string) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

type requestView struct {
	ID            string `json:"id"`
	RequestNo     string `json:"request_no"`
	ApplicantName string `json:"applicant_name"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	CustomerID    string `json:"customer_id"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

const base = "/api/v1/subscription-requests"

func (a *testAPI) create(t *testing.T) requestView {
	t.Helper()
	resp, env := a.do(t, "POST", base, map[string]interface{}{
		"applicant_name": "jane mwale",
		"customer_type":  "residential",
		"phone":          "0977000111",
		"email":          "jane@example.com",
		"address":        "12 Lake Road",
		"city":           "Lusaka",
		"created_by":     "clerk-1",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[requestView](t, env.Data)
}

func (a *testAPI) approve(t *testing.T, id string) {
	t.Helper()
	resp, _ := a.do(t, "POST", base+"/"+id+"/approve", map[string]interface{}{
		"subscription_fee": "500",
		"connection_fee":   "1000",
		"deposit_amount":   "500",
		"approved_by":      "supervisor-1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSubscriptionWorkflowOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	created := api.create(t)
	assert.Equal(t, "SR-2026-000001", created.RequestNo)
	assert.Equal(t, "Jane Mwale", created.ApplicantName)
	id := created.ID

	api.approve(t, id)

	payment := map[string]interface{}{"amount": "2000", "reference": "RCPT-1", "received_by": "cashier-1"}
	resp, env := api.do(t, "POST", base+"/"+id+"/payments", payment, "Idempotency-Key", "pay-1")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	paid := decode[struct {
		Request requestView `json:"request"`
	}](t, env.Data)
	assert.Equal(t, "PAID", paid.Request.PaymentStatus)
	assert.Equal(t, "PAYMENT_RECEIVED", paid.Request.Status)

	// the retry is answered from the stored response instead of posting a second payment
	resp, _ = api.do(t, "POST", base+"/"+id+"/payments", payment, "Idempotency-Key", "pay-1")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))

	resp, env = api.do(t, "GET", base+"/"+id+"/payments", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	ledger := decode[struct {
		Payments []map[string]interface{} `json:"payments"`
	}](t, env.Data)
	assert.Len(t, ledger.Payments, 1)

	resp, _ = api.do(t, "POST", base+"/"+id+"/assign", map[string]interface{}{
		"technician_id":       "tech-1",
		"scheduled_date":      "2026-10-20",
		"meter_serial_number": "MTR-900",
		"assigned_by":         "supervisor-1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = api.do(t, "POST", base+"/"+id+"/start-installation", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env = api.do(t, "POST", base+"/"+id+"/complete", map[string]interface{}{
		"initial_reading": "0",
		"completed_by":    "tech-1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	result := decode[struct {
		Request  requestView `json:"request"`
		Customer struct {
			AccountNo string `json:"account_no"`
		} `json:"customer"`
		Meter struct {
			SerialNumber string `json:"serial_number"`
		} `json:"meter"`
	}](t, env.Data)
	assert.Equal(t, "COMPLETED", result.Request.Status)
	assert.NotEmpty(t, result.Request.CustomerID)
	assert.Equal(t, "ACC-00000001", result.Customer.AccountNo)
	assert.Equal(t, "MTR-900", result.Meter.SerialNumber)

	require.Len(t, api.enqueuer.tasks, 1)
	assert.Equal(t, tasks.TypeInstallationCompleted, api.enqueuer.tasks[0].Type())

	resp, env = api.do(t, "GET", base+"?status=completed", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := decode[struct {
		Items      []requestView `json:"items"`
		Pagination struct {
			TotalItems int64 `json:"total_items"`
		} `json:"pagination"`
	}](t, env.Data)
	assert.Equal(t, int64(1), page.Pagination.TotalItems)
	require.Len(t, page.Items, 1)
	assert.Equal(t, id, page.Items[0].ID)

	resp, env = api.do(t, "GET", base+"/search?q=mwale", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	hits := decode[[]requestView](t, env.Data)
	require.Len(t, hits, 1)
	assert.Equal(t, "COMPLETED", hits[0].Status)
}

func TestStatisticsAreCachedUntilAChange(t *testing.T) {
	api := newTestAPI(t)
	api.create(t)

	_, env := api.do(t, "GET", base+"/statistics", nil)
	assert.False(t, env.Cached)
	first := decode[struct {
		Total int64 `json:"total"`
	}](t, env.Data)
	assert.Equal(t, int64(1), first.Total)

	_, env = api.do(t, "GET", base+"/statistics", nil)
	assert.True(t, env.Cached)

	api.create(t)
	_, env = api.do(t, "GET", base+"/statistics", nil)
	assert.False(t, env.Cached)
	second := decode[struct {
		Total int64 `json:"total"`
	}](t, env.Data)
	assert.Equal(t, int64(2), second.Total)
}

func TestErrorKindsMapToStatusCodes(t *testing.T) {
	api := newTestAPI(t)
	created := api.create(t)
	id := created.ID

	resp, _ := api.do(t, "GET", base+"/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, "GET", base+"/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = api.do(t, "POST", base, map[string]interface{}{"applicant_name": "x"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, "POST", base+"/"+id+"/complete", map[string]interface{}{
		"meter_serial_number": "MTR-1",
		"initial_reading":     "0",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = api.do(t, "POST", base+"/"+id+"/payments", map[string]interface{}{"amount": "100"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// a misspelled fee field leaves the fees unset and the request under review
	resp, _ = api.do(t, "POST", base+"/"+id+"/approve", map[string]interface{}{
		"subscription_fees": "500",
		"approved_by":       "supervisor-1",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp, env := api.do(t, "GET", base+"/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "PENDING_REVIEW", decode[requestView](t, env.Data).Status)

	api.approve(t, id)

	resp, _ = api.do(t, "POST", base+"/"+id+"/assign", map[string]interface{}{"technician_id": "tech-1"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, env = api.do(t, "POST", base+"/"+id+"/payments", map[string]interface{}{"amount": "2500"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Hint, "2000.00")

	resp, _ = api.do(t, "POST", base+"/"+id+"/reject", map[string]interface{}{"reason": " "})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, "POST", base+"/"+id+"/cancel", map[string]interface{}{"reason": "duplicate"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = api.do(t, "POST", base+"/"+id+"/cancel", nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = api.do(t, "GET", base+"?date_from=16-10-2026", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, "GET", base+"/search", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExportSubscriptionRequests(t *testing.T) {
	api := newTestAPI(t)
	api.create(t)
	api.create(t)

	req := httptest.NewRequest("GET", base+"/export?customer_type=residential", nil)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "subscription_requests_")

	workbook, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer workbook.Close()

	rows, err := workbook.GetRows("Subscription Requests")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Request No", rows[0][0])
	assert.Equal(t, "Jane Mwale", rows[1][1])
}
