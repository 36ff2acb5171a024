package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotentApp(t *testing.T, status int) (*fiber.App, *miniredis.Miniredis, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	calls := 0
	app := fiber.New()
	app.Post("/payments", Idempotency(IdempotencyConfig{Client: rdb, TTL: time.Hour}), func(c *fiber.Ctx) error {
		calls++
		return c.Status(status).JSON(fiber.Map{"call": calls})
	})
	return app, mr, &calls
}

func post(t *testing.T, app *fiber.App, key string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/payments", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header.Get(IdempotentReplayedHeader)
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	app, _, calls := newIdempotentApp(t, fiber.StatusCreated)

	status, body, replayed := post(t, app, "pay-1")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, `{"call":1}`, body)
	assert.Empty(t, replayed)

	status, body, replayed = post(t, app, "pay-1")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, `{"call":1}`, body)
	assert.Equal(t, "true", replayed)
	assert.Equal(t, 1, *calls)

	status, body, _ = post(t, app, "pay-2")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, `{"call":2}`, body)
}

func TestIdempotency_WithoutKeyAlwaysRuns(t *testing.T) {
	app, _, calls := newIdempotentApp(t, fiber.StatusCreated)

	post(t, app, "")
	post(t, app, "")
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_InFlightKeyConflicts(t *testing.T) {
	app, mr, calls := newIdempotentApp(t, fiber.StatusCreated)
	require.NoError(t, mr.Set("idempotency:POST:/payments:pay-1", `{"in_flight":true}`))

	status, _, _ := post(t, app, "pay-1")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, 0, *calls)
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	app, mr, calls := newIdempotentApp(t, fiber.StatusInternalServerError)

	post(t, app, "pay-1")
	assert.False(t, mr.Exists("idempotency:POST:/payments:pay-1"))

	post(t, app, "pay-1")
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_StoredEntryExpires(t *testing.T) {
	app, mr, calls := newIdempotentApp(t, fiber.StatusCreated)

	post(t, app, "pay-1")
	mr.FastForward(2 * time.Hour)
	post(t, app, "pay-1")
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_NoClientPassesThrough(t *testing.T) {
	calls := 0
	app := fiber.New()
	app.Post("/payments", Idempotency(IdempotencyConfig{}), func(c *fiber.Ctx) error {
		calls++
		return c.SendStatus(fiber.StatusCreated)
	})

	post(t, app, "pay-1")
	post(t, app, "pay-1")
	assert.Equal(t, 2, calls)
}
