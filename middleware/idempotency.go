package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"utility-billing-backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultIdempotencyPrefix = "idempotency"
)

type IdempotencyConfig struct {
	Client    *redis.Client
	TTL       time.Duration
	KeyPrefix string
}

// storedResponse is either the in-flight marker or the finished response for one key.
type storedResponse struct {
	InFlight    bool   `json:"in_flight,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency replays the stored response when a request repeats an Idempotency-Key.
// A second request that arrives while the first is still running gets 409. Server errors
// and conflicts are not stored, so the client may retry them with the same key.
// Requests without the header, or with no redis client configured, pass straight through.
func Idempotency(cfg IdempotencyConfig) fiber.Handler {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultIdempotencyPrefix
	}

	return func(c *fiber.Ctx) error {
		key := strings.TrimSpace(c.Get(IdempotencyKeyHeader))
		if key == "" || cfg.Client == nil {
			return c.Next()
		}

		ctx := c.UserContext()
		cacheKey := fmt.Sprintf("%s:%s:%s:%s", prefix, c.Method(), c.Path(), key)

		raw, err := cfg.Client.Get(ctx, cacheKey).Bytes()
		switch {
		case err == nil:
			var stored storedResponse
			if jsonErr := json.Unmarshal(raw, &stored); jsonErr != nil {
				config.Logger.Warn("Unreadable idempotency entry", zap.String("key", cacheKey), zap.Error(jsonErr))
				return c.Next()
			}
			if stored.InFlight {
				return inFlight(c)
			}
			c.Set(IdempotentReplayedHeader, "true")
			if stored.ContentType != "" {
				c.Set(fiber.HeaderContentType, stored.ContentType)
			}
			return c.Status(stored.Status).Send(stored.Body)
		case !errors.Is(err, redis.Nil):
			config.Logger.Error("Idempotency lookup failed, processing without replay protection",
				zap.String("key", cacheKey), zap.Error(err))
			return c.Next()
		}

		marker, _ := json.Marshal(storedResponse{InFlight: true})
		acquired, err := cfg.Client.SetNX(ctx, cacheKey, marker, ttl).Result()
		if err != nil {
			config.Logger.Error("Failed to reserve idempotency key", zap.String("key", cacheKey), zap.Error(err))
			return c.Next()
		}
		if !acquired {
			return inFlight(c)
		}

		if err := c.Next(); err != nil {
			cfg.Client.Del(ctx, cacheKey)
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError || status == fiber.StatusConflict {
			cfg.Client.Del(ctx, cacheKey)
			return nil
		}

		body := append([]byte(nil), c.Response().Body()...)
		stored, _ := json.Marshal(storedResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        body,
		})
		if err := cfg.Client.Set(ctx, cacheKey, stored, ttl).Err(); err != nil {
			config.Logger.Error("Failed to store idempotent response", zap.String("key", cacheKey), zap.Error(err))
		}
		return nil
	}
}

func inFlight(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"success": false,
		"message": "A request with this Idempotency-Key is still being processed",
	})
}
