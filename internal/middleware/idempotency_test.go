package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tchova-digital/portal/internal/logging"
)

func setupIdempotentApp(t *testing.T) (*fiber.App, *int64, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))

	var handled int64
	app.Post("/payments", func(c *fiber.Ctx) error {
		atomic.AddInt64(&handled, 1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"transaction_id": "MP-1"})
	})
	app.Post("/purchases", func(c *fiber.Ctx) error {
		atomic.AddInt64(&handled, 1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"transaction_id": "PC-1"})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return app, &handled, cleanup
}

func postWithKey(t *testing.T, app *fiber.App, path, key string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, _, cleanup := setupIdempotentApp(t)
	defer cleanup()

	status, _ := postWithKey(t, app, "/payments", "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, status)
	}
}

func TestIdempotencyReplaysWithoutReprocessing(t *testing.T) {
	app, handled, cleanup := setupIdempotentApp(t)
	defer cleanup()

	status, body := postWithKey(t, app, "/payments", "retry-1")
	if status != fiber.StatusCreated {
		t.Fatalf("expected %d got %d", fiber.StatusCreated, status)
	}

	status2, body2 := postWithKey(t, app, "/payments", "retry-1")
	if status2 != status || body2 != body {
		t.Fatalf("replay differs: %d %q vs %d %q", status, body, status2, body2)
	}
	if got := atomic.LoadInt64(handled); got != 1 {
		t.Fatalf("handler ran %d times for one key", got)
	}
}

func TestIdempotencyKeysAreRouteScoped(t *testing.T) {
	app, handled, cleanup := setupIdempotentApp(t)
	defer cleanup()

	_, payBody := postWithKey(t, app, "/payments", "shared-key")
	_, purchaseBody := postWithKey(t, app, "/purchases", "shared-key")

	if payBody == purchaseBody {
		t.Fatalf("same key replayed across routes: %q", payBody)
	}
	if got := atomic.LoadInt64(handled); got != 2 {
		t.Fatalf("expected both handlers to run, got %d", got)
	}
}
