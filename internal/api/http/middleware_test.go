package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spec-kit/resource-hub/internal/observability"
	apperrors "github.com/spec-kit/resource-hub/pkg/util"
)

func testApp() *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	return app
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestErrorMiddlewareRendersDomainError(t *testing.T) {
	app := testApp()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperrors.NewConflict("already pending", map[string]any{"resource_id": "res-1"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode body: %v (%s)", err, body)
	}
	if envelope.Error.Code != "CONFLICT" || envelope.Error.Message != "already pending" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if envelope.Error.Details["resource_id"] != "res-1" {
		t.Fatalf("expected details kept, got %v", envelope.Error.Details)
	}
}

func TestErrorMiddlewareRecoversPanic(t *testing.T) {
	app := testApp()
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("kaboom")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode body: %v (%s)", err, body)
	}
	if envelope.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("unexpected code: %s", envelope.Error.Code)
	}
}

func TestRequestMetricsSeeTranslatedStatus(t *testing.T) {
	metrics := observability.NewMetrics("mwtest")
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("request", nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	statuses := map[string]bool{}
	for _, family := range families {
		if family.GetName() != "mwtest_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "status" {
					statuses[label.GetValue()] = true
				}
			}
		}
	}
	if !statuses["404"] {
		t.Fatalf("expected a 404 sample on the request counter, got %v", statuses)
	}
	if statuses["200"] {
		t.Fatal("failed request recorded with status 200")
	}
}

func TestErrorMiddlewarePassesSuccessThrough(t *testing.T) {
	app := testApp()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": "ok"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
