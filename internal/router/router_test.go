package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/api"
	"github.com/MorseWayne/storefront/internal/basket"
	"github.com/MorseWayne/storefront/internal/config"
	"github.com/MorseWayne/storefront/internal/limiter"
	"github.com/MorseWayne/storefront/internal/service"
	"github.com/MorseWayne/storefront/internal/storage"
)

type denyLimiter struct{}

func (denyLimiter) Allow(ctx context.Context, key string) (*limiter.LimitResult, error) {
	return &limiter.LimitResult{Allowed: false, RetryAfter: time.Second}, nil
}

func (d denyLimiter) AllowN(ctx context.Context, key string, n int64) (*limiter.LimitResult, error) {
	return d.Allow(ctx, key)
}

func (denyLimiter) Reset(ctx context.Context, key string) error { return nil }

func setup(t *testing.T, deps *Dependencies) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := storage.NewMemoryStorage()
	shop := service.NewShopService(nil, basket.NewCart(st, nil), basket.NewWishlist(st, nil), nil)
	deps.BasketHandler = api.NewBasketHandler(shop, nil)
	deps.CatalogHandler = api.NewCatalogHandler(nil, nil)
	deps.AuthHandler = api.NewAuthHandler(nil, nil)

	cfg := config.Default()
	cfg.App.Version = "test"
	return New().Setup(cfg, deps, zap.NewNop())
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name       string
		health     HealthFunc
		wantStatus int
		wantState  string
	}{
		{"no checks", nil, http.StatusOK, "ok"},
		{"all healthy", func(ctx context.Context) map[string]error { return map[string]error{"cache": nil} }, http.StatusOK, "ok"},
		{"redis down", func(ctx context.Context) map[string]error {
			return map[string]error{"cache": nil, "redis": errors.New("connection refused")}
		}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setup(t, &Dependencies{Health: tt.health})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body struct {
				Status  string `json:"status"`
				Version string `json:"version"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if body.Status != tt.wantState || body.Version != "test" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestCartRouteAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_test_total", Help: "test"}))
	h := setup(t, &Dependencies{Gatherer: reg})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"itemCount":0`) {
		t.Errorf("GET /api/v1/cart: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "storefront_test_total") {
		t.Errorf("GET /metrics: %d", rec.Code)
	}
}

func TestRateLimitedGroup(t *testing.T) {
	h := setup(t, &Dependencies{Limiter: denyLimiter{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz should not be rate limited, got %d", rec.Code)
	}
}
