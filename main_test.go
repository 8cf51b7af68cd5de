package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"productos/internal/config"
	"productos/internal/repositories"
	"productos/internal/services"
	"productos/pkg/logger"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error {
	return errors.New("connection refused")
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.APIKey = "test-api-key"
	cfg.DBDriver = config.DriverMemory
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config) (*fiber.App, *services.ProductService) {
	t.Helper()
	logger.Discard()

	service := services.NewProductService(repositories.NewMemoryProductRepository(), nil, nil)
	return newApp(cfg, service, nil), service
}

func TestServerStartupAndHealthCheck(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	t.Run("HealthCheck", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"status":"healthy"`)
		assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	})

	t.Run("UnauthenticatedAccess", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/productos", nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("AuthenticatedAccess", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/productos", nil)
		req.Header.Set("X-API-Key", "test-api-key")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("UnknownRoute", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var body struct {
			Errors []struct {
				Status string `json:"status"`
			} `json:"errors"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "404", body.Errors[0].Status)
	})
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	logger.Discard()
	service := services.NewProductService(repositories.NewMemoryProductRepository(), nil, nil)
	app := newApp(testConfig(), service, failingPinger{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAuthNotRequired(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRequired = false
	app, _ := newTestApp(t, cfg)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/productos", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSeedProducts(t *testing.T) {
	_, service := newTestApp(t, testConfig())
	ctx := context.Background()

	seedProducts(ctx, service)
	// Names already taken are skipped.
	seedProducts(ctx, service)

	products, err := service.GetAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Laptop", products[0].Nombre)
	assert.Equal(t, int64(1), products[0].ID)
}
