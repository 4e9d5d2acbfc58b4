package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront/config"
	"github.com/ikkim/storefront/internal/app/controller"
	"github.com/ikkim/storefront/internal/app/service"
	"github.com/ikkim/storefront/internal/catalog"
	"github.com/ikkim/storefront/internal/middleware"
	"github.com/ikkim/storefront/internal/storage"
	ws "github.com/ikkim/storefront/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouterTest(t *testing.T) *gin.Engine {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products":
			w.Write([]byte(`[{"id":1,"title":"Mug","price":4.5,"category":"kitchen"}]`))
		case "/products/1":
			w.Write([]byte(`{"id":1,"title":"Mug","price":4.5,"category":"kitchen"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://shop.test"}},
	}

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	catalogService := service.NewCatalogService(catalog.NewClient(upstream.URL, time.Second))
	sessions := service.NewCartSessions(storage.NewMemoryStore(), "cart", service.DefaultTaxRate, nil)
	sessions.OnCreate(ws.PublishCartEvents(hub))
	cartService := service.NewCartService(sessions, catalogService)

	r := NewRouter(
		controller.NewProductController(catalogService),
		controller.NewCartController(cartService),
		controller.NewCartFeedController(cartService, hub, cfg.CORS.AllowedOrigins),
		middleware.NewSessionMiddleware("router-test-secret", time.Hour, "", false),
		catalogService,
		cfg,
	)
	return r.Setup()
}

func TestRouter_Health(t *testing.T) {
	engine := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	catalogStatus := body["catalog"].(map[string]interface{})
	assert.Equal(t, "unavailable", catalogStatus["status"], "nothing fetched yet")
}

func TestRouter_CartSessionRoundTrip(t *testing.T) {
	engine := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart", bytes.NewBufferString(`{"product_id":1,"quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token := w.Header().Get(middleware.SessionTokenHeader)
	require.NotEmpty(t, token)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Cart struct {
			Count      int    `json:"count"`
			GrandTotal string `json:"grand_total"`
		} `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Cart.Count)
	assert.Equal(t, "9.90", body.Cart.GrandTotal)

	// a request without the token lands in a fresh, empty cart
	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Cart.Count)
}

func TestRouter_ProductsAreSessionless(t *testing.T) {
	engine := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(middleware.SessionTokenHeader))
}

func TestRouter_CORS(t *testing.T) {
	engine := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
	req.Header.Set("Origin", "http://shop.test")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://shop.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Session-Token")

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
