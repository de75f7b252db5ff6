package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/configstore"
	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acmeDocument = `{
  "name": "acme",
  "branding": {"companyName": "Acme", "primaryColor": "#112233"},
  "productIds": ["p3", "p1"],
  "content": {
    "tagline": {"en": "Hello", "fr": "Bonjour"},
    "sections": {"en": {"hero.title": "Welcome"}}
  },
  "store": {"storeId": "store_acme"}
}`

type stubSessions struct{}

func (stubSessions) StartSession(ctx context.Context) (*models.Session, error) {
	return &models.Session{CartToken: "tok_abc"}, nil
}

type stubPlatform struct {
	requests []*models.CheckoutRequest
}

func (s *stubPlatform) InitCheckout(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutResult, error) {
	s.requests = append(s.requests, req)
	return &models.CheckoutResult{CheckoutURL: "https://checkout.example.com/s/" + req.CartToken}, nil
}

type testServer struct {
	router   *gin.Engine
	configs  *configstore.Store
	platform *stubPlatform
}

func newTestServer(t *testing.T, readiness ...ReadinessCheck) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fetcher := configstore.FetcherFunc(func(ctx context.Context, name string) ([]byte, error) {
		switch name {
		case "acme":
			return []byte(acmeDocument), nil
		case "broken":
			return []byte(`{"name": "broken"}`), nil
		}
		return nil, models.ErrConfigNotFound
	})
	configs := configstore.New(fetcher)

	source := catalog.NewStatic([]models.Product{
		{ID: "p1", Name: "Serum", Variants: []models.Variant{{ID: "v1", Prices: []models.Price{{ID: "pr1", Amount: 1500, Currency: "USD"}}}}},
		{ID: "p2", Name: "Toner"},
		{ID: "p3", Name: "Cream"},
	})
	platform := &stubPlatform{}

	handler := NewHandler(
		configs,
		service.NewConfigService(configs, nil, nil),
		service.NewCatalogService(source),
		service.NewCartService(cart.NewRegistry(0), source, stubSessions{}),
		service.NewCheckoutService(platform, service.NewLocalLocker(), nil, nil, ""),
		Options{DefaultConfigName: "acme", Readiness: readiness},
	)
	router := gin.New()
	handler.SetupRoutes(router)

	return &testServer{router: router, configs: configs, platform: platform}
}

func (s *testServer) do(t *testing.T, method, path, session string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error { return errors.New("down") }})

	w, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, body["failed"], "redis")
}

func TestGetConfig(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name         string
		query        string
		wantStatus   int
		wantDegraded bool
		wantCompany  string
	}{
		{"deployment default", "", http.StatusOK, false, "Acme"},
		{"explicit", "?config=acme", http.StatusOK, false, "Acme"},
		{"missing falls back", "?config=missing", http.StatusOK, true, "Glow Essentials"},
		{"invalid falls back", "?config=broken", http.StatusOK, true, "Glow Essentials"},
		{"bad name", "?config=" + url.QueryEscape("../etc"), http.StatusBadRequest, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := s.do(t, http.MethodGet, "/api/v1/config"+tt.query, "", nil)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, tt.wantDegraded, body["degraded"])
			if tt.wantDegraded {
				assert.NotEmpty(t, body["error"])
			}
			cfg := body["config"].(map[string]interface{})
			branding := cfg["branding"].(map[string]interface{})
			assert.Equal(t, tt.wantCompany, branding["companyName"])
		})
	}
}

func TestGetConfig_ReportsViolations(t *testing.T) {
	s := newTestServer(t)

	_, body := s.do(t, http.MethodGet, "/api/v1/config?config=broken", "", nil)
	assert.NotEmpty(t, body["violations"])
}

func TestConfigLifecycle(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodGet, "/api/v1/config?config=acme", "", nil)
	require.True(t, s.configs.Cached("acme"))

	w, _ := s.do(t, http.MethodDelete, "/api/v1/config/acme", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, s.configs.Cached("acme"))

	w, body := s.do(t, http.MethodPost, "/api/v1/config/reload", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", body["name"])
	assert.True(t, s.configs.Cached("acme"))

	w, body = s.do(t, http.MethodPost, "/api/v1/config/reset", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "default", body["name"])
	assert.Equal(t, 0, s.configs.Len())

	w, _ = s.do(t, http.MethodPut, "/api/v1/config/acme", "", acmeDocument)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestGetContent(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/api/v1/content?locale=fr", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	content := body["content"].(map[string]interface{})
	assert.Equal(t, "Bonjour", content["tagline"])
	sections := content["sections"].(map[string]interface{})
	assert.Equal(t, "Welcome", sections["hero.title"], "falls back to the default locale")

	_, body = s.do(t, http.MethodGet, "/api/v1/content?locale=de", "", nil)
	content = body["content"].(map[string]interface{})
	assert.Equal(t, "Hello", content["tagline"])
}

func TestGetProducts(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	products := body["products"].([]interface{})
	require.Len(t, products, 2)
	assert.Equal(t, "p1", products[0].(map[string]interface{})["id"], "catalog order is kept")
	assert.Equal(t, "p3", products[1].(map[string]interface{})["id"])
}

func TestCartAndCheckoutFlow(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/cart/session", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	session := w.Header().Get(SessionHeader)
	require.NotEmpty(t, session)
	assert.Equal(t, session, body["sessionId"])

	w, _ = s.do(t, http.MethodPost, "/api/v1/checkout", session, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty cart")

	item := map[string]interface{}{"productId": "p1", "variantId": "v1", "priceId": "pr1", "quantity": 1}
	s.do(t, http.MethodPost, "/api/v1/cart/items", session, item)
	item["quantity"] = 2
	w, body = s.do(t, http.MethodPost, "/api/v1/cart/items", session, item)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), body["count"])
	assert.Equal(t, float64(4500), body["total"])

	key := url.PathEscape(string(models.NewLineKey("p1", "v1", "pr1")))
	w, body = s.do(t, http.MethodPatch, "/api/v1/cart/items/"+key, session, map[string]int{"quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["count"])

	w, _ = s.do(t, http.MethodPatch, "/api/v1/cart/items/"+key, session, map[string]int{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = s.do(t, http.MethodPost, "/api/v1/checkout", session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://checkout.example.com/s/tok_abc", body["checkoutUrl"])
	require.Len(t, s.platform.requests, 1)
	assert.Equal(t, "store_acme", s.platform.requests[0].StoreID)
	assert.Equal(t, []models.LineItem{{VariantID: "v1", PriceID: "pr1", Quantity: 2}}, s.platform.requests[0].LineItems)

	w, body = s.do(t, http.MethodGet, "/api/v1/cart", session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["count"], "checkout leaves the cart intact")

	w, _ = s.do(t, http.MethodDelete, "/api/v1/cart/items/"+key, session, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = s.do(t, http.MethodDelete, "/api/v1/cart?resetToken=true", session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["cartToken"])
}

func TestCheckout_RefusesDegradedConfig(t *testing.T) {
	s := newTestServer(t)

	_, body := s.do(t, http.MethodPost, "/api/v1/cart/session", "", nil)
	session := body["sessionId"].(string)
	item := map[string]interface{}{"productId": "p1", "variantId": "v1", "priceId": "pr1", "quantity": 1}
	w, _ := s.do(t, http.MethodPost, "/api/v1/cart/items", session, item)
	require.Equal(t, http.StatusOK, w.Code)

	for _, name := range []string{"broken", "missing"} {
		t.Run(name, func(t *testing.T) {
			w, body := s.do(t, http.MethodPost, "/api/v1/checkout?config="+name, session, nil)
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Equal(t, models.ErrConfigUnavailable.Error(), body["error"])
			assert.Contains(t, body["details"], name)
		})
	}
	assert.Empty(t, s.platform.requests)

	w, _ = s.do(t, http.MethodPost, "/api/v1/checkout?config=acme", session, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, s.platform.requests, 1)
}

func TestCartErrors(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/cart", "unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, body := s.do(t, http.MethodPost, "/api/v1/cart/session", "", nil)
	session := body["sessionId"].(string)

	w, _ = s.do(t, http.MethodPost, "/api/v1/cart/items", session, map[string]string{"productId": "p1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/cart/items", session, map[string]string{"productId": "p2", "variantId": "x", "priceId": "y"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&models.ValidationError{}, http.StatusUnprocessableEntity},
		{models.ErrConfigNotFound, http.StatusNotFound},
		{models.ErrCheckoutInProgress, http.StatusConflict},
		{models.ErrCheckoutRejected, http.StatusBadGateway},
		{models.ErrEmptyCart, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			_, status := classify(tt.err)
			assert.Equal(t, tt.want, status)
		})
	}
}
