package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxResponseSize = 4 << 20

// statusError is a non-2xx platform response
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("platform returned %d: %s", e.Code, e.Body)
}

// PlatformClient talks to the external commerce platform over HTTP
type PlatformClient struct {
	baseURL string
	apiKey  string
	storeID string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

// NewPlatformClient creates a platform client with tracing and a breaker that
// opens after five consecutive server or transport failures.
func NewPlatformClient(baseURL, apiKey, storeID string, timeout time.Duration) *PlatformClient {
	logger := util.GetLogger()
	return &PlatformClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		storeID: storeID,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    "commerce-platform",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				var se *statusError
				return err == nil || (errors.As(err, &se) && se.Code < http.StatusInternalServerError)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}),
		logger: logger,
	}
}

// do sends a request and returns the body of a 2xx response
func (c *PlatformClient) do(ctx context.Context, operation, method, path string, query url.Values, body interface{}) ([]byte, error) {
	start := time.Now()
	defer func() {
		util.PlatformRequestLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	target, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("build platform url: %w", err)
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s request: %w", operation, err)
		}
	}

	data, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &statusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
		}
		return data, nil
	})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.Code < http.StatusInternalServerError {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", models.ErrNetworkFailure, operation, err)
	}
	return data, nil
}

// upstreamError reports a refused platform call as a failed dependency
func upstreamError(err error) error {
	var se *statusError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %v", models.ErrNetworkFailure, se)
	}
	return err
}

// StartSession performs the session handshake and returns the cart token
func (c *PlatformClient) StartSession(ctx context.Context) (*models.Session, error) {
	ctx, span := util.StartSpan(ctx, "PlatformClient.StartSession")
	defer span.End()

	data, err := c.do(ctx, "start_session", http.MethodPost, "/v1/sessions", nil,
		map[string]string{"storeId": c.storeID})
	if err != nil {
		util.RecordError(span, err)
		return nil, upstreamError(err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: decode session: %v", models.ErrNetworkFailure, err)
	}
	if session.CartToken == "" {
		return nil, fmt.Errorf("%w: session response without cart token", models.ErrNetworkFailure)
	}
	return &session, nil
}

// ListProducts fetches the store catalog with variant and price detail
func (c *PlatformClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "PlatformClient.ListProducts")
	defer span.End()

	query := url.Values{}
	query.Set("includeVariants", "true")
	query.Set("includePrices", "true")
	if c.storeID != "" {
		query.Set("storeId", c.storeID)
	}

	data, err := c.do(ctx, "list_products", http.MethodGet, "/v1/products", query, nil)
	if err != nil {
		util.RecordError(span, err)
		return nil, upstreamError(err)
	}

	var resp struct {
		Products []models.Product `json:"products"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode products: %v", models.ErrNetworkFailure, err)
	}
	if resp.Products == nil {
		resp.Products = []models.Product{}
	}
	return resp.Products, nil
}

// InitCheckout opens a checkout session. A response without a checkout
// location, or a 4xx refusal, is reported as ErrCheckoutRejected.
func (c *PlatformClient) InitCheckout(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "PlatformClient.InitCheckout")
	defer span.End()

	data, err := c.do(ctx, "init_checkout", http.MethodPost, "/v1/checkout/init", nil, req)
	if err != nil {
		util.RecordError(span, err)
		var se *statusError
		if errors.As(err, &se) {
			return nil, fmt.Errorf("%w: %v", models.ErrCheckoutRejected, se)
		}
		return nil, err
	}

	var result models.CheckoutResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: decode checkout result: %v", models.ErrCheckoutRejected, err)
	}
	if result.CheckoutURL == "" {
		return nil, models.ErrCheckoutRejected
	}
	return &result, nil
}

// OfflinePlatform stands in when no platform is configured; every checkout
// fails as a network failure.
type OfflinePlatform struct{}

func (OfflinePlatform) InitCheckout(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutResult, error) {
	return nil, fmt.Errorf("%w: commerce platform not configured", models.ErrNetworkFailure)
}
