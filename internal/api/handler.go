package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/configstore"
	"storefront/internal/locale"
	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// SessionHeader carries the cart session id
const SessionHeader = "X-Cart-Session"

const maxConfigBody = 1 << 20

// ReadinessCheck reports whether a dependency is usable
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Options configures the HTTP surface
type Options struct {
	ServiceName       string
	DefaultConfigName string
	AllowedOrigins    []string
	Readiness         []ReadinessCheck
}

// Handler contains HTTP handlers
type Handler struct {
	configs         *configstore.Store
	configService   *service.ConfigService
	catalogService  *service.CatalogService
	cartService     *service.CartService
	checkoutService *service.CheckoutService
	opts            Options
}

// NewHandler creates a new HTTP handler
func NewHandler(
	configs *configstore.Store,
	configService *service.ConfigService,
	catalogService *service.CatalogService,
	cartService *service.CartService,
	checkoutService *service.CheckoutService,
	opts Options,
) *Handler {
	if opts.ServiceName == "" {
		opts.ServiceName = "storefront"
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Handler{
		configs:         configs,
		configService:   configService,
		catalogService:  catalogService,
		cartService:     cartService,
		checkoutService: checkoutService,
		opts:            opts,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(h.opts.ServiceName))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  h.opts.AllowedOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", SessionHeader},
		ExposeHeaders: []string{SessionHeader},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/config", h.getConfig)
		v1.POST("/config/reload", h.reloadConfig)
		v1.POST("/config/reset", h.resetConfig)
		v1.PUT("/config/:name", h.publishConfig)
		v1.DELETE("/config/:name", h.invalidateConfig)

		v1.GET("/content", h.getContent)
		v1.GET("/products", h.getProducts)

		v1.POST("/cart/session", h.startSession)
		v1.GET("/cart", h.getCart)
		v1.DELETE("/cart", h.clearCart)
		v1.POST("/cart/items", h.addItem)
		v1.PATCH("/cart/items/:key", h.updateItem)
		v1.DELETE("/cart/items/:key", h.removeItem)

		v1.POST("/checkout", h.checkout)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for _, rc := range h.opts.Readiness {
		if err := rc.Check(ctx); err != nil {
			failed[rc.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// loadConfig resolves the ?config= name and loads it. Degraded loads still
// yield a usable configuration; only an unusable name aborts the request.
func (h *Handler) loadConfig(c *gin.Context) (configstore.Result, bool) {
	name := configstore.ResolveName(c.Query("config"), h.opts.DefaultConfigName)
	if err := configstore.ValidateName(name); err != nil {
		writeError(c, err)
		return configstore.Result{}, false
	}
	res, _ := h.configs.Load(c.Request.Context(), name)
	return res, true
}

func configResponse(res configstore.Result) gin.H {
	body := gin.H{
		"name":     res.Name,
		"status":   res.Status,
		"cached":   res.Cached,
		"degraded": res.Degraded(),
		"config":   res.Config,
	}
	if res.Cause != nil {
		body["error"] = res.Cause.Error()
		if violations := violationsOf(res.Cause); violations != nil {
			body["violations"] = violations
		}
	}
	return body
}

// getConfig returns the requested configuration, or the built-in default
// marked degraded together with the reason
func (h *Handler) getConfig(c *gin.Context) {
	res, ok := h.loadConfig(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, configResponse(res))
}

// reloadConfig fetches the active configuration again
func (h *Handler) reloadConfig(c *gin.Context) {
	res, _ := h.configs.Reload(c.Request.Context())
	c.JSON(http.StatusOK, configResponse(res))
}

// resetConfig drops every cached configuration
func (h *Handler) resetConfig(c *gin.Context) {
	h.configs.Reset()
	name, cfg := h.configs.Active()
	c.JSON(http.StatusOK, gin.H{
		"name":   name,
		"status": configstore.StatusLoaded,
		"config": cfg,
	})
}

// publishConfig validates and stores a configuration document
func (h *Handler) publishConfig(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxConfigBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	cfg, err := h.configService.Publish(c.Request.Context(), c.Param("name"), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": c.Param("name"), "config": cfg})
}

// invalidateConfig forces the next load of :name to fetch again
func (h *Handler) invalidateConfig(c *gin.Context) {
	name := c.Param("name")
	if err := configstore.ValidateName(name); err != nil {
		writeError(c, err)
		return
	}
	h.configs.Invalidate(name)
	c.Status(http.StatusNoContent)
}

// getContent resolves localized copy for ?locale=
func (h *Handler) getContent(c *gin.Context) {
	res, ok := h.loadConfig(c)
	if !ok {
		return
	}
	content := locale.ResolveContent(res.Config, c.Query("locale"), "")
	c.JSON(http.StatusOK, gin.H{
		"name":     res.Name,
		"degraded": res.Degraded(),
		"branding": res.Config.Branding,
		"assets":   res.Config.Assets,
		"features": res.Config.Features,
		"content":  content,
	})
}

// getProducts returns the catalog products the configuration sells
func (h *Handler) getProducts(c *gin.Context) {
	res, ok := h.loadConfig(c)
	if !ok {
		return
	}
	products, err := h.catalogService.Products(c.Request.Context(), res.Config)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":     res.Name,
		"degraded": res.Degraded(),
		"products": products,
		"count":    len(products),
	})
}

// startSession creates a cart session and returns its id in SessionHeader
func (h *Handler) startSession(c *gin.Context) {
	id, snapshot, err := h.cartService.StartSession(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header(SessionHeader, id)
	c.JSON(http.StatusCreated, gin.H{
		"sessionId": id,
		"cart":      snapshot,
	})
}

func sessionID(c *gin.Context) (string, bool) {
	id := c.GetHeader(SessionHeader)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing " + SessionHeader + " header",
		})
		return "", false
	}
	return id, true
}

func (h *Handler) getCart(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snapshot, err := h.cartService.Cart(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) addItem(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	snapshot, err := h.cartService.AddItem(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *Handler) updateItem(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	snapshot, err := h.cartService.UpdateQuantity(id, models.LineKey(c.Param("key")), *req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) removeItem(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snapshot, err := h.cartService.RemoveItem(id, models.LineKey(c.Param("key")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) clearCart(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	resetToken, _ := strconv.ParseBool(c.Query("resetToken"))
	snapshot, err := h.cartService.Clear(id, resetToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// checkout submits the session cart and returns the checkout location.
// The cart is left intact whatever the outcome.
func (h *Handler) checkout(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	snapshot, err := h.cartService.Cart(id)
	if err != nil {
		writeError(c, err)
		return
	}
	res, ok := h.loadConfig(c)
	if !ok {
		return
	}
	// the fallback default carries no store id or promotions for this storefront
	if res.Degraded() {
		writeError(c, fmt.Errorf("%w: %q: %v", models.ErrConfigUnavailable, res.Name, res.Cause))
		return
	}

	result, err := h.checkoutService.Checkout(c.Request.Context(), id, snapshot, res.Config)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
