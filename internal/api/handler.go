package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/laflotawines-debug/presupuestadorpro/internal/broker"
	"github.com/laflotawines-debug/presupuestadorpro/internal/cart"
	"github.com/laflotawines-debug/presupuestadorpro/internal/catalog"
	"github.com/laflotawines-debug/presupuestadorpro/internal/importer"
	"github.com/laflotawines-debug/presupuestadorpro/internal/models"
	"github.com/laflotawines-debug/presupuestadorpro/internal/quote"
	"github.com/laflotawines-debug/presupuestadorpro/internal/store"
	"github.com/laflotawines-debug/presupuestadorpro/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog     *catalog.Catalog
	importer    *importer.Service
	carts       *cart.Manager
	publisher   *broker.EventPublisher
	adminSecret string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	cat *catalog.Catalog,
	imp *importer.Service,
	carts *cart.Manager,
	publisher *broker.EventPublisher,
	adminSecret string,
) *Handler {
	return &Handler{
		catalog:     cat,
		importer:    imp,
		carts:       carts,
		publisher:   publisher,
		adminSecret: adminSecret,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.POST("/catalog/refresh", h.refreshCatalog)
		v1.POST("/imports", h.importProducts)
		v1.POST("/admin/products", h.adminUpdateProduct)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PATCH("/cart/items/:id", h.updateCartItem)
		v1.DELETE("/cart/items/:id", h.removeCartItem)
		v1.POST("/cart/prices", h.updateCartPrices)
		v1.DELETE("/cart", h.clearCart)

		v1.POST("/quotes/pdf", h.quotePDF)
		v1.POST("/quotes/whatsapp", h.quoteWhatsApp)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// listProducts returns the catalog snapshot. The storefront view passes
// in_stock=true since zero-stock products are not shown to clients.
func (h *Handler) listProducts(c *gin.Context) {
	products := h.catalog.Products()

	if c.Query("in_stock") == "true" {
		inStock := make([]models.Product, 0, len(products))
		for _, p := range products {
			if p.Stock > 0 {
				inStock = append(inStock, p)
			}
		}
		products = inStock
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
		"loading":  h.catalog.IsLoading(),
	})
}

// refreshCatalog re-runs the paginated fetch
func (h *Handler) refreshCatalog(c *gin.Context) {
	h.catalog.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count": len(h.catalog.Products()),
	})
}

// importProducts handles the admin spreadsheet upload: an articles workbook,
// an optional stock workbook and a mode (replace or upsert).
func (h *Handler) importProducts(c *gin.Context) {
	articlesFile, _, err := c.Request.FormFile("articles")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "articles workbook is required",
		})
		return
	}
	defer articlesFile.Close()

	var stockReader io.Reader
	if stockFile, _, err := c.Request.FormFile("stock"); err == nil {
		defer stockFile.Close()
		stockReader = stockFile
	}

	mode := c.DefaultPostForm("mode", importer.ModeReplace)

	result, err := h.importer.Run(c.Request.Context(), articlesFile, stockReader, mode)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrParse), errors.Is(err, importer.ErrNoArticles):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Could not read spreadsheet",
				"details": err.Error(),
			})
		default:
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "Import write failed",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// adminUpdateRequest is the payload of the direct update endpoint.
type adminUpdateRequest struct {
	Product store.RawProduct `json:"product" binding:"required"`
	Secret  string           `json:"secret"`
}

// adminUpdateProduct is the secondary write path outside the import flow. It
// honors the same normalization rules and requires the shared admin secret.
func (h *Handler) adminUpdateProduct(c *gin.Context) {
	var req adminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if !h.secretMatches(req.Secret) {
		util.AdminUpdatesRejected.Inc()
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Not authorized",
		})
		return
	}

	p := store.NormalizeRaw(req.Product)
	if p.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product",
		})
		return
	}

	if err := h.catalog.UpdateProduct(c.Request.Context(), p); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "Failed to update product",
			"details": err.Error(),
		})
		return
	}

	util.AdminUpdatesTotal.Inc()

	if h.publisher != nil {
		if err := h.publisher.PublishProductUpdated(c.Request.Context(), p.ID); err != nil {
			util.GetLogger().Error("Failed to publish ProductUpdated event",
				zap.String("product_id", p.ID),
				zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// secretMatches validates the shared admin secret in constant time. An
// unconfigured secret rejects everything.
func (h *Handler) secretMatches(secret string) bool {
	if h.adminSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(h.adminSecret)) == 1
}

// getCart returns the session draft, optionally one view's partition.
func (h *Handler) getCart(c *gin.Context) {
	engine := h.session(c)

	lines := engine.Lines()
	switch c.Query("view") {
	case "special":
		lines = engine.LinesFor(true)
	case "general":
		lines = engine.LinesFor(false)
	}

	c.JSON(http.StatusOK, gin.H{
		"lines": lines,
		"total": engine.Total(),
	})
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	ListID    int    `json:"list_id" binding:"required,min=1,max=4"`
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, ok := h.catalog.Get(req.ProductID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}

	engine := h.session(c)
	engine.Add(c.Request.Context(), product, req.Quantity, models.PriceList(req.ListID))

	c.JSON(http.StatusOK, gin.H{
		"lines": engine.Lines(),
		"total": engine.Total(),
	})
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

func (h *Handler) updateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	engine := h.session(c)
	engine.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)

	c.JSON(http.StatusOK, gin.H{
		"lines": engine.Lines(),
		"total": engine.Total(),
	})
}

func (h *Handler) removeCartItem(c *gin.Context) {
	engine := h.session(c)
	engine.Remove(c.Request.Context(), c.Param("id"))

	c.JSON(http.StatusOK, gin.H{
		"lines": engine.Lines(),
		"total": engine.Total(),
	})
}

type updateCartPricesRequest struct {
	ListID int `json:"list_id" binding:"required,min=1,max=4"`
}

func (h *Handler) updateCartPrices(c *gin.Context) {
	var req updateCartPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	engine := h.session(c)
	engine.UpdatePrices(c.Request.Context(), models.PriceList(req.ListID))

	c.JSON(http.StatusOK, gin.H{
		"lines": engine.Lines(),
		"total": engine.Total(),
	})
}

func (h *Handler) clearCart(c *gin.Context) {
	var scope cart.ClearScope
	switch c.DefaultQuery("scope", "all") {
	case "all":
		scope = cart.ClearAll
	case "general":
		scope = cart.ClearGeneral
	case "special":
		scope = cart.ClearSpecial
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "scope must be all, general or special",
		})
		return
	}

	engine := h.session(c)
	engine.Clear(c.Request.Context(), scope)

	c.JSON(http.StatusOK, gin.H{
		"lines": engine.Lines(),
		"total": engine.Total(),
	})
}

type quoteRequest struct {
	ClientName string `json:"client_name"`
	View       string `json:"view"`
}

// viewLines picks the partition one quote view exports; per-view totals are
// computed here, not by the cart engine.
func viewLines(engine *cart.Engine, view string) []models.CartLine {
	switch view {
	case "special":
		return engine.LinesFor(true)
	case "general":
		return engine.LinesFor(false)
	default:
		return engine.Lines()
	}
}

func linesTotal(lines []models.CartLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Subtotal()
	}
	return total
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9]`)

func (h *Handler) quotePDF(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	lines := viewLines(h.session(c), req.View)
	if len(lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Cart is empty",
		})
		return
	}

	data, err := quote.GeneratePDF(lines, req.ClientName, linesTotal(lines))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate quote",
			"details": err.Error(),
		})
		return
	}

	util.QuotesGeneratedTotal.WithLabelValues("pdf").Inc()

	safeName := unsafeFilename.ReplaceAllString(req.ClientName, "_")
	if len(safeName) > 15 {
		safeName = safeName[:15]
	}
	filename := fmt.Sprintf("Presupuesto_%s_%s.pdf", safeName, time.Now().Format("20060102"))

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (h *Handler) quoteWhatsApp(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	lines := viewLines(h.session(c), req.View)
	if len(lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Cart is empty",
		})
		return
	}

	util.QuotesGeneratedTotal.WithLabelValues("whatsapp").Inc()

	c.JSON(http.StatusOK, gin.H{
		"url": quote.WhatsAppLink(lines, linesTotal(lines)),
	})
}

// session resolves the quote-draft session from the X-Session-ID header,
// minting a fresh id when the header is absent or not a uuid. The id is
// echoed back so the client can keep it.
func (h *Handler) session(c *gin.Context) *cart.Engine {
	sid := strings.TrimSpace(c.GetHeader("X-Session-ID"))
	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.New().String()
	}
	c.Header("X-Session-ID", sid)
	return h.carts.Session(c.Request.Context(), sid)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
