package api

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/domain"
	"github.com/MorseWayne/storefront/internal/gateway"
)

// Catalog 目录、订单与支付配置的远程读取接口，由 gateway.Client 实现
type Catalog interface {
	ListProducts(ctx context.Context, q domain.ProductQuery) (*gateway.Envelope[domain.ProductList], error)
	SearchProducts(ctx context.Context, term string, q domain.ProductQuery) (*gateway.Envelope[domain.ProductList], error)
	GetProduct(ctx context.Context, id string) (*gateway.Envelope[domain.Product], error)
	ListCategories(ctx context.Context) (*gateway.Envelope[gateway.Page[domain.Category]], error)
	ListOrders(ctx context.Context, page, limit int) (*gateway.Envelope[domain.OrderList], error)
	GetOrder(ctx context.Context, id string) (*gateway.Envelope[domain.Order], error)
	CancelOrder(ctx context.Context, id string) (*gateway.Envelope[domain.Order], error)
	PaymentConfig(ctx context.Context) (*gateway.Envelope[domain.PaymentConfig], error)
}

// CatalogHandler 目录与订单处理器
type CatalogHandler struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewCatalogHandler 创建处理器实例
func NewCatalogHandler(catalog Catalog, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func parseProductQuery(c *gin.Context) domain.ProductQuery {
	q := domain.ProductQuery{
		Page:      queryInt(c, "page", 1),
		Limit:     queryInt(c, "limit", 20),
		Category:  c.Query("category"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Featured:  c.Query("featured") == "true",
	}
	if v, err := strconv.ParseFloat(c.Query("minPrice"), 64); err == nil {
		q.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("maxPrice"), 64); err == nil {
		q.MaxPrice = &v
	}
	return q
}

// ListProducts GET /api/v1/products?page=&limit=&category=&q=
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	q := parseProductQuery(c)

	var (
		env *gateway.Envelope[domain.ProductList]
		err error
	)
	if term := c.Query("q"); term != "" {
		env, err = h.catalog.SearchProducts(c.Request.Context(), term, q)
	} else {
		env, err = h.catalog.ListProducts(c.Request.Context(), q)
	}
	if err != nil {
		writeError(c, h.logger, "list products", err)
		return
	}
	ok(c, env.Data)
}

// GetProduct GET /api/v1/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	env, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get product", err)
		return
	}
	ok(c, env.Data)
}

// ListCategories GET /api/v1/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	env, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "list categories", err)
		return
	}
	ok(c, env.Data.Items)
}

// ListOrders GET /api/v1/orders?page=&limit=
func (h *CatalogHandler) ListOrders(c *gin.Context) {
	env, err := h.catalog.ListOrders(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		writeError(c, h.logger, "list orders", err)
		return
	}
	ok(c, env.Data)
}

// GetOrder GET /api/v1/orders/:id
func (h *CatalogHandler) GetOrder(c *gin.Context) {
	env, err := h.catalog.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get order", err)
		return
	}
	ok(c, env.Data)
}

// CancelOrder POST /api/v1/orders/:id/cancel
func (h *CatalogHandler) CancelOrder(c *gin.Context) {
	env, err := h.catalog.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "cancel order", err)
		return
	}
	ok(c, env.Data)
}

// PaymentConfig GET /api/v1/payments/config
// 远程不可达时返回降级配置，message 字段说明来源
func (h *CatalogHandler) PaymentConfig(c *gin.Context) {
	env, err := h.catalog.PaymentConfig(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "payment config", err)
		return
	}
	ok(c, gin.H{"config": env.Data, "message": env.Message})
}
