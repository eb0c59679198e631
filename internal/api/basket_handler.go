package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/service"
)

// BasketHandler 购物车、心愿单与结算处理器
type BasketHandler struct {
	shop   service.ShopService
	logger *zap.Logger
}

// NewBasketHandler 创建处理器实例
func NewBasketHandler(shop service.ShopService, logger *zap.Logger) *BasketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BasketHandler{shop: shop, logger: logger}
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type wishlistToggleRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
}

// GetCart GET /api/v1/cart
func (h *BasketHandler) GetCart(c *gin.Context) {
	ok(c, h.shop.Cart())
}

// AddItem POST /api/v1/cart/items
func (h *BasketHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.ProductID == "" {
		badRequest(c, "productId is required")
		return
	}

	st, err := h.shop.AddToCart(c.Request.Context(), req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		writeError(c, h.logger, "add to cart", err)
		return
	}
	ok(c, st)
}

// UpdateItem PUT /api/v1/cart/items/:productId?variantId=
// 数量为0或负数时删除该行
func (h *BasketHandler) UpdateItem(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "quantity is required")
		return
	}
	ok(c, h.shop.UpdateCartQuantity(c.Param("productId"), c.Query("variantId"), *req.Quantity))
}

// RemoveItem DELETE /api/v1/cart/items/:productId?variantId=
func (h *BasketHandler) RemoveItem(c *gin.Context) {
	ok(c, h.shop.RemoveFromCart(c.Param("productId"), c.Query("variantId")))
}

// ClearCart DELETE /api/v1/cart
func (h *BasketHandler) ClearCart(c *gin.Context) {
	ok(c, h.shop.ClearCart())
}

// GetWishlist GET /api/v1/wishlist
func (h *BasketHandler) GetWishlist(c *gin.Context) {
	ok(c, h.shop.Wishlist())
}

// ToggleWishlist POST /api/v1/wishlist/toggle
func (h *BasketHandler) ToggleWishlist(c *gin.Context) {
	var req wishlistToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		badRequest(c, "productId is required")
		return
	}

	added, st, err := h.shop.ToggleWishlist(c.Request.Context(), req.ProductID, req.VariantID)
	if err != nil {
		writeError(c, h.logger, "toggle wishlist", err)
		return
	}
	ok(c, gin.H{"added": added, "wishlist": st})
}

// RemoveWishlistItem DELETE /api/v1/wishlist/items/:productId?variantId=
func (h *BasketHandler) RemoveWishlistItem(c *gin.Context) {
	ok(c, h.shop.RemoveFromWishlist(c.Param("productId"), c.Query("variantId")))
}

// MoveToCart POST /api/v1/wishlist/items/:productId/move?variantId=
func (h *BasketHandler) MoveToCart(c *gin.Context) {
	st, err := h.shop.MoveToCart(c.Request.Context(), c.Param("productId"), c.Query("variantId"))
	if err != nil {
		writeError(c, h.logger, "move to cart", err)
		return
	}
	ok(c, st)
}

// Checkout POST /api/v1/checkout
func (h *BasketHandler) Checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cod"
	}

	order, err := h.shop.Checkout(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, "checkout", err)
		return
	}
	h.logger.Info("checkout completed", zap.String("request_id", requestID(c)), zap.String("order_id", order.ID))
	ok(c, order)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
