package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/domain"
)

// ---- 商品与目录 ----

func productParams(q domain.ProductQuery) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	if q.MinPrice != nil {
		v.Set("minPrice", strconv.FormatFloat(*q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64))
	}
	if q.Featured {
		v.Set("featured", "true")
	}
	return v
}

func toProductList(env *Envelope[Page[domain.Product]]) *Envelope[domain.ProductList] {
	return &Envelope[domain.ProductList]{
		Success: env.Success,
		Message: env.Message,
		Data: domain.ProductList{
			Products:      env.Data.Items,
			TotalProducts: env.Data.Total,
			TotalPages:    env.Data.TotalPages,
			CurrentPage:   env.Data.CurrentPage,
		},
	}
}

// ListProducts 商品列表
func (c *Client) ListProducts(ctx context.Context, q domain.ProductQuery) (*Envelope[domain.ProductList], error) {
	env, err := getList[domain.Product](ctx, c, "/products", productParams(q), "products")
	if err != nil {
		return nil, err
	}
	return toProductList(env), nil
}

// SearchProducts 关键词搜索
func (c *Client) SearchProducts(ctx context.Context, term string, q domain.ProductQuery) (*Envelope[domain.ProductList], error) {
	params := productParams(q)
	params.Set("q", term)
	env, err := getList[domain.Product](ctx, c, "/products/search", params, "products")
	if err != nil {
		return nil, err
	}
	return toProductList(env), nil
}

// FeaturedProducts 推荐商品
func (c *Client) FeaturedProducts(ctx context.Context, limit int) (*Envelope[domain.ProductList], error) {
	return c.ListProducts(ctx, domain.ProductQuery{Limit: limit, Featured: true})
}

// GetProduct 商品详情
func (c *Client) GetProduct(ctx context.Context, id string) (*Envelope[domain.Product], error) {
	return getObject[domain.Product](ctx, c, "/products/"+url.PathEscape(id), nil, "product")
}

// ListCategories 分类列表
func (c *Client) ListCategories(ctx context.Context) (*Envelope[Page[domain.Category]], error) {
	return getList[domain.Category](ctx, c, "/categories", nil, "categories")
}

// ListOffers 促销活动
func (c *Client) ListOffers(ctx context.Context) (*Envelope[Page[domain.Offer]], error) {
	return getList[domain.Offer](ctx, c, "/offers", nil, "offers")
}

// ListReviews 商品评价
func (c *Client) ListReviews(ctx context.Context, productID string, page int) (*Envelope[Page[domain.Review]], error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	return getList[domain.Review](ctx, c, "/products/"+url.PathEscape(productID)+"/reviews", q, "reviews")
}

// CreateReview 发表评价
func (c *Client) CreateReview(ctx context.Context, productID string, review domain.Review) (*Envelope[domain.Review], error) {
	return send[domain.Review](ctx, c, http.MethodPost, "/products/"+url.PathEscape(productID)+"/reviews", review, "review")
}

// ---- 订单 ----

// ListOrders 当前用户订单
func (c *Client) ListOrders(ctx context.Context, page, limit int) (*Envelope[domain.OrderList], error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	env, err := getList[domain.Order](ctx, c, "/orders", q, "orders")
	if err != nil {
		return nil, err
	}
	return &Envelope[domain.OrderList]{
		Success: env.Success,
		Message: env.Message,
		Data: domain.OrderList{
			Orders:      env.Data.Items,
			TotalOrders: env.Data.Total,
			TotalPages:  env.Data.TotalPages,
			CurrentPage: env.Data.CurrentPage,
		},
	}, nil
}

// GetOrder 订单详情
func (c *Client) GetOrder(ctx context.Context, id string) (*Envelope[domain.Order], error) {
	return getObject[domain.Order](ctx, c, "/orders/"+url.PathEscape(id), nil, "order")
}

// CreateOrder 下单
func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*Envelope[domain.Order], error) {
	return send[domain.Order](ctx, c, http.MethodPost, "/orders", req, "order")
}

// CancelOrder 取消订单
func (c *Client) CancelOrder(ctx context.Context, id string) (*Envelope[domain.Order], error) {
	return send[domain.Order](ctx, c, http.MethodPut, "/orders/"+url.PathEscape(id)+"/cancel", nil, "order")
}

// ---- 服务端购物车与心愿单 ----

// GetRemoteCart 服务端购物车
func (c *Client) GetRemoteCart(ctx context.Context) (*Envelope[Page[domain.RemoteCartItem]], error) {
	return getList[domain.RemoteCartItem](ctx, c, "/cart", nil, "items")
}

// AddRemoteCartItem 向服务端购物车添加
func (c *Client) AddRemoteCartItem(ctx context.Context, item domain.RemoteCartItem) (*Envelope[json.RawMessage], error) {
	return send[json.RawMessage](ctx, c, http.MethodPost, "/cart/items", item, "cart")
}

// UpdateRemoteCartItem 修改服务端购物车数量
func (c *Client) UpdateRemoteCartItem(ctx context.Context, item domain.RemoteCartItem) (*Envelope[json.RawMessage], error) {
	return send[json.RawMessage](ctx, c, http.MethodPut, "/cart/items/"+url.PathEscape(item.ProductID), item, "cart")
}

// RemoveRemoteCartItem 从服务端购物车删除
func (c *Client) RemoveRemoteCartItem(ctx context.Context, productID, variantID string) (*Envelope[json.RawMessage], error) {
	q := url.Values{}
	if variantID != "" {
		q.Set("variantId", variantID)
	}
	raw, err := c.Delete(ctx, "/cart/items/"+url.PathEscape(productID), q)
	if err != nil {
		return nil, err
	}
	return decodeObject[json.RawMessage](raw, "cart")
}

// ClearRemoteCart 清空服务端购物车
func (c *Client) ClearRemoteCart(ctx context.Context) (*Envelope[json.RawMessage], error) {
	return send[json.RawMessage](ctx, c, http.MethodDelete, "/cart", nil, "cart")
}

// GetRemoteWishlist 服务端心愿单
func (c *Client) GetRemoteWishlist(ctx context.Context) (*Envelope[Page[domain.Product]], error) {
	return getList[domain.Product](ctx, c, "/wishlist", nil, "items")
}

// AddRemoteWishlist 加入服务端心愿单
func (c *Client) AddRemoteWishlist(ctx context.Context, productID string) (*Envelope[json.RawMessage], error) {
	return send[json.RawMessage](ctx, c, http.MethodPost, "/wishlist", map[string]string{"productId": productID}, "wishlist")
}

// RemoveRemoteWishlist 移出服务端心愿单
func (c *Client) RemoveRemoteWishlist(ctx context.Context, productID string) (*Envelope[json.RawMessage], error) {
	return send[json.RawMessage](ctx, c, http.MethodDelete, "/wishlist/"+url.PathEscape(productID), nil, "wishlist")
}

// ---- 地址与优惠券 ----

// ListAddresses 收货地址
func (c *Client) ListAddresses(ctx context.Context) (*Envelope[Page[domain.Address]], error) {
	return getList[domain.Address](ctx, c, "/addresses", nil, "addresses")
}

// CreateAddress 新增地址
func (c *Client) CreateAddress(ctx context.Context, a domain.Address) (*Envelope[domain.Address], error) {
	return send[domain.Address](ctx, c, http.MethodPost, "/addresses", a, "address")
}

// UpdateAddress 修改地址
func (c *Client) UpdateAddress(ctx context.Context, a domain.Address) (*Envelope[domain.Address], error) {
	if a.ID == "" {
		return nil, errors.New("address id is required")
	}
	return send[domain.Address](ctx, c, http.MethodPut, "/addresses/"+url.PathEscape(a.ID), a, "address")
}

// DeleteAddress 删除地址
func (c *Client) DeleteAddress(ctx context.Context, id string) (*Envelope[json.RawMessage], error) {
	return send[json.RawMessage](ctx, c, http.MethodDelete, "/addresses/"+url.PathEscape(id), nil, "address")
}

// ValidateCoupon 校验优惠券
func (c *Client) ValidateCoupon(ctx context.Context, code string, orderTotal float64) (*Envelope[domain.CouponResult], error) {
	body := map[string]any{"code": code, "orderTotal": orderTotal}
	return send[domain.CouponResult](ctx, c, http.MethodPost, "/coupons/validate", body, "coupon")
}

// ---- 认证 ----

// SendOTP 发送短信验证码
func (c *Client) SendOTP(ctx context.Context, req domain.SendOTPRequest) (*Envelope[json.RawMessage], error) {
	return send[json.RawMessage](ctx, c, http.MethodPost, "/auth/send-otp", req, "")
}

// VerifyOTP 校验验证码，成功后保存凭证
func (c *Client) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*Envelope[domain.AuthResult], error) {
	env, err := send[domain.AuthResult](ctx, c, http.MethodPost, "/auth/verify-otp", req, "")
	if err != nil {
		return nil, err
	}
	return env, c.rememberLogin(env)
}

// Login 邮箱密码登录，成功后保存凭证
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*Envelope[domain.AuthResult], error) {
	env, err := send[domain.AuthResult](ctx, c, http.MethodPost, "/auth/login", req, "")
	if err != nil {
		return nil, err
	}
	return env, c.rememberLogin(env)
}

func (c *Client) rememberLogin(env *Envelope[domain.AuthResult]) error {
	if !env.Success || env.Data.Token == "" {
		return nil
	}
	return c.SetCredentials(env.Data.Token, env.Data.User)
}

// Profile 当前用户资料
func (c *Client) Profile(ctx context.Context) (*Envelope[domain.User], error) {
	return getObject[domain.User](ctx, c, "/auth/profile", nil, "user")
}

// Logout 通知服务端登出（尽力而为），并清除本地凭证
func (c *Client) Logout(ctx context.Context) {
	if c.IsAuthenticated() {
		if _, err := c.Post(ctx, "/auth/logout", nil); err != nil {
			c.logger.Info("remote logout failed, clearing local credential anyway", zap.Error(err))
		}
	}
	c.ClearCredentials()
}

// ---- 支付 ----

// FallbackPaymentConfig 支付配置接口不可达时使用的降级配置：仅货到付款
func FallbackPaymentConfig() domain.PaymentConfig {
	return domain.PaymentConfig{
		Currency:      "INR",
		CODEnabled:    true,
		OnlineEnabled: false,
	}
}

// PaymentConfig 支付配置；传输失败时返回降级配置，HTTP 错误照常返回
func (c *Client) PaymentConfig(ctx context.Context) (*Envelope[domain.PaymentConfig], error) {
	env, err := getObject[domain.PaymentConfig](ctx, c, "/payments/config", nil, "config")
	if err != nil {
		if IsTransport(err) {
			c.logger.Warn("payment config unreachable, using fallback", zap.Error(err))
			c.metrics.fallback("payments/config")
			return &Envelope[domain.PaymentConfig]{
				Success: true,
				Data:    FallbackPaymentConfig(),
				Message: "Using offline payment configuration",
			}, nil
		}
		return nil, err
	}
	return env, nil
}

// CreatePaymentOrder 为订单创建支付单
func (c *Client) CreatePaymentOrder(ctx context.Context, orderID string) (*Envelope[domain.PaymentOrder], error) {
	return send[domain.PaymentOrder](ctx, c, http.MethodPost, "/payments/create-order", map[string]string{"orderId": orderID}, "paymentOrder")
}

// VerifyPayment 校验支付结果
func (c *Client) VerifyPayment(ctx context.Context, v domain.PaymentVerification) (*Envelope[json.RawMessage], error) {
	return send[json.RawMessage](ctx, c, http.MethodPost, "/payments/verify", v, "")
}
