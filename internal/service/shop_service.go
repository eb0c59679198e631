// Package service 协调购物车、心愿单与远程商城接口完成用户操作。
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/basket"
	"github.com/MorseWayne/storefront/internal/domain"
	"github.com/MorseWayne/storefront/internal/gateway"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
	ErrEmptyCart       = errors.New("cart is empty")
)

// Remote 服务依赖的远程接口，由 gateway.Client 实现
type Remote interface {
	GetProduct(ctx context.Context, id string) (*gateway.Envelope[domain.Product], error)
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*gateway.Envelope[domain.Order], error)
}

// CheckoutRequest 结算参数
type CheckoutRequest struct {
	AddressID     string `json:"addressId"`
	PaymentMethod string `json:"paymentMethod"`
	CouponCode    string `json:"couponCode,omitempty"`
}

// ShopService 定义购物流程接口
type ShopService interface {
	// 购物车
	AddToCart(ctx context.Context, productID, variantID string, quantity int) (basket.State, error)
	UpdateCartQuantity(productID, variantID string, quantity int) basket.State
	RemoveFromCart(productID, variantID string) basket.State
	ClearCart() basket.State
	Cart() basket.State

	// 心愿单
	ToggleWishlist(ctx context.Context, productID, variantID string) (bool, basket.WishlistState, error)
	RemoveFromWishlist(productID, variantID string) basket.WishlistState
	Wishlist() basket.WishlistState
	MoveToCart(ctx context.Context, productID, variantID string) (basket.State, error)

	// 结算
	Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error)
}

type shopService struct {
	remote   Remote
	cart     *basket.Cart
	wishlist *basket.Wishlist
	logger   *zap.Logger
}

// NewShopService 创建购物服务实例
func NewShopService(remote Remote, cart *basket.Cart, wishlist *basket.Wishlist, logger *zap.Logger) ShopService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &shopService{
		remote:   remote,
		cart:     cart,
		wishlist: wishlist,
		logger:   logger,
	}
}

// resolve 通过远程接口取得商品与规格
func (s *shopService) resolve(ctx context.Context, productID, variantID string) (domain.Product, *domain.Variant, error) {
	env, err := s.remote.GetProduct(ctx, productID)
	if err != nil {
		if apiErr, ok := gateway.AsAPIError(err); ok && apiErr.Status == http.StatusNotFound {
			return domain.Product{}, nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return domain.Product{}, nil, fmt.Errorf("failed to load product %s: %w", productID, err)
	}
	product := env.Data
	if product.ID == "" {
		return domain.Product{}, nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	if variantID == "" {
		return product, nil, nil
	}
	variant := product.FindVariant(variantID)
	if variant == nil {
		return domain.Product{}, nil, fmt.Errorf("%w: %s/%s", ErrVariantNotFound, productID, variantID)
	}
	return product, variant, nil
}

// AddToCart 解析商品后加入购物车
func (s *shopService) AddToCart(ctx context.Context, productID, variantID string, quantity int) (basket.State, error) {
	product, variant, err := s.resolve(ctx, productID, variantID)
	if err != nil {
		return basket.State{}, err
	}
	st := s.cart.Add(product, quantity, variant)
	s.logger.Debug("added to cart",
		zap.String("product_id", productID), zap.String("variant_id", variantID),
		zap.Int("item_count", st.ItemCount))
	return st, nil
}

func (s *shopService) UpdateCartQuantity(productID, variantID string, quantity int) basket.State {
	return s.cart.UpdateQuantity(productID, quantity, variantID)
}

func (s *shopService) RemoveFromCart(productID, variantID string) basket.State {
	return s.cart.Remove(productID, variantID)
}

func (s *shopService) ClearCart() basket.State {
	return s.cart.Clear()
}

func (s *shopService) Cart() basket.State {
	return s.cart.State()
}

// ToggleWishlist 已在心愿单中则直接移除（不访问远程），否则解析商品后加入
func (s *shopService) ToggleWishlist(ctx context.Context, productID, variantID string) (bool, basket.WishlistState, error) {
	if s.wishlist.Contains(productID, variantID) {
		return false, s.wishlist.Remove(productID, variantID), nil
	}
	product, variant, err := s.resolve(ctx, productID, variantID)
	if err != nil {
		return false, basket.WishlistState{}, err
	}
	added, st := s.wishlist.Toggle(product, variant)
	return added, st, nil
}

func (s *shopService) RemoveFromWishlist(productID, variantID string) basket.WishlistState {
	return s.wishlist.Remove(productID, variantID)
}

func (s *shopService) Wishlist() basket.WishlistState {
	return s.wishlist.State()
}

// MoveToCart 把心愿单中的商品以数量1加入购物车并从心愿单移除
func (s *shopService) MoveToCart(ctx context.Context, productID, variantID string) (basket.State, error) {
	if !s.wishlist.Contains(productID, variantID) {
		return basket.State{}, fmt.Errorf("%w: %s not in wishlist", ErrProductNotFound, productID)
	}
	st, err := s.AddToCart(ctx, productID, variantID, 1)
	if err != nil {
		return basket.State{}, err
	}
	s.wishlist.Remove(productID, variantID)
	return st, nil
}

// Checkout 用购物车内容下单，成功后清空购物车
func (s *shopService) Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error) {
	cart := s.cart.State()
	if len(cart.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, domain.OrderItem{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
	}

	env, err := s.remote.CreateOrder(ctx, domain.CreateOrderRequest{
		Items:         items,
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
		CouponCode:    req.CouponCode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("failed to create order: %s", env.Message)
	}

	s.cart.Clear()
	s.logger.Info("order placed", zap.String("order_id", env.Data.ID), zap.Int("lines", len(items)))
	return &env.Data, nil
}
