package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/MorseWayne/storefront/internal/basket"
	"github.com/MorseWayne/storefront/internal/domain"
	"github.com/MorseWayne/storefront/internal/gateway"
	"github.com/MorseWayne/storefront/internal/resp"
	"github.com/MorseWayne/storefront/internal/service"
	"github.com/MorseWayne/storefront/internal/storage"
)

// fakeRemote 同时满足 service.Remote、Catalog 与 Session
type fakeRemote struct {
	products      map[string]domain.Product
	err           error
	authenticated bool
	loggedOut     bool
}

func (f *fakeRemote) GetProduct(ctx context.Context, id string) (*gateway.Envelope[domain.Product], error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, &gateway.APIError{Status: http.StatusNotFound, Message: "Product not found"}
	}
	return &gateway.Envelope[domain.Product]{Success: true, Data: p}, nil
}

func (f *fakeRemote) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*gateway.Envelope[domain.Order], error) {
	return &gateway.Envelope[domain.Order]{Success: true, Data: domain.Order{ID: "o1", Items: req.Items, Status: domain.OrderStatusPending}}, nil
}

func (f *fakeRemote) ListProducts(ctx context.Context, q domain.ProductQuery) (*gateway.Envelope[domain.ProductList], error) {
	if f.err != nil {
		return nil, f.err
	}
	list := domain.ProductList{TotalPages: 1, CurrentPage: q.Page}
	for _, p := range f.products {
		list.Products = append(list.Products, p)
	}
	list.TotalProducts = len(list.Products)
	return &gateway.Envelope[domain.ProductList]{Success: true, Data: list}, nil
}

func (f *fakeRemote) SearchProducts(ctx context.Context, term string, q domain.ProductQuery) (*gateway.Envelope[domain.ProductList], error) {
	return &gateway.Envelope[domain.ProductList]{Success: true, Data: domain.ProductList{Products: []domain.Product{}, TotalPages: 1, CurrentPage: 1}}, nil
}

func (f *fakeRemote) ListCategories(ctx context.Context) (*gateway.Envelope[gateway.Page[domain.Category]], error) {
	return &gateway.Envelope[gateway.Page[domain.Category]]{Success: true, Data: gateway.Page[domain.Category]{Items: []domain.Category{{ID: "c1", Name: "Kurtas"}}}}, nil
}

func (f *fakeRemote) ListOrders(ctx context.Context, page, limit int) (*gateway.Envelope[domain.OrderList], error) {
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.Envelope[domain.OrderList]{Success: true, Data: domain.OrderList{Orders: []domain.Order{}, TotalPages: 1, CurrentPage: page}}, nil
}

func (f *fakeRemote) GetOrder(ctx context.Context, id string) (*gateway.Envelope[domain.Order], error) {
	return &gateway.Envelope[domain.Order]{Success: true, Data: domain.Order{ID: id}}, nil
}

func (f *fakeRemote) CancelOrder(ctx context.Context, id string) (*gateway.Envelope[domain.Order], error) {
	return &gateway.Envelope[domain.Order]{Success: true, Data: domain.Order{ID: id, Status: domain.OrderStatusCancelled}}, nil
}

func (f *fakeRemote) PaymentConfig(ctx context.Context) (*gateway.Envelope[domain.PaymentConfig], error) {
	return &gateway.Envelope[domain.PaymentConfig]{Success: true, Data: gateway.FallbackPaymentConfig(), Message: "Using offline payment configuration"}, nil
}

func (f *fakeRemote) SendOTP(ctx context.Context, req domain.SendOTPRequest) (*gateway.Envelope[json.RawMessage], error) {
	return &gateway.Envelope[json.RawMessage]{Success: true, Message: "OTP sent"}, nil
}

func (f *fakeRemote) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*gateway.Envelope[domain.AuthResult], error) {
	if req.OTP != "123456" {
		return nil, &gateway.APIError{Status: http.StatusBadRequest, Message: "Invalid OTP"}
	}
	f.authenticated = true
	return &gateway.Envelope[domain.AuthResult]{Success: true, Data: domain.AuthResult{Token: "t", User: &domain.User{ID: "u1", Phone: req.Phone}}}, nil
}

func (f *fakeRemote) Profile(ctx context.Context) (*gateway.Envelope[domain.User], error) {
	return &gateway.Envelope[domain.User]{Success: true, Data: domain.User{ID: "u1"}}, nil
}

func (f *fakeRemote) Logout(ctx context.Context) {
	f.loggedOut = true
	f.authenticated = false
}

func (f *fakeRemote) IsAuthenticated() bool { return f.authenticated }

func newTestEngine(remote *fakeRemote) *gin.Engine {
	gin.SetMode(gin.TestMode)
	st := storage.NewMemoryStorage()
	shop := service.NewShopService(remote, basket.NewCart(st, nil), basket.NewWishlist(st, nil), nil)

	bh := NewBasketHandler(shop, nil)
	ch := NewCatalogHandler(remote, nil)
	ah := NewAuthHandler(remote, nil)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.GET("/cart", bh.GetCart)
	v1.POST("/cart/items", bh.AddItem)
	v1.PUT("/cart/items/:productId", bh.UpdateItem)
	v1.DELETE("/cart/items/:productId", bh.RemoveItem)
	v1.DELETE("/cart", bh.ClearCart)
	v1.GET("/wishlist", bh.GetWishlist)
	v1.POST("/wishlist/toggle", bh.ToggleWishlist)
	v1.POST("/checkout", bh.Checkout)
	v1.GET("/products", ch.ListProducts)
	v1.GET("/products/:id", ch.GetProduct)
	v1.GET("/orders", ch.ListOrders)
	v1.GET("/payments/config", ch.PaymentConfig)
	v1.POST("/auth/otp/verify", ah.VerifyOTP)
	v1.POST("/auth/logout", ah.Logout)
	v1.GET("/auth/me", ah.Me)
	return r
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid response body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func sampleRemote() *fakeRemote {
	stock, variantPrice := 3, 450.0
	return &fakeRemote{products: map[string]domain.Product{
		"p1": {ID: "p1", Name: "Kurta", Price: 500, Stock: 10, Variants: []domain.Variant{{ID: "v1", Price: &variantPrice, Stock: &stock}}},
	}}
}

func TestCartEndpoints(t *testing.T) {
	h := newTestEngine(sampleRemote())

	status, env := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", `{"productId":"p1","variantId":"v1","quantity":2}`)
	if status != http.StatusOK || env.Code != resp.CodeOK {
		t.Fatalf("add item: status %d, body %+v", status, env)
	}
	var st basket.State
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if st.Total != 900 || st.ItemCount != 2 {
		t.Errorf("cart after add = %+v", st)
	}

	status, env = doRequest(t, h, http.MethodPut, "/api/v1/cart/items/p1?variantId=v1", `{"quantity":5}`)
	if status != http.StatusOK {
		t.Fatalf("update: status %d", status)
	}
	_ = json.Unmarshal(env.Data, &st)
	if st.ItemCount != 5 {
		t.Errorf("quantity should be replaced, got %d", st.ItemCount)
	}

	status, _ = doRequest(t, h, http.MethodPut, "/api/v1/cart/items/p1", `{}`)
	if status != http.StatusBadRequest {
		t.Errorf("missing quantity: status %d", status)
	}

	_, env = doRequest(t, h, http.MethodDelete, "/api/v1/cart/items/p1?variantId=v1", "")
	_ = json.Unmarshal(env.Data, &st)
	if len(st.Lines) != 0 || st.Total != 0 {
		t.Errorf("cart after remove = %+v", st)
	}
}

func TestAddItemErrors(t *testing.T) {
	tests := []struct {
		name       string
		remoteErr  error
		body       string
		wantStatus int
		wantCode   int
	}{
		{"missing product id", nil, `{"quantity":1}`, http.StatusBadRequest, resp.CodeInvalidParam},
		{"malformed body", nil, `{`, http.StatusBadRequest, resp.CodeInvalidParam},
		{"unknown product", nil, `{"productId":"zz"}`, http.StatusNotFound, resp.CodeNotFound},
		{"unknown variant", nil, `{"productId":"p1","variantId":"v9"}`, http.StatusNotFound, resp.CodeNotFound},
		{"upstream unreachable", &gateway.TransportError{Method: "GET", URL: "/products/p1", Err: errors.New("connection refused")}, `{"productId":"p1"}`, http.StatusBadGateway, resp.CodeUpstream},
		{"upstream 500", &gateway.APIError{Status: 500, Message: "boom"}, `{"productId":"p1"}`, http.StatusBadGateway, resp.CodeUpstream},
		{"session expired", &gateway.APIError{Status: 401, Message: "Unauthorized"}, `{"productId":"p1"}`, http.StatusUnauthorized, resp.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := sampleRemote()
			remote.err = tt.remoteErr
			status, env := doRequest(t, newTestEngine(remote), http.MethodPost, "/api/v1/cart/items", tt.body)
			if status != tt.wantStatus || env.Code != tt.wantCode {
				t.Errorf("status %d code %d, want %d %d (%s)", status, env.Code, tt.wantStatus, tt.wantCode, env.Message)
			}
		})
	}
}

func TestWishlistToggleAndCheckout(t *testing.T) {
	h := newTestEngine(sampleRemote())

	_, env := doRequest(t, h, http.MethodPost, "/api/v1/wishlist/toggle", `{"productId":"p1"}`)
	var toggled struct {
		Added    bool                 `json:"added"`
		Wishlist basket.WishlistState `json:"wishlist"`
	}
	if err := json.Unmarshal(env.Data, &toggled); err != nil {
		t.Fatalf("decode toggle: %v", err)
	}
	if !toggled.Added || len(toggled.Wishlist.Items) != 1 {
		t.Errorf("toggle result = %+v", toggled)
	}

	status, env := doRequest(t, h, http.MethodPost, "/api/v1/checkout", `{"addressId":"a1"}`)
	if status != http.StatusBadRequest {
		t.Errorf("checkout with empty cart: status %d (%s)", status, env.Message)
	}

	doRequest(t, h, http.MethodPost, "/api/v1/cart/items", `{"productId":"p1","quantity":1}`)
	status, env = doRequest(t, h, http.MethodPost, "/api/v1/checkout", `{"addressId":"a1"}`)
	if status != http.StatusOK {
		t.Fatalf("checkout: status %d (%s)", status, env.Message)
	}
	_, env = doRequest(t, h, http.MethodGet, "/api/v1/cart", "")
	var st basket.State
	_ = json.Unmarshal(env.Data, &st)
	if len(st.Lines) != 0 {
		t.Errorf("cart should be empty after checkout")
	}
}

func TestCatalogEndpoints(t *testing.T) {
	h := newTestEngine(sampleRemote())

	status, env := doRequest(t, h, http.MethodGet, "/api/v1/products?page=2", "")
	if status != http.StatusOK {
		t.Fatalf("list products: status %d", status)
	}
	var list domain.ProductList
	_ = json.Unmarshal(env.Data, &list)
	if list.TotalProducts != 1 || list.CurrentPage != 2 {
		t.Errorf("product list = %+v", list)
	}

	status, _ = doRequest(t, h, http.MethodGet, "/api/v1/products/nope", "")
	if status != http.StatusNotFound {
		t.Errorf("unknown product: status %d", status)
	}

	_, env = doRequest(t, h, http.MethodGet, "/api/v1/payments/config", "")
	if !strings.Contains(string(env.Data), `"codEnabled":true`) {
		t.Errorf("payment config = %s", env.Data)
	}
}

func TestAuthEndpoints(t *testing.T) {
	remote := sampleRemote()
	h := newTestEngine(remote)

	status, _ := doRequest(t, h, http.MethodGet, "/api/v1/auth/me", "")
	if status != http.StatusUnauthorized {
		t.Errorf("me before login: status %d", status)
	}

	status, env := doRequest(t, h, http.MethodPost, "/api/v1/auth/otp/verify", `{"phone":"9999999999","otp":"000000"}`)
	if status != http.StatusBadRequest || env.Message != "Invalid OTP" {
		t.Errorf("bad otp: status %d message %q", status, env.Message)
	}

	status, env = doRequest(t, h, http.MethodPost, "/api/v1/auth/otp/verify", `{"phone":"9999999999","otp":"123456"}`)
	if status != http.StatusOK {
		t.Fatalf("verify: status %d (%s)", status, env.Message)
	}
	if strings.Contains(string(env.Data), `"token"`) {
		t.Errorf("token should not be exposed: %s", env.Data)
	}

	status, _ = doRequest(t, h, http.MethodGet, "/api/v1/auth/me", "")
	if status != http.StatusOK {
		t.Errorf("me after login: status %d", status)
	}

	doRequest(t, h, http.MethodPost, "/api/v1/auth/logout", "")
	if !remote.loggedOut || remote.IsAuthenticated() {
		t.Error("logout should clear the session")
	}
}
