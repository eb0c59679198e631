package service

import (
	"context"
	"errors"
	"testing"

	"github.com/MorseWayne/storefront/internal/basket"
	"github.com/MorseWayne/storefront/internal/domain"
	"github.com/MorseWayne/storefront/internal/storage"
)

func stockPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func sampleProduct() domain.Product {
	return domain.Product{
		ID:    "p1",
		Name:  "Kurta",
		Price: 500,
		Stock: 10,
		Variants: []domain.Variant{
			{ID: "v1", Name: "M / Blue", Price: floatPtr(450), Stock: stockPtr(3)},
		},
	}
}

func newTestShop(remote Remote) (ShopService, *storage.MemoryStorage) {
	st := storage.NewMemoryStorage()
	return NewShopService(remote, basket.NewCart(st, nil), basket.NewWishlist(st, nil), nil), st
}

func TestShopService_AddToCart(t *testing.T) {
	svc, _ := newTestShop(newMockRemote(sampleProduct()))
	ctx := context.Background()

	tests := []struct {
		name      string
		productID string
		variantID string
		wantErr   error
		wantTotal float64
	}{
		{"variant line", "p1", "v1", nil, 900},
		{"base product line", "p1", "", nil, 1900},
		{"unknown product", "nope", "", ErrProductNotFound, 0},
		{"unknown variant", "p1", "v9", ErrVariantNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := svc.AddToCart(ctx, tt.productID, tt.variantID, 2)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("AddToCart() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddToCart() unexpected error: %v", err)
			}
			if st.Total != tt.wantTotal {
				t.Errorf("AddToCart() total = %v, want %v", st.Total, tt.wantTotal)
			}
		})
	}

	if got := len(svc.Cart().Lines); got != 2 {
		t.Errorf("expected 2 cart lines, got %d", got)
	}
}

func TestShopService_ToggleWishlist(t *testing.T) {
	remote := newMockRemote(sampleProduct())
	svc, _ := newTestShop(remote)
	ctx := context.Background()

	added, st, err := svc.ToggleWishlist(ctx, "p1", "v1")
	if err != nil || !added || len(st.Items) != 1 {
		t.Fatalf("first toggle: added=%v items=%d err=%v", added, len(st.Items), err)
	}

	added, st, err = svc.ToggleWishlist(ctx, "p1", "v1")
	if err != nil || added || len(st.Items) != 0 {
		t.Fatalf("second toggle: added=%v items=%d err=%v", added, len(st.Items), err)
	}
	if remote.productCalls != 1 {
		t.Errorf("removing should not hit the remote API, calls = %d", remote.productCalls)
	}

	if _, _, err := svc.ToggleWishlist(ctx, "ghost", ""); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestShopService_MoveToCart(t *testing.T) {
	svc, _ := newTestShop(newMockRemote(sampleProduct()))
	ctx := context.Background()

	if _, err := svc.MoveToCart(ctx, "p1", ""); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("moving an absent item should fail, got %v", err)
	}

	if _, _, err := svc.ToggleWishlist(ctx, "p1", ""); err != nil {
		t.Fatalf("ToggleWishlist failed: %v", err)
	}
	st, err := svc.MoveToCart(ctx, "p1", "")
	if err != nil {
		t.Fatalf("MoveToCart failed: %v", err)
	}
	if st.ItemCount != 1 || st.Total != 500 {
		t.Errorf("cart after move = %+v", st)
	}
	if len(svc.Wishlist().Items) != 0 {
		t.Errorf("wishlist should be empty after move")
	}
}

func TestShopService_Checkout(t *testing.T) {
	remote := newMockRemote(sampleProduct())
	svc, _ := newTestShop(remote)
	ctx := context.Background()

	if _, err := svc.Checkout(ctx, CheckoutRequest{}); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	if _, err := svc.AddToCart(ctx, "p1", "v1", 2); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	order, err := svc.Checkout(ctx, CheckoutRequest{AddressID: "a1", PaymentMethod: "cod"})
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if order.ID != "o1" || order.Total != 900 {
		t.Errorf("unexpected order: %+v", order)
	}
	if len(remote.orders) != 1 || remote.orders[0].Items[0].VariantID != "v1" || remote.orders[0].PaymentMethod != "cod" {
		t.Errorf("unexpected order request: %+v", remote.orders)
	}
	if len(svc.Cart().Lines) != 0 {
		t.Errorf("cart should be cleared after checkout")
	}
}

func TestShopService_CheckoutFailureKeepsCart(t *testing.T) {
	remote := newMockRemote(sampleProduct())
	remote.orderErr = errors.New("connection refused")
	svc, _ := newTestShop(remote)
	ctx := context.Background()

	if _, err := svc.AddToCart(ctx, "p1", "", 1); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if _, err := svc.Checkout(ctx, CheckoutRequest{PaymentMethod: "cod"}); err == nil {
		t.Fatal("expected checkout error")
	}
	if len(svc.Cart().Lines) != 1 {
		t.Errorf("cart should be kept when order creation fails")
	}
}
