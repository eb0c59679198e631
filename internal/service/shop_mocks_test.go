package service

import (
	"context"
	"net/http"

	"github.com/MorseWayne/storefront/internal/domain"
	"github.com/MorseWayne/storefront/internal/gateway"
)

// mockRemote 远程接口的内存实现
type mockRemote struct {
	products     map[string]domain.Product
	productCalls int
	orders       []domain.CreateOrderRequest
	orderErr     error
}

func newMockRemote(products ...domain.Product) *mockRemote {
	m := &mockRemote{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockRemote) GetProduct(ctx context.Context, id string) (*gateway.Envelope[domain.Product], error) {
	m.productCalls++
	p, ok := m.products[id]
	if !ok {
		return nil, &gateway.APIError{Status: http.StatusNotFound, Message: "Product not found", Method: http.MethodGet, URL: "/products/" + id}
	}
	return &gateway.Envelope[domain.Product]{Success: true, Data: p}, nil
}

func (m *mockRemote) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*gateway.Envelope[domain.Order], error) {
	if m.orderErr != nil {
		return nil, m.orderErr
	}
	m.orders = append(m.orders, req)
	total := 0.0
	for _, it := range req.Items {
		total += it.Price * float64(it.Quantity)
	}
	return &gateway.Envelope[domain.Order]{
		Success: true,
		Data:    domain.Order{ID: "o1", Status: domain.OrderStatusPending, Items: req.Items, Total: total},
	}, nil
}
