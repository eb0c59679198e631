// Package middleware 提供本地 HTTP 服务的中间件：请求 ID、恢复、超时、CORS、访问日志。
package middleware

import (
	"context"
	"net/http"
)

// contextKey 用于在上下文中存取特定键，避免与外部键冲突。
type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
)

// withRequestID 将请求 ID 写入上下文。
func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

// RequestIDFromContext 从上下文中读取请求 ID（可能为空）。
func RequestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return s
	}
	return ""
}

// Middleware net/http 中间件
type Middleware func(http.Handler) http.Handler

// Chain 按顺序包装处理器，第一个中间件位于最外层
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
