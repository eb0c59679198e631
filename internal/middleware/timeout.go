package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MorseWayne/storefront/internal/resp"
)

const timeoutBody = `{"code":50400,"message":"request timeout"}`

// Timeout 超时后取消请求上下文并返回统一超时响应；d<=0 时不限制
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.TimeoutHandler(next, d, timeoutBody)
	}
}

// HandleTimeout 上下文已超时或取消时写入超时响应并返回 true
func HandleTimeout(w http.ResponseWriter, r *http.Request) bool {
	err := r.Context().Err()
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		reqID := RequestIDFromContext(r.Context())
		resp.Error(w, resp.HTTPStatusFromCode(resp.CodeTimeout), resp.CodeTimeout, "request timeout", reqID, "")
		return true
	}
	return false
}
