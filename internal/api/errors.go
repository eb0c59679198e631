// Package api 提供本地 HTTP API 的处理器，转发到购物服务与远程商城网关。
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/gateway"
	"github.com/MorseWayne/storefront/internal/middleware"
	"github.com/MorseWayne/storefront/internal/resp"
	"github.com/MorseWayne/storefront/internal/service"
)

func requestID(c *gin.Context) string {
	return middleware.RequestIDFromContext(c.Request.Context())
}

func ok(c *gin.Context, data any) {
	resp.OK(c.Writer, data, requestID(c), "")
}

func badRequest(c *gin.Context, msg string) {
	resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, msg, requestID(c), "")
}

// writeError 把服务层与网关错误映射为统一响应
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	reqID := requestID(c)

	switch {
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrVariantNotFound):
		resp.Error(c.Writer, http.StatusNotFound, resp.CodeNotFound, err.Error(), reqID, "")
		return
	case errors.Is(err, service.ErrEmptyCart):
		resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, err.Error(), reqID, "")
		return
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		resp.Error(c.Writer, http.StatusGatewayTimeout, resp.CodeTimeout, "request timeout", reqID, "")
		return
	}

	if apiErr, found := gateway.AsAPIError(err); found {
		switch {
		case gateway.IsUnauthorized(err):
			resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, apiErr.Message, reqID, "")
		case apiErr.Status == http.StatusNotFound:
			resp.Error(c.Writer, http.StatusNotFound, resp.CodeNotFound, apiErr.Message, reqID, "")
		case apiErr.Status >= 400 && apiErr.Status < 500:
			resp.Error(c.Writer, apiErr.Status, resp.CodeInvalidParam, apiErr.Message, reqID, "")
		default:
			logger.Warn(op+" failed upstream", zap.String("request_id", reqID), zap.Int("status", apiErr.Status), zap.Error(err))
			resp.Error(c.Writer, http.StatusBadGateway, resp.CodeUpstream, apiErr.Message, reqID, "")
		}
		return
	}

	if gateway.IsTransport(err) {
		logger.Warn(op+" upstream unreachable", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(c.Writer, http.StatusBadGateway, resp.CodeUpstream, "store API unreachable", reqID, "")
		return
	}

	logger.Error(op+" failed", zap.String("request_id", reqID), zap.Error(err))
	resp.Error(c.Writer, http.StatusInternalServerError, resp.CodeInternalError, op+" failed", reqID, "")
}
