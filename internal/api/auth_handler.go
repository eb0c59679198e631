package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/domain"
	"github.com/MorseWayne/storefront/internal/gateway"
	"github.com/MorseWayne/storefront/internal/resp"
)

// Session 登录会话相关的远程操作，由 gateway.Client 实现
type Session interface {
	SendOTP(ctx context.Context, req domain.SendOTPRequest) (*gateway.Envelope[json.RawMessage], error)
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*gateway.Envelope[domain.AuthResult], error)
	Profile(ctx context.Context) (*gateway.Envelope[domain.User], error)
	Logout(ctx context.Context)
	IsAuthenticated() bool
}

// AuthHandler 会话处理器
type AuthHandler struct {
	session Session
	logger  *zap.Logger
}

// NewAuthHandler 创建处理器实例
func NewAuthHandler(session Session, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{session: session, logger: logger}
}

// SendOTP POST /api/v1/auth/otp
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req domain.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Phone == "" {
		badRequest(c, "phone is required")
		return
	}
	env, err := h.session.SendOTP(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, "send otp", err)
		return
	}
	ok(c, gin.H{"message": env.Message})
}

// VerifyOTP POST /api/v1/auth/otp/verify
// 成功后网关会保存凭证，响应中不返回 token
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req domain.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Phone == "" || req.OTP == "" {
		badRequest(c, "phone and otp are required")
		return
	}
	env, err := h.session.VerifyOTP(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, "verify otp", err)
		return
	}
	h.logger.Info("user signed in", zap.String("request_id", requestID(c)))
	ok(c, gin.H{"user": env.Data.User})
}

// Logout POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.session.Logout(c.Request.Context())
	ok(c, nil)
}

// Me GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	if !h.session.IsAuthenticated() {
		resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, "not signed in", requestID(c), "")
		return
	}
	env, err := h.session.Profile(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "profile", err)
		return
	}
	ok(c, env.Data)
}
