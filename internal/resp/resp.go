// Package resp 定义本地 HTTP API 的统一响应格式。
package resp

import (
	"encoding/json"
	"net/http"
)

// 业务错误码
const (
	CodeOK              = 0
	CodeInvalidParam    = 40000
	CodeUnauthorized    = 40100
	CodeNotFound        = 40400
	CodeTooManyRequests = 42900
	CodeInternalError   = 50000
	CodeUpstream        = 50200
	CodeTimeout         = 50400
)

// Body 统一响应体
type Body struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// OK 写入成功响应
func OK(w http.ResponseWriter, data any, reqID, traceID string) {
	write(w, http.StatusOK, Body{
		Code:      CodeOK,
		Message:   "ok",
		Data:      data,
		RequestID: reqID,
		TraceID:   traceID,
	})
}

// Error 写入错误响应
func Error(w http.ResponseWriter, status, code int, message, reqID, traceID string) {
	write(w, status, Body{
		Code:      code,
		Message:   message,
		RequestID: reqID,
		TraceID:   traceID,
	})
}

// HTTPStatusFromCode 将业务错误码映射为HTTP状态码
func HTTPStatusFromCode(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeUpstream:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func write(w http.ResponseWriter, status int, body Body) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
