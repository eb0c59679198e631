package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// APIError 远程接口返回的非 2xx 响应
type APIError struct {
	Status       int             `json:"status"`
	Message      string          `json:"message"`
	URL          string          `json:"url"`
	Method       string          `json:"method"`
	ResponseData json.RawMessage `json:"responseData,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, e.Message)
}

// TransportError 未收到响应的请求失败（连接失败、超时等）
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AsAPIError 提取 APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized 判断是否为认证失败（401 或 access denied）
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && (apiErr.Status == http.StatusUnauthorized || isAccessDenied(apiErr.Message))
}

// IsTransport 判断是否为传输层失败
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func isAccessDenied(message string) bool {
	return strings.Contains(strings.ToLower(message), "access denied")
}

// maxRawMessage 原始响应体作为错误消息时保留的最大字符数
const maxRawMessage = 200

// errorMessage 解析错误消息：message → error → 原始响应体 → 按状态码的通用文案
func errorMessage(status int, body []byte) string {
	if obj, ok := asObject(body); ok {
		if m := stringField(obj, "message"); m != "" {
			return m
		}
		if m := stringField(obj, "error"); m != "" {
			return m
		}
		// {"error": {"message": "..."}}
		if nested, ok := asObject(obj["error"]); ok {
			if m := stringField(nested, "message"); m != "" {
				return m
			}
		}
	} else if raw := strings.TrimSpace(string(body)); raw != "" && !bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		if utf8.RuneCountInString(raw) > maxRawMessage {
			raw = string([]rune(raw)[:maxRawMessage])
		}
		return raw
	}
	return statusText(status)
}

func statusText(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Bad request"
	case http.StatusUnauthorized:
		return "Please log in to continue"
	case http.StatusForbidden:
		return "You do not have permission to do this"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusConflict:
		return "Request conflicts with current state"
	case http.StatusUnprocessableEntity:
		return "Validation failed"
	case http.StatusTooManyRequests:
		return "Too many requests, please slow down"
	case http.StatusInternalServerError:
		return "Server error, please try again later"
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "Service temporarily unavailable"
	default:
		return fmt.Sprintf("Request failed with status %d", status)
	}
}
