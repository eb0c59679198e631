package gateway

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeList_Shapes(t *testing.T) {
	p1 := `{"id":"p1","name":"One","price":10}`
	p2 := `{"id":"p2","name":"Two","price":20}`

	tests := []struct {
		name        string
		body        string
		wantTotal   int
		wantPages   int
		wantCurrent int
		wantSuccess bool
		wantMessage string
	}{
		{"bare array", `[` + p1 + `,` + p2 + `]`, 2, 1, 1, true, ""},
		{"data array", `{"data":[` + p1 + `,` + p2 + `]}`, 2, 1, 1, true, ""},
		{"resource field with pagination", `{"products":[` + p1 + `,` + p2 + `],"pagination":{"totalPages":4,"totalProducts":40,"currentPage":2}}`, 40, 4, 2, true, ""},
		{"resource field with top-level pagination", `{"products":[` + p1 + `,` + p2 + `],"totalPages":"3","total":30,"page":3}`, 30, 3, 3, true, ""},
		{"nested envelope", `{"success":true,"message":"ok","data":{"products":[` + p1 + `,` + p2 + `],"totalProducts":2}}`, 2, 1, 1, true, "ok"},
		{"data array with success false", `{"success":false,"message":"partial","data":[` + p1 + `,` + p2 + `]}`, 2, 1, 1, false, "partial"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := NormalizeList(json.RawMessage(tt.body), "products")
			require.Len(t, env.Data.Items, 2)
			assert.JSONEq(t, p1, string(env.Data.Items[0]))
			assert.JSONEq(t, p2, string(env.Data.Items[1]))
			assert.Equal(t, tt.wantTotal, env.Data.Total)
			assert.Equal(t, tt.wantPages, env.Data.TotalPages)
			assert.Equal(t, tt.wantCurrent, env.Data.CurrentPage)
			assert.Equal(t, tt.wantSuccess, env.Success)
			assert.Equal(t, tt.wantMessage, env.Message)
		})
	}
}

func TestNormalizeList_UnknownShapeIsEmpty(t *testing.T) {
	for _, body := range []string{`{"foo":"bar"}`, `"text"`, `null`, `not json`, `{"products":"oops"}`} {
		env := NormalizeList(json.RawMessage(body), "products")
		assert.True(t, env.Success, body)
		assert.Empty(t, env.Data.Items, body)
		assert.NotNil(t, env.Data.Items, body)
		assert.Equal(t, 0, env.Data.Total, body)
		assert.Equal(t, 1, env.Data.TotalPages, body)
		assert.Equal(t, 1, env.Data.CurrentPage, body)
	}
}

func TestNormalizeObject(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"data wrapper", `{"success":true,"data":{"id":"p1"}}`, `{"id":"p1"}`},
		{"singular field", `{"product":{"id":"p1"}}`, `{"id":"p1"}`},
		{"bare object", `{"id":"p1"}`, `{"id":"p1"}`},
		{"null data falls back to body", `{"data":null,"id":"p1"}`, `{"data":null,"id":"p1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := NormalizeObject(json.RawMessage(tt.body), "product")
			assert.True(t, env.Success)
			assert.JSONEq(t, tt.want, string(env.Data))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message field", 400, `{"message":"Bad phone","error":"ignored"}`, "Bad phone"},
		{"error field", 400, `{"error":"Invalid OTP"}`, "Invalid OTP"},
		{"nested error", 422, `{"error":{"message":"Name required"}}`, "Name required"},
		{"raw text body", 502, `upstream exploded`, "upstream exploded"},
		{"empty body", 404, ``, "Resource not found"},
		{"object without message", 500, `{"code":1}`, "Server error, please try again later"},
		{"unknown status", 418, ``, "Request failed with status 418"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage(tt.status, []byte(tt.body)))
		})
	}
}

func TestErrorMessage_TruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("é", maxRawMessage+50)
	got := errorMessage(502, []byte(body))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxRawMessage, utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("é", maxRawMessage), got)
}
