package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// Envelope 归一化后的响应
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// Page 列表数据及分页信息
type Page[T any] struct {
	Items       []T `json:"items"`
	Total       int `json:"total"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
}

// RawPage 未解码条目的列表
type RawPage = Page[json.RawMessage]

// listMatcher 识别一种列表响应结构
type listMatcher struct {
	name  string
	match func(body json.RawMessage, resource string) (RawPage, bool)
}

// 按顺序尝试，第一个匹配的生效；都不匹配时返回空列表
var listMatchers = []listMatcher{
	{name: "array", match: matchBareArray},
	{name: "resource", match: matchResourceField},
	{name: "data", match: matchDataArray},
	{name: "envelope", match: matchNestedEnvelope},
}

// NormalizeList 将任意形状的列表响应归一化
// resource 是列表字段名，例如 products、orders
func NormalizeList(body json.RawMessage, resource string) Envelope[RawPage] {
	success, message := envelopeMeta(body)
	for _, m := range listMatchers {
		if page, ok := m.match(body, resource); ok {
			return Envelope[RawPage]{Success: success, Data: page, Message: message}
		}
	}
	return Envelope[RawPage]{Success: success, Data: emptyPage(), Message: message}
}

// NormalizeObject 归一化单对象响应：优先 data，其次单数资源字段，否则整体作为数据
func NormalizeObject(body json.RawMessage, key string) Envelope[json.RawMessage] {
	success, message := envelopeMeta(body)
	obj, ok := asObject(body)
	if !ok {
		return Envelope[json.RawMessage]{Success: success, Data: body, Message: message}
	}
	if v, ok := obj["data"]; ok && !isNull(v) {
		return Envelope[json.RawMessage]{Success: success, Data: v, Message: message}
	}
	if key != "" {
		if v, ok := obj[key]; ok && !isNull(v) {
			return Envelope[json.RawMessage]{Success: success, Data: v, Message: message}
		}
	}
	return Envelope[json.RawMessage]{Success: success, Data: body, Message: message}
}

func matchBareArray(body json.RawMessage, resource string) (RawPage, bool) {
	items, ok := asArray(body)
	if !ok {
		return RawPage{}, false
	}
	return pageOf(items, nil, resource), true
}

func matchResourceField(body json.RawMessage, resource string) (RawPage, bool) {
	obj, ok := asObject(body)
	if !ok {
		return RawPage{}, false
	}
	items, ok := asArray(obj[resource])
	if !ok {
		return RawPage{}, false
	}
	return pageOf(items, obj, resource), true
}

func matchDataArray(body json.RawMessage, resource string) (RawPage, bool) {
	obj, ok := asObject(body)
	if !ok {
		return RawPage{}, false
	}
	items, ok := asArray(obj["data"])
	if !ok {
		return RawPage{}, false
	}
	return pageOf(items, obj, resource), true
}

// matchNestedEnvelope 已经是 {success, data: {products: [...], totalPages...}} 的结构
func matchNestedEnvelope(body json.RawMessage, resource string) (RawPage, bool) {
	obj, ok := asObject(body)
	if !ok {
		return RawPage{}, false
	}
	return matchResourceField(obj["data"], resource)
}

func emptyPage() RawPage {
	return RawPage{Items: []json.RawMessage{}, Total: 0, TotalPages: 1, CurrentPage: 1}
}

// pageOf 组装分页；字段可能在 pagination 子对象里，也可能在顶层
func pageOf(items []json.RawMessage, obj map[string]json.RawMessage, resource string) RawPage {
	page := RawPage{Items: items, Total: len(items), TotalPages: 1, CurrentPage: 1}
	if obj == nil {
		return page
	}

	sources := make([]map[string]json.RawMessage, 0, 2)
	if p, ok := asObject(obj["pagination"]); ok {
		sources = append(sources, p)
	}
	sources = append(sources, obj)

	totalKeys := []string{"total" + capitalize(resource), "totalItems", "total", "count"}
	if v, ok := firstInt(sources, totalKeys...); ok {
		page.Total = v
	}
	if v, ok := firstInt(sources, "totalPages", "pages"); ok && v > 0 {
		page.TotalPages = v
	}
	if v, ok := firstInt(sources, "currentPage", "page"); ok && v > 0 {
		page.CurrentPage = v
	}
	return page
}

// envelopeMeta 读取 success 与 message；没有 success 字段时视为成功
func envelopeMeta(body json.RawMessage) (bool, string) {
	obj, ok := asObject(body)
	if !ok {
		return true, ""
	}
	success := true
	if v, ok := obj["success"]; ok {
		var b bool
		if json.Unmarshal(v, &b) == nil {
			success = b
		}
	}
	return success, stringField(obj, "message")
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, true
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || string(t) == "null"
}

func stringField(obj map[string]json.RawMessage, key string) string {
	var s string
	if v, ok := obj[key]; ok && json.Unmarshal(v, &s) == nil {
		return s
	}
	return ""
}

// firstInt 按来源与键的顺序取第一个可解析的整数，兼容字符串数字
func firstInt(sources []map[string]json.RawMessage, keys ...string) (int, bool) {
	for _, src := range sources {
		for _, k := range keys {
			v, ok := src[k]
			if !ok {
				continue
			}
			var f float64
			if json.Unmarshal(v, &f) == nil {
				return int(f), true
			}
			var s string
			if json.Unmarshal(v, &s) == nil {
				if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
					return n, true
				}
			}
		}
	}
	return 0, false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
