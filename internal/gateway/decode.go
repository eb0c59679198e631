package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// decodeList 归一化并解码列表；无法解码的单个条目被跳过
func decodeList[T any](c *Client, raw json.RawMessage, resource string) Envelope[Page[T]] {
	env := NormalizeList(raw, resource)
	items := make([]T, 0, len(env.Data.Items))
	skipped := 0
	for _, it := range env.Data.Items {
		var v T
		if err := json.Unmarshal(it, &v); err != nil {
			skipped++
			continue
		}
		items = append(items, v)
	}
	if skipped > 0 {
		c.logger.Sugar().Warnw("skipped malformed list items", "resource", resource, "skipped", skipped)
	}
	return Envelope[Page[T]]{
		Success: env.Success,
		Message: env.Message,
		Data: Page[T]{
			Items:       items,
			Total:       env.Data.Total,
			TotalPages:  env.Data.TotalPages,
			CurrentPage: env.Data.CurrentPage,
		},
	}
}

// decodeObject 归一化并解码单个对象
func decodeObject[T any](raw json.RawMessage, key string) (*Envelope[T], error) {
	env := NormalizeObject(raw, key)
	out := &Envelope[T]{Success: env.Success, Message: env.Message}
	if isNull(env.Data) {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out.Data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

func getList[T any](ctx context.Context, c *Client, path string, query url.Values, resource string) (*Envelope[Page[T]], error) {
	raw, err := c.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	env := decodeList[T](c, raw, resource)
	return &env, nil
}

func getObject[T any](ctx context.Context, c *Client, path string, query url.Values, key string) (*Envelope[T], error) {
	raw, err := c.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return decodeObject[T](raw, key)
}

func send[T any](ctx context.Context, c *Client, method, path string, body any, key string) (*Envelope[T], error) {
	var (
		raw json.RawMessage
		err error
	)
	switch method {
	case "POST":
		raw, err = c.Post(ctx, path, body)
	case "PUT":
		raw, err = c.Put(ctx, path, body)
	case "DELETE":
		raw, err = c.Delete(ctx, path, nil)
	default:
		return nil, fmt.Errorf("unsupported method %s", method)
	}
	if err != nil {
		return nil, err
	}
	return decodeObject[T](raw, key)
}
