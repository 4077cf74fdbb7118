package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Page is one page of a list endpoint. Endpoints that return a bare array
// yield a single page holding everything.
type Page[T any] struct {
	Items []T
	Total int
	Page  int
	Pages int
}

// HasNext reports whether a later page exists.
func (p Page[T]) HasNext() bool { return p.Page < p.Pages }

// HasPrev reports whether an earlier page exists.
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

type envelope[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// DecodeList accepts either a JSON array or a {data,total,page,pages} envelope.
func DecodeList[T any](data []byte) (Page[T], error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Page[T]{Items: []T{}, Page: 1, Pages: 1}, nil
	}
	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return Page[T]{}, fmt.Errorf("decode list: %w", err)
		}
		return Page[T]{Items: items, Total: len(items), Page: 1, Pages: 1}, nil
	}
	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return Page[T]{}, fmt.Errorf("decode list envelope: %w", err)
	}
	p := Page[T]{Items: env.Data, Total: env.Total, Page: env.Page, Pages: env.Pages}
	if p.Items == nil {
		p.Items = []T{}
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Pages < p.Page {
		p.Pages = p.Page
	}
	if p.Total == 0 {
		p.Total = len(p.Items)
	}
	return p, nil
}

// listOf fetches path and decodes it with DecodeList.
func listOf[T any](ctx context.Context, c *Client, path string, query url.Values) (Page[T], error) {
	var raw json.RawMessage
	if err := c.Get(ctx, path, query, &raw); err != nil {
		return Page[T]{}, err
	}
	page, err := DecodeList[T](raw)
	if err != nil {
		return Page[T]{}, fmt.Errorf("%s: %w", path, err)
	}
	return page, nil
}

// allOf is listOf for endpoints whose callers want only the items.
func allOf[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	page, err := listOf[T](ctx, c, path, query)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}
