package gateway

import (
	"context"
	"fmt"

	"github.com/ibportal/backend/internal/domain/grid"
	"github.com/tidwall/gjson"
)

// FetchRows GETs path and returns the row array found at rowsPath.
// An empty rowsPath means the body itself is the array. A null or missing
// array is an empty result; any other non-array is an upstream error.
func (c *Client) FetchRows(ctx context.Context, token, path string, params map[string]string, rowsPath string) ([]grid.Row, error) {
	resp, err := c.Get(ctx, token, path, params)
	if err != nil {
		return nil, err
	}
	return ExtractRows(resp.Body, rowsPath)
}

// ExtractRows locates the row array inside a JSON document
func ExtractRows(body []byte, rowsPath string) ([]grid.Row, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrUpstream)
	}

	result := gjson.ParseBytes(body)
	if rowsPath != "" {
		result = result.Get(rowsPath)
	}
	switch {
	case !result.Exists(), result.Type == gjson.Null:
		return []grid.Row{}, nil
	case !result.IsArray():
		return nil, fmt.Errorf("%w: %q is not an array", ErrUpstream, rowsPath)
	}

	rows, err := grid.RowsFromJSON([]byte(result.Raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return rows, nil
}

// FetchValue GETs path and returns the value at valuePath
func (c *Client) FetchValue(ctx context.Context, token, path string, params map[string]string, valuePath string) (gjson.Result, error) {
	resp, err := c.Get(ctx, token, path, params)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return gjson.Result{}, fmt.Errorf("%w: response is not valid JSON", ErrUpstream)
	}
	if valuePath == "" {
		return gjson.ParseBytes(resp.Body), nil
	}
	return gjson.GetBytes(resp.Body, valuePath), nil
}
