// Package netx contains the JSON-over-HTTP helper used by the client
// transport.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBody bounds how much of a response body is read.
const maxResponseBody = 1 << 20

var (
	// ErrTransport wraps failures that happen before a response is received.
	ErrTransport = errors.New("transport error")
	// ErrDecode wraps a response body that is not the expected JSON.
	ErrDecode = errors.New("decode error")
)

// DoJSON sends in (when non-nil) as a JSON body and decodes the response
// body into out (when non-nil and the body is not empty).
//
// The HTTP status code is returned whenever a response was received, even
// if decoding failed, so callers can classify non-2xx envelopes themselves.
func DoJSON(ctx context.Context, c *http.Client, method, url string, header http.Header, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %s: %v", ErrDecode, resp.Status, err)
	}
	return resp.StatusCode, nil
}
