// Package remote calls sibling services over JSON/HTTP.
//
// Every call is bounded by the client's timeout and is made exactly once.
// Transport failures, timeouts, 5xx answers and unreadable 2xx bodies are
// reported as apperr.ErrDependencyUnavailable; 4xx answers come back as
// *StatusError so callers can map them onto their own domain errors.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/frostx76/microservices-project/pkg/apperr"
	"github.com/frostx76/microservices-project/pkg/utilities"
)

// StatusError is a 4xx answer from a dependency.
type StatusError struct {
	Dependency string
	Status     int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s answered %d: %s", e.Dependency, e.Status, e.Message)
}

// Client talks to one sibling service.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
}

func NewClient(name, baseURL string, timeout time.Duration) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Name is the dependency name used in errors and logs.
func (c *Client) Name() string { return c.name }

// Do sends in (JSON, may be nil) and decodes a 2xx body into out (may be nil).
func (c *Client) Do(ctx context.Context, method, path string, header http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", c.name, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.name, err)
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
	if id := utilities.RequestID(ctx); id != "" {
		req.Header.Set(utilities.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Unavailable(c.name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return apperr.Unavailable(c.name, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return &StatusError{Dependency: c.name, Status: resp.StatusCode, Message: readMessage(resp.Body)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return apperr.Unavailable(c.name, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Unavailable(c.name, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func readMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	var e struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(b, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Detail != "" {
			return e.Detail
		}
	}
	return strings.TrimSpace(string(b))
}

// BearerHeader builds an Authorization header for token.
func BearerHeader(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}
