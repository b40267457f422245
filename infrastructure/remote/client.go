// Package remote talks to the ERP sales-order API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const DefaultTimeout = 30 * time.Second

var (
	// ErrTimeout is returned when a request does not finish within the configured timeout.
	ErrTimeout = errors.New("remote request timed out")
	// ErrUnexpectedShape is returned when a 2xx body does not have a shape the client understands.
	ErrUnexpectedShape = errors.New("unexpected response shape")
)

// APIError is a non-2xx answer from the ERP.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base url must be absolute: %q", raw)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    base,
		token:      strings.TrimSpace(cfg.Token),
		timeout:    timeout,
		httpClient: httpClient,
	}, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.wrapTransportErr(ctx, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.wrapTransportErr(ctx, method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, respBody)}
	}
	return respBody, nil
}

func (c *Client) wrapTransportErr(ctx context.Context, method, path string, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s %s after %s", ErrTimeout, method, path, c.timeout)
	}
	return fmt.Errorf("%s %s: %w", method, path, err)
}

const maxMessageBytes = 512

// errorMessage builds a readable message from an error body. JSON bodies contribute their
// message, error, errors and title fields; anything else is used as trimmed text.
func errorMessage(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		parts := make([]string, 0, 4)
		for _, key := range []string{"message", "error", "errors", "title"} {
			parts = append(parts, messageParts(payload[key])...)
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	if text != "" {
		if len(text) > maxMessageBytes {
			cut := maxMessageBytes
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut]
		}
		return text
	}
	if st := http.StatusText(status); st != "" {
		return st
	}
	return fmt.Sprintf("status %d", status)
}

func messageParts(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, messageParts(item)...)
		}
		return out
	case map[string]any:
		if m, ok := t["message"]; ok {
			return messageParts(m)
		}
	}
	return nil
}
