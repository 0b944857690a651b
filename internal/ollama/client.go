// Package ollama is the HTTP client for the local model backend. It
// exposes chat, single-turn generation, streaming, and model listing,
// and normalizes backend usage statistics.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cadenroberts/ollamabot/internal/core"
)

const defaultBaseURL = "http://localhost:11434"

// Client talks to an Ollama-compatible server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a client for a base URL; empty means localhost:11434.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat sends a non-streaming chat request.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*Response, error) {
	req.Stream = false
	var resp chatResponse
	if err := c.post(ctx, "/api/chat", req, &resp); err != nil {
		return nil, err
	}
	return &Response{
		Model:   resp.Model,
		Content: resp.Message.Content,
		Stats:   resp.normalize(),
	}, nil
}

// Generate sends a non-streaming single-turn request.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*Response, error) {
	req.Stream = false
	var resp generateResponse
	if err := c.post(ctx, "/api/generate", req, &resp); err != nil {
		return nil, err
	}
	return &Response{
		Model:   resp.Model,
		Content: resp.Response,
		Stats:   resp.normalize(),
	}, nil
}

// ChatStream sends a streaming chat request. The returned channel is
// closed after the done chunk (or an error chunk).
func (c *Client) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamChunk, error) {
	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		return nil, core.ErrBackend("MARSHAL_FAILED", "encoding chat request").WithCause(err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, core.ErrBackend("REQUEST_FAILED", "creating chat request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, backendErr(err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(resp.Body)
		return nil, httpErr(resp.StatusCode, payload)
	}

	ch := make(chan StreamChunk, 16)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			var piece chatResponse
			if err := json.Unmarshal(line, &piece); err != nil {
				ch <- StreamChunk{Err: core.ErrBackend("BAD_CHUNK", "decoding stream chunk").WithCause(err)}
				return
			}
			chunk := StreamChunk{Content: piece.Message.Content, Done: piece.Done}
			if piece.Done {
				chunk.Stats = piece.normalize()
			}
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
			if piece.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			ch <- StreamChunk{Err: backendErr(err)}
		}
	}()
	return ch, nil
}

// ListModels returns the identifiers the server has pulled.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, core.ErrBackend("REQUEST_FAILED", "creating tags request").WithCause(err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, backendErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, httpErr(resp.StatusCode, payload)
	}
	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.ErrBackend("BAD_RESPONSE", "decoding tags response").WithCause(err)
	}
	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = m.Name
	}
	return names, nil
}

// Ping checks reachability of the backend.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return core.ErrBackend("MARSHAL_FAILED", "encoding request").WithCause(err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return core.ErrBackend("REQUEST_FAILED", "creating request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return backendErr(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.ErrBackend("BAD_RESPONSE", "reading response").WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		return httpErr(resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return core.ErrBackend("BAD_RESPONSE", "decoding response").WithCause(err)
	}
	return nil
}

func backendErr(err error) error {
	if err == nil {
		return nil
	}
	return core.ErrBackend("UNREACHABLE", "backend request failed").WithCause(err)
}

func httpErr(status int, body []byte) error {
	msg := fmt.Sprintf("backend returned HTTP %d", status)
	if len(body) > 0 {
		const max = 300
		b := string(body)
		if len(b) > max {
			b = b[:max]
		}
		msg += ": " + b
	}
	return core.ErrBackend(fmt.Sprintf("HTTP_%d", status), msg)
}
