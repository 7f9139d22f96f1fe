// Package imagegen talks to an OpenAI-compatible images API: text to
// image, image variations and masked edits.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/javanhut/artgit/internal/errs"
)

// RemoteServiceError is any failure of an image request after validation:
// transport errors, timeouts, non-200 statuses and unusable bodies.
type RemoteServiceError struct {
	Status  int    // HTTP status, 0 when no response arrived
	Message string // human-readable, shown to the user as-is
	Err     error
}

func (e *RemoteServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("API Error %d: %s", e.Status, e.Message)
	}
	return e.Message
}

func (e *RemoteServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{errs.ErrRemote}
	}
	return []error{errs.ErrRemote, e.Err}
}

// RateLimits is the last request quota reported by the server.
type RateLimits struct {
	Remaining int
	Limit     int
}

// Client issues image requests. A Client is safe for concurrent use; each
// request is independent.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.Mutex
	limits RateLimits
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. Config.Timeout still
// bounds every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient returns a client for cfg. Empty fields take DefaultConfig
// values; an empty API key is an error.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Size == "" {
		cfg.Size = def.Size
	}
	if cfg.Quality == "" {
		cfg.Quality = def.Quality
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RateLimits returns the quota from the most recent response.
func (c *Client) RateLimits() RateLimits {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limits
}

// Result is the outcome of an asynchronous request.
type Result struct {
	Image []byte
	Err   error
}

// Go runs req on a new goroutine and delivers exactly one Result.
// Cancelling ctx does not stop the request; only the configured timeout
// bounds it. Values carried by ctx are kept.
func (c *Client) Go(ctx context.Context, req Request) <-chan Result {
	out := make(chan Result, 1)
	ctx = context.WithoutCancel(ctx)
	go func() {
		img, err := c.Do(ctx, req)
		out <- Result{Image: img, Err: err}
	}()
	return out
}

// Do performs req and returns the decoded image bytes. It blocks until the
// server answers or the timeout expires and never retries.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	kind, err := req.Kind()
	if err != nil {
		return nil, err
	}
	body, contentType, err := c.encode(kind, req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.doRequest(ctx, kind.path(), contentType, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteServiceError{Message: "reading response: " + err.Error(), Err: err}
	}
	var parsed imagesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &RemoteServiceError{Message: "decoding response: " + err.Error(), Err: err}
	}
	if parsed.Error != nil {
		return nil, &RemoteServiceError{Message: parsed.Error.Message}
	}
	if len(parsed.Data) == 0 || parsed.Data[0].B64JSON == "" {
		return nil, &RemoteServiceError{Message: "No image data received"}
	}
	img, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return nil, &RemoteServiceError{Message: "decoding image: " + err.Error(), Err: err}
	}

	c.logger.Info("image request complete", "kind", kind, "bytes", len(img), "elapsed", time.Since(start))
	return img, nil
}

func (c *Client) encode(kind Kind, req Request) ([]byte, string, error) {
	size := req.Size
	if size == "" {
		size = c.cfg.Size
	}
	n := req.N
	if n <= 0 {
		n = 1
	}

	if kind == Generate {
		body, err := json.Marshal(generateRequest{
			Model:          c.cfg.Model,
			Prompt:         req.Prompt,
			Size:           size,
			Quality:        c.cfg.Quality,
			N:              n,
			ResponseFormat: "b64_json",
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
		return body, "application/json", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := writePNG(w, "image", "image.png", req.Image); err != nil {
		return nil, "", err
	}
	if kind == Edit {
		if err := writePNG(w, "mask", "mask.png", req.Mask); err != nil {
			return nil, "", err
		}
		if err := w.WriteField("prompt", req.Prompt); err != nil {
			return nil, "", err
		}
	}
	fields := [][2]string{
		{"n", strconv.Itoa(n)},
		{"size", size},
		{"response_format", "b64_json"},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func writePNG(w *multipart.Writer, field, filename string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}

// doRequest posts body and returns the response for a 200 status.
func (c *Client) doRequest(ctx context.Context, path, contentType string, body []byte) (*http.Response, error) {
	url := c.cfg.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteServiceError{Message: "request failed: " + err.Error(), Err: err}
	}

	c.updateRateLimits(resp)

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &RemoteServiceError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	return resp, nil
}

// errorMessage extracts error.message from an API error body, falling back
// to the raw text.
func errorMessage(raw []byte) string {
	var parsed imagesResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(raw))
}

func (c *Client) updateRateLimits(resp *http.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, err := strconv.Atoi(resp.Header.Get("X-Ratelimit-Remaining-Requests")); err == nil {
		c.limits.Remaining = v
	}
	if v, err := strconv.Atoi(resp.Header.Get("X-Ratelimit-Limit-Requests")); err == nil {
		c.limits.Limit = v
	}
}
