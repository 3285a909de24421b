package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/hocr-report/internal/common"
)

// Config configures the conversion client.
type Config struct {
	EndpointURL string
	Timeout     time.Duration // 0 = no client-side timeout
}

// Payload is a successful conversion response: the archive bytes, untouched.
type Payload struct {
	Body        []byte
	Status      int
	ContentType string
}

// StatusError reports a non-2xx answer from the conversion service.
type StatusError struct {
	Status int
	Body   string // leading bytes of the response body, for diagnostics
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("conversion failed with HTTP %d", e.Status)
	}
	return fmt.Sprintf("conversion failed with HTTP %d: %s", e.Status, e.Body)
}

func (e *StatusError) Unwrap() error {
	return common.ErrUpstreamStatus
}

// Client uploads documents to the conversion endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:   cfg.EndpointURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Endpoint returns the URL documents are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Submit posts the file at path as a multipart attachment keyed by its own
// base name. A non-2xx answer yields a *StatusError; transport failures are
// returned wrapped as-is.
func (c *Client) Submit(ctx context.Context, path string) (Payload, error) {
	name := filepath.Base(path)
	reqID := uuid.New().String()
	logger := c.logger.With(common.LogAttrs(ctx)...).With("req_id", reqID)
	start := time.Now()

	body, contentType, err := multipartBody(path, name)
	if err != nil {
		logger.Error("convert.http.build_body_error", "file", name, "error", err)
		return Payload{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		logger.Error("convert.http.build_request_error", "error", err)
		return Payload{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	logger.Info("convert.http.request",
		"url", c.endpoint,
		"file", name,
		"content_length", body.Len(),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("convert.http.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Payload{}, fmt.Errorf("post %s: %w", name, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn("convert.http.response_body_close_error", "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("convert.http.read_error", "status", resp.StatusCode, "error", err)
		return Payload{}, fmt.Errorf("read response for %s: %w", name, err)
	}

	logger.Info("convert.http.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return Payload{}, &StatusError{Status: resp.StatusCode, Body: snippet(raw, 512)}
	}
	return Payload{Body: raw, Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type")}, nil
}

// HealthCheck confirms the endpoint's host answers HTTP at all. Any status
// counts; only transport failures are reported.
func (c *Client) HealthCheck(ctx context.Context) error {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("conversion service health check failed: %w", err)
	}
	defer resp.Body.Close()
	c.logger.Info("convert.health", "url", c.endpoint, "status", resp.StatusCode)
	return nil
}

func multipartBody(path, name string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(name, name)
	if err != nil {
		return nil, "", fmt.Errorf("create form file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy %s into form: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func snippet(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "...(truncated)"
}

// IsStatus reports whether err carries a non-2xx conversion status, returning it.
func IsStatus(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}
