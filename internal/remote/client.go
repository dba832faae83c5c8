package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"dupexport/internal/domain"
)

const maxErrorBody = 64 << 10

// Client talks to the export service: repository listing, class metadata and
// the export executor.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	logger    *slog.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the service rooted at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 60 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "dupexport",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root
func (c *Client) BaseURL() string { return c.baseURL }

// ListRepositories returns the repositories the service can export from
func (c *Client) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	body, err := c.get(ctx, "/repositories", nil)
	if err != nil {
		return nil, &FetchError{Op: "repositories", Err: err}
	}

	var repos []domain.Repository
	if err := json.Unmarshal(body, &repos); err != nil {
		return nil, &FetchError{Op: "repositories", Err: fmt.Errorf("decode response: %w", err)}
	}
	return repos, nil
}

// FetchCatalog loads the class metadata of one repository
func (c *Client) FetchCatalog(ctx context.Context, repoID string) (domain.Catalog, error) {
	body, err := c.get(ctx, "/classes", url.Values{"repoId": {repoID}})
	if err != nil {
		return nil, &FetchError{Op: "classes", Err: err}
	}

	catalog, err := DecodeCatalog(body)
	if err != nil {
		return nil, &FetchError{Op: "classes", Err: err}
	}
	return catalog, nil
}

// Export posts an encoded export request and returns the produced artifact.
// fallbackName is used when the response does not suggest a filename.
func (c *Client) Export(ctx context.Context, payload []byte, fallbackName string) (domain.Artifact, error) {
	reqID := uuid.NewString()
	logger := c.logger.With("request_id", reqID, "op", "export")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/export", bytes.NewReader(payload))
	if err != nil {
		return domain.Artifact{}, &SubmissionError{Message: err.Error(), Err: err}
	}
	c.decorate(req, reqID)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("export transport failure", "error", err)
		return domain.Artifact{}, &SubmissionError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := errorMessage(resp.StatusCode, body)
		logger.Warn("export rejected", "status", resp.StatusCode, "message", msg)
		return domain.Artifact{}, &SubmissionError{Status: resp.StatusCode, Message: msg}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Artifact{}, &SubmissionError{Status: resp.StatusCode, Message: err.Error(), Err: err}
	}

	filename := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if filename == "" {
		filename = fallbackName
	}
	logger.Info("export completed", "bytes", len(data), "filename", filename, "elapsed", time.Since(start))
	return domain.Artifact{Filename: filename, Data: data}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	reqID := uuid.NewString()
	c.decorate(req, reqID)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("remote request", "method", req.Method, "url", u, "request_id", reqID)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) decorate(req *http.Request, reqID string) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)
}

// DecodeCatalog parses a class metadata document. Both the wrapped form
// {"classes": {...}} and the bare class mapping are accepted.
func DecodeCatalog(body []byte) (domain.Catalog, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("response is not a class mapping: %w", err)
	}
	if top == nil {
		return nil, errors.New("response is not a class mapping: null")
	}

	classes := top
	if raw, ok := top["classes"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(raw, &inner); err == nil && inner != nil {
			classes = inner
		}
	}

	catalog := make(domain.Catalog, len(classes))
	for name, raw := range classes {
		catalog[name] = domain.Class{Name: name, Fields: decodeSlots(raw)}
	}
	return catalog, nil
}

// decodeSlots reads the "slots" member of a class entry. Anything that is not
// an object yields a class without fields.
func decodeSlots(raw json.RawMessage) map[string]domain.Field {
	fields := make(map[string]domain.Field)

	var entry struct {
		Slots map[string]json.RawMessage `json:"slots"`
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return fields
	}

	for name, attrRaw := range entry.Slots {
		var attrs map[string]any
		_ = json.Unmarshal(attrRaw, &attrs)
		fields[name] = domain.Field{Name: name, Attributes: attrs}
	}
	return fields
}

func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := path.Base(strings.ReplaceAll(params["filename"], `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
