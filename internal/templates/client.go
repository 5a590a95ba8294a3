package templates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erpsystem/doccheck/internal/models"
	"github.com/erpsystem/doccheck/pkg/metrics"
)

// Client is a thin client of the templates service REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL, e.g. http://localhost:8087.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		// PDF rendering can take a while for large templates
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// StatusError is a non-2xx response from the templates service.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// List returns all templates.
func (c *Client) List(ctx context.Context) ([]models.Template, error) {
	var out []models.Template
	if err := c.doJSON(ctx, "list", http.MethodGet, "/api/templates", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type updateRequest struct {
	Content        string `json:"content"`
	LastModifiedBy string `json:"lastModifiedBy"`
}

// UpdateContent replaces the source content of template id.
func (c *Client) UpdateContent(ctx context.Context, id, content, modifiedBy string) error {
	body := updateRequest{Content: content, LastModifiedBy: modifiedBy}
	return c.doJSON(ctx, "update", http.MethodPut, "/api/templates/"+url.PathEscape(id), body, nil)
}

// RenderPDF renders template id with renderCtx and returns the PDF bytes.
func (c *Client) RenderPDF(ctx context.Context, id string, renderCtx interface{}) ([]byte, error) {
	path := "/api/templates/" + url.PathEscape(id) + "/pdf"
	resp, err := c.send(ctx, http.MethodPost, path, renderCtx)
	if err != nil {
		metrics.TemplateOperations.WithLabelValues("render", "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.TemplateOperations.WithLabelValues("render", "error").Inc()
		return nil, fmt.Errorf("failed to read pdf for template %s: %w", id, err)
	}
	if len(data) == 0 {
		metrics.TemplateOperations.WithLabelValues("render", "error").Inc()
		return nil, fmt.Errorf("template %s rendered an empty pdf", id)
	}
	metrics.TemplateOperations.WithLabelValues("render", "ok").Inc()
	return data, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out interface{}) error {
	resp, err := c.send(ctx, method, path, in)
	if err != nil {
		metrics.TemplateOperations.WithLabelValues(op, "error").Inc()
		return err
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			metrics.TemplateOperations.WithLabelValues(op, "error").Inc()
			return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
		}
	}
	metrics.TemplateOperations.WithLabelValues(op, "ok").Inc()
	return nil
}

// send performs the request and returns the response only for 2xx statuses.
func (c *Client) send(ctx context.Context, method, path string, in interface{}) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s %s request: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call templates service: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(b)}
	}
	return resp, nil
}
