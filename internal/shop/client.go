package shop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/erpsystem/doccheck/pkg/metrics"
)

// Client talks GraphQL to the shop service. Each call is attempted exactly
// once; failures surface to the caller.
type Client struct {
	endpoint    string
	httpClient  *http.Client
	token       string
	tokenSource func() (string, error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithToken sends a static bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTokenSource mints a bearer token per request. It takes precedence over WithToken.
func WithTokenSource(src func() (string, error)) Option {
	return func(c *Client) { c.tokenSource = src }
}

// NewClient creates a client for the GraphQL endpoint URL.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Endpoint returns the GraphQL URL the client posts to.
func (c *Client) Endpoint() string { return c.endpoint }

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []ErrorEntry    `json:"errors"`
}

// Do posts a GraphQL operation and decodes the data member into out.
// A non-empty errors list fails the call regardless of the HTTP status.
func (c *Client) Do(ctx context.Context, operation, query string, variables map[string]interface{}, out interface{}) error {
	outcome := "ok"
	defer func() { metrics.GraphQLRequests.WithLabelValues(operation, outcome).Inc() }()

	body, err := json.Marshal(request{Query: query, OperationName: operation, Variables: variables})
	if err != nil {
		outcome = "encode"
		return fmt.Errorf("failed to marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		outcome = "transport"
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if err := c.authorize(req); err != nil {
		outcome = "auth"
		return fmt.Errorf("failed to authorize %s request: %w", operation, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "transport"
		return fmt.Errorf("failed to call shop service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "transport"
		return fmt.Errorf("failed to read %s response: %w", operation, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if decodeErr == nil && len(env.Errors) > 0 {
		outcome = "graphql"
		return &GraphQLError{Operation: operation, StatusCode: resp.StatusCode, Errors: env.Errors}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "status"
		return &HTTPStatusError{Operation: operation, StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	if decodeErr != nil {
		outcome = "decode"
		return fmt.Errorf("failed to decode %s response: %w", operation, decodeErr)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		outcome = "decode"
		return fmt.Errorf("%s response has no data", operation)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			outcome = "decode"
			return fmt.Errorf("failed to decode %s data: %w", operation, err)
		}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) error {
	token := c.token
	if c.tokenSource != nil {
		t, err := c.tokenSource()
		if err != nil {
			return err
		}
		token = t
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
