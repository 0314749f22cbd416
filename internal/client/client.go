package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orderdesk/internal/model"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap exposes the error code as a domain error so callers can match
// sentinels such as model.ErrOrderNotFound.
func (e *APIError) Unwrap() error {
	if e.Code == "" {
		return nil
	}
	return model.NewDomainError(e.Code, e.Message)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLanguage sets the Accept-Language sent with every request.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// Client talks to the public storefront API.
type Client struct {
	baseURL  string
	http     *http.Client
	language string
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Menu returns the products currently on sale.
func (c *Client) Menu(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Checkout creates an order and returns the payment token.
func (c *Client) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResponse, error) {
	var resp model.CheckoutResponse
	if err := c.do(ctx, http.MethodPost, "/api/checkout", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmPayment asks the server to check the payment session and mark the
// order paid.
func (c *Client) ConfirmPayment(ctx context.Context, sessionID string) (*model.Order, error) {
	var order model.Order
	body := model.ConfirmPaymentRequest{SessionID: sessionID}
	if err := c.do(ctx, http.MethodPost, "/api/checkout/confirm", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// OrderStatus returns the current status of an order by number.
func (c *Client) OrderStatus(ctx context.Context, orderNumber string) (*model.StatusSnapshot, error) {
	var snap model.StatusSnapshot
	path := "/api/orders/" + url.PathEscape(orderNumber)
	if err := c.do(ctx, http.MethodGet, path, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body model.ErrorResponse
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && json.Unmarshal(data, &body) == nil {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
	}

	return apiErr
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
