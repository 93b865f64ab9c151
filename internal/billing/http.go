package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a Stripe-style billing REST API: form-encoded requests,
// bearer-key auth, JSON responses. Every request is bounded by the HTTP
// client timeout so a hung provider surfaces as an error, never as an
// implicit success.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient builds a Client with a 10 second request timeout.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type customerResp struct {
	ID string `json:"id"`
}

type subscriptionResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type errorResp struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCustomer implements Provider.
func (c *Client) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("name", name)
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}
	var out customerResp
	if err := c.do(ctx, http.MethodPost, "/v1/customers", form, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// CreateSubscription implements Provider.
func (c *Client) CreateSubscription(ctx context.Context, customerRef, priceRef string) (string, string, error) {
	form := url.Values{}
	form.Set("customer", customerRef)
	form.Set("items[0][price]", priceRef)
	var out subscriptionResp
	if err := c.do(ctx, http.MethodPost, "/v1/subscriptions", form, &out); err != nil {
		return "", "", err
	}
	return out.ID, out.Status, nil
}

// CancelSubscription implements Provider.
func (c *Client) CancelSubscription(ctx context.Context, ref string) (string, error) {
	var out subscriptionResp
	if err := c.do(ctx, http.MethodDelete, "/v1/subscriptions/"+url.PathEscape(ref), nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// do sends one form-encoded request and decodes the JSON response into out.
// Non-2xx responses become errors carrying the provider's message.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("billing: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("billing: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResp
		if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
			return fmt.Errorf("billing: %s %s: %s (status %d)", method, path, e.Error.Message, resp.StatusCode)
		}
		return fmt.Errorf("billing: %s %s: status %d", method, path, resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}
