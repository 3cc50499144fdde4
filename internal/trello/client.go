// Package trello is a thin client for the Trello cards API, used to open
// escalation tickets for long-inactive customers.
package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	appconfig "github.com/linuxmathew/customer-success-workflow/internal/config"
	"github.com/linuxmathew/customer-success-workflow/internal/pkg/httpretry"
)

// Card identifies a created Trello card.
type Card struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	ShortURL string `json:"shortUrl"`
}

// Client is the Trello API client.
type Client struct {
	baseURL    string
	apiKey     string
	token      string
	listID     string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a Trello client for the configured board list.
func NewClient(cfg appconfig.TrelloConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.trello.com"
	}
	timeout := cfg.Timeout()
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		token:   cfg.Token,
		listID:  cfg.ListID,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: timeout,
		}, 3),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// IsConfigured returns true if credentials and a target list are set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != "" && c.token != "" && c.listID != ""
}

// CreateCard creates a card on the configured list. The cards endpoint
// takes its arguments as query parameters.
func (c *Client) CreateCard(ctx context.Context, name, desc string) (*Card, error) {
	params := url.Values{
		"idList": {c.listID},
		"key":    {c.apiKey},
		"token":  {c.token},
		"name":   {name},
		"desc":   {desc},
	}

	reqURL := fmt.Sprintf("%s/1/cards?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("Trello API %d: %s", resp.StatusCode, string(respBody))
	}

	var card Card
	if err := json.Unmarshal(respBody, &card); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &card, nil
}
