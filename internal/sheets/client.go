// Package sheets is a thin client for the Google Sheets values API, used to
// pull raw user-activity rows into the pipeline.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/linuxmathew/customer-success-workflow/internal/pkg/httpretry"
)

// Config holds Sheets API configuration
type Config struct {
	BaseURL        string `yaml:"base_url"`
	AccessToken    string `yaml:"access_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Client is the Sheets API client
type Client struct {
	baseURL    string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a Sheets client authenticating with a bearer token.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://sheets.googleapis.com"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	base := oauth2.NewClient(context.Background(), ts)
	base.Timeout = timeout

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpretry.NewRetryClient(base, 3),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// Cell unmarshals from both string and number JSON values; the Sheets API
// returns unformatted numeric cells as numbers.
type Cell string

// UnmarshalJSON implements json.Unmarshaler for Cell
func (c *Cell) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Cell(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Cell(n.String())
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*c = Cell(fmt.Sprintf("%v", b))
		return nil
	}

	return fmt.Errorf("cell: cannot unmarshal %s", string(data))
}

// ValueRange is one range of rows from a batchGet response
type ValueRange struct {
	Range          string   `json:"range"`
	MajorDimension string   `json:"majorDimension"`
	Values         [][]Cell `json:"values"`
}

type batchGetResponse struct {
	SpreadsheetID string       `json:"spreadsheetId"`
	ValueRanges   []ValueRange `json:"valueRanges"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// BatchGetValues fetches the given A1-notation ranges and returns the rows
// of the first value range, header row included. An API or transport
// failure is returned as an error; the caller decides whether that is fatal.
func (c *Client) BatchGetValues(ctx context.Context, spreadsheetID string, ranges []string) ([][]string, error) {
	params := url.Values{}
	for _, r := range ranges {
		params.Add("ranges", r)
	}

	reqURL := fmt.Sprintf("%s/v4/spreadsheets/%s/values:batchGet?%s",
		c.baseURL, url.PathEscape(spreadsheetID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
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
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var response batchGetResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.ValueRanges) == 0 {
		return nil, nil
	}

	values := response.ValueRanges[0].Values
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = string(cell)
		}
		rows[i] = cells
	}
	return rows, nil
}
