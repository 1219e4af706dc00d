// Package sheets is a thin client for the Google Sheets values API,
// authenticated with a service account.
package sheets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const defaultBaseURL = "https://sheets.googleapis.com"

type tokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Client reads and writes spreadsheet cell ranges.
type Client struct {
	baseURL       string
	spreadsheetID string
	client        *http.Client
	tokens        tokenProvider
	log           zerolog.Logger
}

// Options override transport details, mainly for tests.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(credentialsPath, spreadsheetID string, log zerolog.Logger, opts Options) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	account, err := loadServiceAccount(credentialsPath)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		spreadsheetID: spreadsheetID,
		client:        httpClient,
		tokens:        newTokenSource(account, httpClient),
		log:           log.With().Str("component", "sheets").Logger(),
	}, nil
}

// Append adds a row after the last non-empty row of the sheet.
func (c *Client) Append(ctx context.Context, sheet string, row []interface{}) error {
	body, err := sjson.Set("{}", "values.-1", row)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED",
		c.baseURL, c.spreadsheetID, url.PathEscape(sheet))
	_, err = c.call(ctx, http.MethodPost, endpoint, []byte(body))
	return err
}

// Rows reads a range and returns its cells as strings. Short rows are
// returned as-is; callers pad as needed.
func (c *Client) Rows(ctx context.Context, rng string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		c.baseURL, c.spreadsheetID, url.PathEscape(rng))
	respBody, err := c.call(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	gjson.GetBytes(respBody, "values").ForEach(func(_, rowValue gjson.Result) bool {
		var row []string
		rowValue.ForEach(func(_, cell gjson.Result) bool {
			row = append(row, cell.String())
			return true
		})
		rows = append(rows, row)
		return true
	})
	return rows, nil
}

// Update writes a single value into a one-cell range.
func (c *Client) Update(ctx context.Context, rng string, value string) error {
	body, err := sjson.Set("{}", "values.-1", []string{value})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?valueInputOption=USER_ENTERED",
		c.baseURL, c.spreadsheetID, url.PathEscape(rng))
	_, err = c.call(ctx, http.MethodPut, endpoint, []byte(body))
	return err
}

func (c *Client) call(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sheets api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}
