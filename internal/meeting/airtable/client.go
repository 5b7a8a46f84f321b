// Package airtable fetches meeting transcripts from an Airtable base.
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dthevenow/briefbot/internal/meeting"
)

// DefaultBaseURL is the public Airtable REST API root.
const DefaultBaseURL = "https://api.airtable.com/v0"

// Record is one raw Airtable record. Fields is kept as raw JSON because
// the column set varies per base; the adapter picks out what it needs.
type Record struct {
	ID          string          `json:"id"`
	CreatedTime string          `json:"createdTime"`
	Fields      json.RawMessage `json:"fields"`
}

type recordPage struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// Client is a thin HTTP client for the Airtable REST API scoped to a
// single table. It handles Bearer auth, offset pagination, and retry on
// transient 5xx responses.
type Client struct {
	baseURL    string
	apiKey     string
	baseID     string
	table      string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a client for one base and table.
func NewClient(baseURL, apiKey, baseID, table string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		baseID:  baseID,
		table:   table,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		maxRetries: 3,
	}
}

// ListRecords fetches every record in the table, following offset
// pagination until the table is exhausted.
func (c *Client) ListRecords(ctx context.Context) ([]Record, error) {
	var all []Record
	offset := ""
	for {
		page, err := c.listPage(ctx, url.Values{}, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

// Ping fetches a single record to verify credentials and table access.
func (c *Client) Ping(ctx context.Context) error {
	query := url.Values{}
	query.Set("maxRecords", "1")
	_, err := c.listPage(ctx, query, "")
	return err
}

func (c *Client) listPage(
	ctx context.Context,
	query url.Values,
	offset string,
) (*recordPage, error) {
	if offset != "" {
		query.Set("offset", offset)
	}

	reqURL := fmt.Sprintf(
		"%s/%s/%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(c.table),
	)
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("listing %s records: %w", c.table, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("reading response body: %w", readErr)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized,
			resp.StatusCode == http.StatusForbidden:
			return nil, &meeting.AuthError{
				SourceType: meeting.SourceTypeAirtable,
				Message: fmt.Sprintf(
					"authentication failed (%d): check the API key and base access",
					resp.StatusCode,
				),
			}
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf(
				"airtable server error (%d) listing %s", resp.StatusCode, c.table,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
				continue
			}
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf(
				"unexpected status %d listing %s", resp.StatusCode, c.table,
			)
		}

		var page recordPage
		if err := json.Unmarshal(respBody, &page); err != nil {
			return nil, fmt.Errorf("unmarshaling record page: %w", err)
		}
		return &page, nil
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}
