// Package ksef implements port.ExchangeConnector against the national
// e-invoicing exchange query API.
package ksef

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"farmbooks/internal/config"
	"farmbooks/internal/port"
)

// Client pulls issued invoices from the exchange. It never pushes anything;
// synchronization is strictly pull-based.
type Client struct {
	baseURL  string
	token    string
	pageSize int
	client   *http.Client
}

// NewClient creates an exchange client from config.
func NewClient(cfg *config.ExchangeConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		token:    cfg.Token,
		pageSize: pageSize,
		client:   &http.Client{Timeout: timeout},
	}
}

// queryResponse is one page of the exchange invoice query.
type queryResponse struct {
	Invoices []struct {
		KSeFNumber string    `json:"ksefNumber"`
		IssuedAt   time.Time `json:"issuedAt"`
		InvoiceXML string    `json:"invoiceXml"`
	} `json:"invoices"`
	NextCursor string `json:"nextCursor"`
	HasMore    bool   `json:"hasMore"`
}

// FetchBatch returns one page of invoices issued since the given time.
// Network failures, rate limits, and server errors come back wrapped in
// port.TransientExchangeError; client-side errors (bad token, bad request)
// are fatal.
func (c *Client) FetchBatch(ctx context.Context, since time.Time, cursor string) (*port.FetchBatchOutput, error) {
	q := url.Values{}
	q.Set("since", since.UTC().Format(time.RFC3339))
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	endpoint := c.baseURL + "/api/query/invoices?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating exchange request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &port.TransientExchangeError{Err: fmt.Errorf("calling exchange: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &port.TransientExchangeError{Err: fmt.Errorf("reading exchange response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("exchange error (status %d): %s", resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &port.TransientExchangeError{Err: baseErr}
		}
		return nil, baseErr
	}

	var page queryResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decoding exchange response: %w", err)
	}

	out := &port.FetchBatchOutput{
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		Documents:  make([]port.ExchangeDocument, 0, len(page.Invoices)),
	}
	for _, item := range page.Invoices {
		raw, err := base64.StdEncoding.DecodeString(item.InvoiceXML)
		if err != nil {
			return nil, fmt.Errorf("decoding invoice payload for %s: %w", item.KSeFNumber, err)
		}
		out.Documents = append(out.Documents, port.ExchangeDocument{
			KSeFNumber: item.KSeFNumber,
			IssuedAt:   item.IssuedAt,
			XML:        raw,
		})
	}
	return out, nil
}
