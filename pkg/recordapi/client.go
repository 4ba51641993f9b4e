package recordapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Header names carrying the project credentials.
const (
	HeaderProjectID = "X-Project-Id"
	HeaderPublicKey = "X-Public-Key"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL   string
	ProjectID string
	PublicKey string
	Timeout   time.Duration
}

// Client talks to the record-storage service over HTTP.
type Client struct {
	baseURL    string
	projectID  string
	publicKey  string
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("record api base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid record api base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		projectID:  cfg.ProjectID,
		publicKey:  cfg.PublicKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// FetchRecords queries a table.
func (c *Client) FetchRecords(ctx context.Context, table string, params FetchParams) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.tablePath(table, "records", "query"), params)
}

// GetRecordByID fetches one record.
func (c *Client) GetRecordByID(ctx context.Context, table string, id int64, params FetchParams) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.tablePath(table, "records", strconv.FormatInt(id, 10), "query"), params)
}

// CreateRecord creates records; per-record outcomes are in Response.Results.
func (c *Client) CreateRecord(ctx context.Context, table string, records ...any) (*Response, error) {
	req, err := newWriteRequest(records)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, c.tablePath(table, "records"), req)
}

// UpdateRecord updates records; each must carry its Id.
func (c *Client) UpdateRecord(ctx context.Context, table string, records ...any) (*Response, error) {
	req, err := newWriteRequest(records)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, c.tablePath(table, "records"), req)
}

// DeleteRecord deletes records by id.
func (c *Client) DeleteRecord(ctx context.Context, table string, ids ...int64) (*Response, error) {
	return c.do(ctx, http.MethodDelete, c.tablePath(table, "records"), DeleteRequest{RecordIDs: ids})
}

func newWriteRequest(records []any) (WriteRequest, error) {
	req := WriteRequest{Records: make([]json.RawMessage, len(records))}
	for i, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return WriteRequest{}, fmt.Errorf("encode record %d: %w", i, err)
		}
		req.Records[i] = b
	}
	return req, nil
}

func (c *Client) tablePath(table string, parts ...string) string {
	segs := append([]string{c.baseURL, "api", "tables", url.PathEscape(table)}, parts...)
	return strings.Join(segs, "/")
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.projectID != "" {
		req.Header.Set(HeaderProjectID, c.projectID)
	}
	if c.publicKey != "" {
		req.Header.Set(HeaderPublicKey, c.publicKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !out.Success {
		status := resp.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		return &out, &APIError{StatusCode: status, Message: out.Message}
	}
	return &out, nil
}
