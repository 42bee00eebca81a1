package worklog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ParseRequest is the wire contract sent to the parser service.
type ParseRequest struct {
	RequestID     uuid.UUID `json:"request_id"`
	UserID        string    `json:"user_id"`
	Draft         string    `json:"draft"`
	ReferenceDate string    `json:"reference_date,omitempty"`
}

// ParsedEntry is one draft entry the parser extracted. The caller reviews
// and confirms before anything is stored.
type ParsedEntry struct {
	ProjectCode string  `json:"project_code"`
	WorkDate    string  `json:"work_date"`
	Hours       float64 `json:"hours"`
	Note        string  `json:"note,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// ParseResponse is the parser service reply.
type ParseResponse struct {
	RequestID uuid.UUID     `json:"request_id"`
	Entries   []ParsedEntry `json:"entries"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// ParserError carries the upstream status so callers can surface parser
// failures unchanged instead of masking them as internal errors.
type ParserError struct {
	Status int
	Body   string
}

func (e *ParserError) Error() string {
	return fmt.Sprintf("worklog: parser returned %d: %s", e.Status, e.Body)
}

// ParserClient calls the external natural-language parser over HTTP.
type ParserClient struct {
	baseURL string
	client  *http.Client
}

// NewParserClient builds a client for the given base URL.
func NewParserClient(baseURL string, timeout time.Duration) *ParserClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ParserClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Parse submits a draft and returns the parsed entries.
func (c *ParserClient) Parse(ctx context.Context, req ParseRequest) (*ParseResponse, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("worklog: parser not configured")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("worklog: encode parse request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("worklog: build parse request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("worklog: call parser: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("worklog: read parser response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ParserError{Status: resp.StatusCode, Body: string(body)}
	}
	var out ParseResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("worklog: decode parser response: %w", err)
	}
	return &out, nil
}
