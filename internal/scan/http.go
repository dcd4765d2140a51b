package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a single call to a scanning endpoint.
const DefaultTimeout = 60 * time.Second

// maxResponseSize caps how much of an endpoint response is read.
const maxResponseSize = 1 << 20

// HTTPScanner posts the document to an extraction endpoint and decodes the
// fields from its JSON response:
//
//	{"fields": {"number": "X123", "expires_at": "2030-01-01"}}
//
// An endpoint answering 415 Unsupported Media Type or 422 Unprocessable
// Entity is treated as not supporting the document.
type HTTPScanner struct {
	endpoint string
	client   *http.Client
}

// NewHTTPScanner creates a scanner for endpoint. A zero timeout uses
// DefaultTimeout.
func NewHTTPScanner(endpoint string, timeout time.Duration) *HTTPScanner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPScanner{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

func (h *HTTPScanner) Name() string { return "http" }

type scanResponse struct {
	Fields map[string]any `json:"fields"`
	Error  string         `json:"error,omitempty"`
}

// Scan sends data to <endpoint>/<kind>.
func (h *HTTPScanner) Scan(ctx context.Context, data []byte, kind string) (Fields, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+"/"+kind, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", http.DetectContentType(data))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnsupportedMediaType, resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, ErrUnsupported
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out scanResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("endpoint error: %s", out.Error)
	}

	fields := make(Fields, len(out.Fields))
	for k, v := range out.Fields {
		if v == nil {
			fields[k] = ""
			continue
		}
		fields[k] = fmt.Sprint(v)
	}
	return fields, nil
}
