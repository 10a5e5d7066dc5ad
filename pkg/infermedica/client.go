package infermedica

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"symptom-checker-be/pkg/interview"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultBaseURL     = "https://api.infermedica.com/v3"
	DefaultTimeout     = 30 * time.Second
	DefaultCacheSize   = 512
	DefaultEnrichCount = 5
)

type Config struct {
	BaseURL  string
	AppID    string
	AppKey   string
	Model    string // e.g. "infermedica-en"
	Language string
	Timeout  time.Duration

	// CacheSize bounds the condition-details cache.
	CacheSize int
	// EnrichCount is how many of the top conditions get details attached on
	// every diagnosis call. Zero disables enrichment.
	EnrichCount int
}

// Client talks to the Infermedica API. It implements interview.DiagnosisGateway
// and interview.SymptomParser.
type Client struct {
	cfg     Config
	http    *http.Client
	details *lru.Cache[string, interview.ConditionDetails]
}

var (
	_ interview.DiagnosisGateway = (*Client)(nil)
	_ interview.SymptomParser    = (*Client)(nil)
)

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}

	cache, err := lru.New[string, interview.ConditionDetails](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create details cache: %w", err)
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		details: cache,
	}, nil
}

// do sends one JSON request. Any transport failure, non-2xx status or
// undecodable body comes back as *interview.GatewayError.
func (c *Client) do(ctx context.Context, op, method, path, interviewID string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &interview.GatewayError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return &interview.GatewayError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("App-Id", c.cfg.AppID)
	req.Header.Set("App-Key", c.cfg.AppKey)
	if c.cfg.Model != "" {
		req.Header.Set("Model", c.cfg.Model)
	}
	if c.cfg.Language != "" {
		req.Header.Set("Language", c.cfg.Language)
	}
	if interviewID != "" {
		req.Header.Set("Interview-Id", interviewID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &interview.GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &interview.GatewayError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &interview.GatewayError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("body: %s", truncate(raw, 256))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &interview.GatewayError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
