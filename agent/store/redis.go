package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrInvalidKey = errors.New("record key is empty")

const (
	defaultMemoryKeyPrefix = "brew:memory:"
	defaultOrderKeyPrefix  = "brew:order:"
	defaultStoreTTL        = 0 // preference and order records do not expire
	maxResponseSizeBytes   = 2 << 20
)

// RestConfig configures the Upstash Redis REST transport shared by the
// per-user record stores.
type RestConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// RestOption customizes a RestClient.
type RestOption func(*RestClient)

func WithHTTPClient(client *http.Client) RestOption {
	return func(c *RestClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTTL(ttl time.Duration) RestOption {
	return func(c *RestClient) {
		c.ttl = ttl
	}
}

// RestClient executes Redis commands against the Upstash REST endpoint. Each
// record is one JSON value per key, overwritten wholesale on every write.
type RestClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	ttl        time.Duration
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func NewRestClient(cfg RestConfig, opts ...RestOption) (*RestClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("redis rest url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("redis rest token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &RestClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		ttl:        defaultStoreTTL,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}

	return client, nil
}

// GetJSON loads the JSON record at key into dest. It reports whether the key
// existed.
func (c *RestClient) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, ErrInvalidKey
	}

	resp, err := c.exec(ctx, []any{"GET", key})
	if err != nil {
		return false, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return false, nil
	}

	var encoded string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return false, fmt.Errorf("decode record payload: %w", err)
	}
	if err := json.Unmarshal([]byte(encoded), dest); err != nil {
		return false, fmt.Errorf("unmarshal record %s: %w", key, err)
	}
	return true, nil
}

// SetJSON overwrites the record at key wholesale.
func (c *RestClient) SetJSON(ctx context.Context, key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", key, err)
	}

	cmd := []any{"SET", key, string(payload)}
	if c.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(c.ttl))
	}

	_, err = c.exec(ctx, cmd)
	return err
}

func (c *RestClient) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	_, err := c.exec(ctx, []any{"DEL", key})
	return err
}

func (c *RestClient) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if c == nil {
		return nil, errors.New("nil rest client")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
