// Package opentdb implements the question source against the Open Trivia
// Database HTTP API (https://opentdb.com).
package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-server/internal/domain"
)

const (
	defaultBaseURL = "https://opentdb.com"
	defaultTimeout = 10 * time.Second
)

// API response codes, per the provider's documentation.
const (
	codeSuccess        = 0
	codeNoResults      = 1
	codeInvalidParam   = 2
	codeTokenNotFound  = 3
	codeTokenExhausted = 4
)

// Config tunes the client. Zero values fall back to the defaults; the
// session token is opt-in.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	UseToken bool
}

// Client fetches trivia questions. When UseToken is set, a provider
// session token is shared by all game sessions so the API avoids
// repeating questions; the token request is deduplicated across
// concurrent sessions.
type Client struct {
	baseURL  string
	httpc    *http.Client
	useToken bool

	sf    singleflight.Group
	mu    sync.Mutex
	token string
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		httpc:    &http.Client{Timeout: cfg.Timeout},
		useToken: cfg.UseToken,
	}
}

type apiResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []domain.Question `json:"results"`
}

// Fetch requests a batch of questions. An empty category means no topic
// filter. A batch smaller than amount (or empty) is a valid result; any
// transport or API-level failure is returned as a retryable error.
func (c *Client) Fetch(ctx context.Context, amount int, difficulty, category string) ([]domain.Question, error) {
	query := url.Values{}
	query.Set("amount", strconv.Itoa(amount))
	query.Set("difficulty", difficulty)
	if category != "" {
		query.Set("category", category)
	}
	if token := c.sessionToken(ctx); token != "" {
		query.Set("token", token)
	}

	var body apiResponse
	if err := c.getJSON(ctx, "/api.php", query, &body); err != nil {
		return nil, err
	}

	switch body.ResponseCode {
	case codeSuccess, codeNoResults:
		// codeNoResults means the pool is smaller than the request;
		// the provider still returns what it has.
		return body.Results, nil
	case codeInvalidParam:
		return nil, fmt.Errorf("opentdb: rejected query %v", query)
	case codeTokenNotFound, codeTokenExhausted:
		c.clearToken()
		return nil, fmt.Errorf("opentdb: session token expired")
	default:
		return nil, fmt.Errorf("opentdb: response code %d", body.ResponseCode)
	}
}

type tokenResponse struct {
	ResponseCode int    `json:"response_code"`
	Token        string `json:"token"`
}

// sessionToken returns the shared token, requesting one on first use.
// A token failure degrades to tokenless fetching rather than failing
// the question fetch.
func (c *Client) sessionToken(ctx context.Context) string {
	if !c.useToken {
		return ""
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token
	}

	v, err, _ := c.sf.Do("token", func() (interface{}, error) {
		c.mu.Lock()
		if c.token != "" {
			token := c.token
			c.mu.Unlock()
			return token, nil
		}
		c.mu.Unlock()

		query := url.Values{}
		query.Set("command", "request")
		var body tokenResponse
		if err := c.getJSON(ctx, "/api_token.php", query, &body); err != nil {
			return "", err
		}
		if body.ResponseCode != codeSuccess || body.Token == "" {
			return "", fmt.Errorf("opentdb: token response code %d", body.ResponseCode)
		}

		c.mu.Lock()
		c.token = body.Token
		c.mu.Unlock()
		return body.Token, nil
	})
	if err != nil {
		log.Printf("opentdb: session token unavailable: %v", err)
		return ""
	}
	return v.(string)
}

func (c *Client) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("opentdb: build request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("opentdb: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("opentdb: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("opentdb: decode response: %w", err)
	}
	return nil
}
