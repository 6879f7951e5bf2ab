// Package provider is the HTTP client for the upstream enhanced-
// transactions provider, consumed exclusively by the sync
// coordinator. It owns retry/backoff and the 429 rate-limit detection the
// teacher's collector applied to its own polling loop.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/shlinklfo/walletanalytics/internal/perr"
	"github.com/shlinklfo/walletanalytics/internal/swapparser"
)

// Signature is one entry of a signatures() page, newest-first.
type Signature struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
	BlockTime int64  `json:"blockTime"`
}

// SignaturesParams bounds a signatures() page request.
type SignaturesParams struct {
	Before string
	Until  string
	Limit  int
}

// Client is the provider boundary C8 depends on.
type Client interface {
	Signatures(ctx context.Context, address string, params SignaturesParams) ([]Signature, error)
	Enhance(ctx context.Context, signatures []string) ([]swapparser.EnhancedTransaction, error)
}

// HTTPClient implements Client against a Helius-shaped enhanced-
// transactions API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger

	retryMaxAttempts         int
	retryBaseDelay           time.Duration
	retryRateLimitMultiplier float64
}

// Config configures an HTTPClient.
type Config struct {
	BaseURL                  string
	APIKey                   string
	Timeout                  time.Duration
	RetryMaxAttempts         int
	RetryBaseDelay           time.Duration
	RetryRateLimitMultiplier float64
}

// NewHTTPClient builds an HTTPClient from cfg.
func NewHTTPClient(cfg Config, logger zerolog.Logger) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	maxAttempts := cfg.RetryMaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 5
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay == 0 {
		baseDelay = 2 * time.Second
	}
	multiplier := cfg.RetryRateLimitMultiplier
	if multiplier == 0 {
		multiplier = 3.0
	}
	return &HTTPClient{
		baseURL:                  cfg.BaseURL,
		apiKey:                   cfg.APIKey,
		http:                     &http.Client{Timeout: timeout},
		log:                      logger,
		retryMaxAttempts:         maxAttempts,
		retryBaseDelay:           baseDelay,
		retryRateLimitMultiplier: multiplier,
	}
}

// Signatures pages signatures for address, newest-first.
func (c *HTTPClient) Signatures(ctx context.Context, address string, params SignaturesParams) ([]Signature, error) {
	limit := params.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	url := fmt.Sprintf("%s/v0/addresses/%s/transactions?limit=%d", c.baseURL, address, limit)
	if params.Before != "" {
		url += "&before=" + params.Before
	}
	if params.Until != "" {
		url += "&until=" + params.Until
	}

	var out []Signature
	err := c.doWithRetry(ctx, url, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Enhance fetches the enhanced-transaction view for up to 100 signatures
// per call.
func (c *HTTPClient) Enhance(ctx context.Context, signatures []string) ([]swapparser.EnhancedTransaction, error) {
	if len(signatures) > 100 {
		return nil, perr.New(perr.ProviderMalformed, "", "enhance called with more than 100 signatures")
	}
	url := fmt.Sprintf("%s/v0/transactions", c.baseURL)

	var out []swapparser.EnhancedTransaction
	if err := c.postWithRetry(ctx, url, signatures, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// doWithRetry issues a GET with exponential backoff on retryable failures:
// base 2s, doubling each attempt, with a larger multiplier on 429s.
func (c *HTTPClient) doWithRetry(ctx context.Context, url string, out interface{}) error {
	return c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return perr.Wrap(perr.ProviderMalformed, "", "build request failed", err)
		}
		c.setAuth(req)
		return c.execute(req, out)
	})
}

func (c *HTTPClient) postWithRetry(ctx context.Context, url string, body interface{}, out interface{}) error {
	return c.retry(ctx, func() error {
		payload, err := json.Marshal(body)
		if err != nil {
			return perr.Wrap(perr.ProviderMalformed, "", "encode request body failed", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return perr.Wrap(perr.ProviderMalformed, "", "build request failed", err)
		}
		req.Header.Set("Content-Type", "application/json")
		c.setAuth(req)
		return c.execute(req, out)
	})
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *HTTPClient) execute(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return perr.Wrap(perr.ProviderUnavailable, "", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.log.Warn().Str("url", req.URL.String()).Msg("provider rate limited")
		return perr.New(perr.ProviderRateLimited, "", "rate limited (429)")
	}
	if resp.StatusCode >= 500 {
		return perr.New(perr.ProviderUnavailable, "", fmt.Sprintf("server error %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return perr.New(perr.ProviderMalformed, "", fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return perr.Wrap(perr.ProviderUnavailable, "", "read response body failed", err)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return perr.Wrap(perr.ProviderMalformed, "", "decode response body failed", err)
	}
	return nil
}

// retry runs fn up to retryMaxAttempts times, applying exponential backoff
// to retryable errors and a larger multiplier to rate-limit responses.
func (c *HTTPClient) retry(ctx context.Context, fn func() error) error {
	delay := c.retryBaseDelay
	var lastErr error

	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !perr.Retryable(err) {
			return err
		}

		if attempt == c.retryMaxAttempts {
			break
		}

		wait := delay
		if perr.RateLimited(err) {
			wait = time.Duration(float64(delay) * c.retryRateLimitMultiplier)
		}
		c.log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", wait).Msg("retrying provider call")

		select {
		case <-ctx.Done():
			return perr.Wrap(perr.Cancelled, "", "retry cancelled", ctx.Err())
		case <-time.After(wait):
		}
		delay *= 2
	}
	return lastErr
}
