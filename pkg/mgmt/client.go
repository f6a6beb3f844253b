// Package mgmt is the HTTP client for the entity management API. It
// speaks the Atom envelope dialect implemented by the atom and
// subscription packages, signs requests with shared access signatures
// and retries transient failures with exponential backoff.
package mgmt

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/sbatom/sbatom-go/pkg/rule"
	"github.com/sbatom/sbatom-go/pkg/sas"
	"github.com/sbatom/sbatom-go/pkg/subscription"
)

const (
	// apiVersion is the management API version requested on every call.
	apiVersion = "2021-05"

	// tokenValidity is how long issued request tokens stay valid. Tokens
	// are minted per request, so this only needs to cover retries.
	tokenValidity = 15 * time.Minute

	// defaultRequestTimeout bounds a single HTTP attempt when the caller
	// does not bring their own client.
	defaultRequestTimeout = 30 * time.Second

	contentTypeEntry = "application/atom+xml;type=entry;charset=utf-8"
)

// RetryConfig tunes the exponential backoff applied to transient
// request failures.
type RetryConfig struct {
	// InitialInterval is the first retry delay.
	InitialInterval time.Duration

	// MaxInterval caps the delay between attempts.
	MaxInterval time.Duration

	// MaxElapsedTime stops retrying once the total time spent exceeds
	// it.
	MaxElapsedTime time.Duration
}

// DefaultRetryConfig returns the retry configuration used when the
// client config leaves it zero.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		MaxElapsedTime:  2 * time.Minute,
	}
}

// ClientConfig configures a management client.
type ClientConfig struct {
	// Endpoint is the https address of the namespace, for example
	// "https://ns.example.net/".
	Endpoint string

	// TokenProvider signs requests. If nil, requests are sent without
	// an Authorization header, which only works against local fakes.
	TokenProvider *sas.TokenProvider

	// HTTPClient overrides the transport. If nil, a client with a
	// request timeout is used.
	HTTPClient *http.Client

	// Retry tunes transient failure handling. Zero fields fall back to
	// DefaultRetryConfig values.
	Retry RetryConfig

	// Logger is the optional logger for debug output. If nil, logging
	// is disabled.
	Logger *slog.Logger
}

// Client talks to the entity management API of one namespace.
type Client struct {
	endpoint string
	tokens   *sas.TokenProvider
	http     *http.Client
	retry    RetryConfig
	logger   *slog.Logger
	codec    subscription.Codec
}

// New returns a management client for the configured namespace.
func New(config ClientConfig) (*Client, error) {
	if config.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	endpoint := config.Endpoint
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	retry := config.Retry
	defaults := DefaultRetryConfig()
	if retry.InitialInterval <= 0 {
		retry.InitialInterval = defaults.InitialInterval
	}
	if retry.MaxInterval <= 0 {
		retry.MaxInterval = defaults.MaxInterval
	}
	if retry.MaxElapsedTime <= 0 {
		retry.MaxElapsedTime = defaults.MaxElapsedTime
	}

	return &Client{
		endpoint: endpoint,
		tokens:   config.TokenProvider,
		http:     httpClient,
		retry:    retry,
		logger:   config.Logger,
		codec:    subscription.Codec{Rules: rule.Codec{}},
	}, nil
}

// FromConnectionString returns a client for the namespace the
// connection string points at, authenticating with its shared access
// key.
func FromConnectionString(connectionString string) (*Client, error) {
	cs, err := sas.ParseConnectionString(connectionString)
	if err != nil {
		return nil, err
	}
	provider, err := cs.TokenProvider()
	if err != nil {
		return nil, err
	}
	return New(ClientConfig{
		Endpoint:      cs.HTTPSEndpoint(),
		TokenProvider: provider,
	})
}

// do runs one management request with retries. Transient failures,
// that is network errors, throttling and server errors, are retried
// with exponential backoff until MaxElapsedTime is spent. Everything
// else fails immediately.
func (c *Client) do(ctx context.Context, method, requestURL string, payload []byte, headers map[string]string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retry.InitialInterval
	policy.MaxInterval = c.retry.MaxInterval
	policy.MaxElapsedTime = c.retry.MaxElapsedTime

	var body []byte
	op := func() error {
		b, err := c.once(ctx, method, requestURL, payload, headers)
		if err != nil {
			c.debugLog("management request attempt failed",
				"method", method, "url", requestURL, "error", err)
			return err
		}
		body = b
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// once runs a single HTTP attempt.
func (c *Client) once(ctx context.Context, method, requestURL string, payload []byte, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, requestURL, bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("x-ms-client-request-id", uuid.New().String())
	if payload != nil {
		req.Header.Set("Content-Type", contentTypeEntry)
	}
	if c.tokens != nil {
		req.Header.Set("Authorization", c.tokens.Token(requestURL, time.Now().Add(tokenValidity)))
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	respErr := newResponseError(resp.StatusCode, body)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, respErr
	}
	return nil, backoff.Permanent(respErr)
}

func (c *Client) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
