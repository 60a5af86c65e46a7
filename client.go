package sdbx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sdbx/client-go/internal/api"
	"github.com/sdbx/client-go/internal/worker"
)

// Client uploads and downloads end-to-end encrypted shares.
// It holds no key material between calls and is safe for concurrent use;
// each call runs its own operation.
type Client struct {
	apiClient    *api.Client
	cipher       *worker.ChunkCipher
	logger       *zap.Logger
	tokens       TokenSource
	shareBaseURL string
	now          func() time.Time
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}

	cfg := &clientConfig{
		timeout:      defaultTimeout,
		shareBaseURL: defaultShareBaseURL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	transferClient := &http.Client{Timeout: cfg.transferTimeout}
	if cfg.httpClient != nil {
		transferClient.Transport = cfg.httpClient.Transport
	}

	apiClient, err := api.NewClient(api.Config{
		BaseURL:        baseURL,
		HTTPClient:     cfg.httpClient,
		Timeout:        cfg.timeout,
		TransferClient: transferClient,
		Logger:         cfg.logger.Named("api"),
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	return &Client{
		apiClient:    apiClient,
		cipher:       worker.New(cfg.logger.Named("worker")),
		logger:       cfg.logger,
		tokens:       cfg.tokens,
		shareBaseURL: cfg.shareBaseURL,
		now:          cfg.now,
	}, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.apiClient.BaseURL()
}

// token returns a bot-verification token for action, or "" without a source.
func (c *Client) token(ctx context.Context, action string) (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	tok, err := c.tokens.Token(ctx, action)
	if err != nil {
		return "", fmt.Errorf("bot verification for %s: %w", action, err)
	}
	return tok, nil
}
