package sdbx

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultShareBaseURL = "https://sdbx.cc"
	defaultTimeout      = 30 * time.Second
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	httpClient      *http.Client
	timeout         time.Duration
	transferTimeout time.Duration
	logger          *zap.Logger
	tokens          TokenSource
	shareBaseURL    string
	now             func() time.Time
}

// transferConfig holds configuration for one upload or download.
type transferConfig struct {
	ttl          TTL
	progress     ProgressFunc
	password     string
	passwordFunc PasswordFunc
}

// Option configures the client.
type Option func(*clientConfig)

// TransferOption configures a single upload or download.
type TransferOption func(*transferConfig)

// PasswordFunc is asked for a vault password only when the link being
// downloaded turns out to be a vault link.
type PasswordFunc func(ctx context.Context) (string, error)

// WithHTTPClient sets a custom HTTP client for backend API calls.
// Object transfers reuse its transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the timeout of each backend API call.
// Default: 30 seconds
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithTransferTimeout bounds each ciphertext upload or download.
// Default: no limit, since objects can be hundreds of megabytes.
func WithTransferTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.transferTimeout = timeout
	}
}

// WithLogger sets the logger. State transitions are logged at debug level;
// key material, passwords and link fragments are never logged.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithTokenSource sets where bot-verification tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *clientConfig) {
		c.tokens = ts
	}
}

// WithShareBaseURL sets the site that share links point at.
// Default: https://sdbx.cc
func WithShareBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.shareBaseURL = url
	}
}

// WithClock sets the time source used for bundle names.
func WithClock(now func() time.Time) Option {
	return func(c *clientConfig) {
		c.now = now
	}
}

// WithTTL sets how long an upload stays available. Default: 24 hours.
func WithTTL(ttl TTL) TransferOption {
	return func(c *transferConfig) {
		c.ttl = ttl
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) TransferOption {
	return func(c *transferConfig) {
		c.progress = fn
	}
}

// WithPassword supplies the password for vault links.
func WithPassword(password string) TransferOption {
	return func(c *transferConfig) {
		c.password = password
	}
}

// WithPasswordPrompt supplies a callback asked for the password only if the
// link is a vault link.
func WithPasswordPrompt(fn PasswordFunc) TransferOption {
	return func(c *transferConfig) {
		c.passwordFunc = fn
	}
}

func newTransferConfig(opts []TransferOption) *transferConfig {
	cfg := &transferConfig{ttl: DefaultTTL}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
