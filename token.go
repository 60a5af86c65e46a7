package sdbx

import "context"

// Bot-verification actions, one per gated endpoint.
const (
	ActionUpload    = "upload"
	ActionPinUpload = "pin_upload"
	ActionDownload  = "download"
	ActionReport    = "report"
)

// TokenSource supplies bot-verification tokens for gated backend calls.
// The backend decides whether a missing token is acceptable.
type TokenSource interface {
	Token(ctx context.Context, action string) (string, error)
}

// StaticToken is a TokenSource that returns the same token for every action.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context, string) (string, error) {
	return string(t), nil
}

// TokenFunc adapts a function to a TokenSource.
type TokenFunc func(ctx context.Context, action string) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context, action string) (string, error) {
	return f(ctx, action)
}
