package sdbx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sdbx/client-go/internal/api"
	"github.com/sdbx/client-go/internal/archive"
	"github.com/sdbx/client-go/internal/crypto"
	"github.com/sdbx/client-go/internal/sharelink"
	"github.com/sdbx/client-go/internal/worker"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrMissingBaseURL is returned when no backend URL is provided.
	ErrMissingBaseURL = errors.New("backend base URL is required")

	// ErrInvalidKeyMaterial is returned when a key or salt in a link is malformed.
	// Only a fresh link from the sender can fix it.
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrAuthenticationFailed is returned when ciphertext does not verify under
	// the key from a single-access link: the data is corrupted or was tampered with.
	ErrAuthenticationFailed = errors.New("data is corrupted or was tampered with")

	// ErrWrongPassword is returned when a vault password or PIN is incorrect.
	ErrWrongPassword = errors.New("wrong password")

	// ErrPasswordRequired is returned when a vault link is opened without a password.
	ErrPasswordRequired = errors.New("password is required")

	// ErrValidation is returned when input is rejected before any work begins.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when the backend does not know the object.
	ErrNotFound = errors.New("file not found")

	// ErrGone is returned when the object expired or was already downloaded.
	ErrGone = errors.New("file has expired or was already downloaded")

	// ErrReserved is returned while another download of a single-access object is in flight.
	ErrReserved = errors.New("file is currently being downloaded")

	// ErrRateLimited is returned when the backend rate limit is exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrLocked is returned when PIN entry is locked after too many attempts.
	ErrLocked = errors.New("too many incorrect PIN attempts")

	// ErrInvalidLink is returned when a share link cannot be parsed.
	ErrInvalidLink = errors.New("invalid share link")

	// ErrInvalidPIN is returned when a PIN is not 4 letters or digits.
	ErrInvalidPIN = errors.New("PIN must be exactly 4 letters or digits")

	// ErrInvalidTTL is returned when a lifetime is outside the allowed range.
	ErrInvalidTTL = errors.New("invalid TTL")
)

// SDBXError is implemented by all SDK errors.
type SDBXError interface {
	error
	SDBXError() // marker method
}

// APIError represents an HTTP error from the backend or the storage service.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string // if returned by server

	resource api.ResourceType
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		if e.Message != "" {
			return fmt.Sprintf("API error %d: %s (request_id: %s)", e.StatusCode, e.Message, e.RequestID)
		}
		return fmt.Sprintf("API error %d (request_id: %s)", e.StatusCode, e.RequestID)
	}
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// SDBXError implements the SDBXError interface.
func (e *APIError) SDBXError() {}

// apiSentinels pairs each public sentinel with the internal one it stands for.
var apiSentinels = map[error]error{
	ErrNotFound:      api.ErrNotFound,
	ErrGone:          api.ErrGone,
	ErrReserved:      api.ErrReserved,
	ErrRateLimited:   api.ErrRateLimited,
	ErrLocked:        api.ErrLocked,
	ErrWrongPassword: api.ErrWrongPIN,
}

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	inner, ok := apiSentinels[target]
	if !ok {
		return false
	}
	return errors.Is(&api.APIError{
		StatusCode:   e.StatusCode,
		Message:      e.Message,
		ResourceType: e.resource,
	}, inner)
}

// TransportError represents a network-level failure. It is never retried
// internally; callers decide whether to try again.
type TransportError struct {
	Op  string
	URL string // query string removed
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// SDBXError implements the SDBXError interface.
func (e *TransportError) SDBXError() {}

// ValidationError contains the reasons an input was rejected.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// Is implements errors.Is for sentinel error matching.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SDBXError implements the SDBXError interface.
func (e *ValidationError) SDBXError() {}

// DecryptionError represents a failure to decrypt downloaded content or to
// unwrap a vault key. It never carries primitive error text.
type DecryptionError struct {
	Stage string // "decrypt", "unwrap"
	Err   error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("decryption failed at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// SDBXError implements the SDBXError interface.
func (e *DecryptionError) SDBXError() {}

// TransferError is returned by every upload and download. It records the
// state the operation failed in and the classified cause.
type TransferError struct {
	State State
	Kind  FailureKind
	Err   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.State, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransferError) Unwrap() error {
	return e.Err
}

// SDBXError implements the SDBXError interface.
func (e *TransferError) SDBXError() {}

// wrapError converts internal errors to public errors.
// This ensures that errors.Is() checks work with public sentinel errors.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var sdbxErr SDBXError
	if errors.As(err, &sdbxErr) {
		return err
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Message,
			RequestID:  apiErr.RequestID,
			resource:   apiErr.ResourceType,
		}
	}

	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return &TransportError{Op: op, URL: netErr.URL, Err: netErr.Err}
	}

	var archErr *archive.ValidationError
	if errors.As(err, &archErr) {
		return &ValidationError{Errors: []string{archErr.Message}}
	}

	if errors.Is(err, sharelink.ErrInvalidFragment) {
		return fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	var workerErr *worker.Error
	if errors.As(err, &workerErr) && workerErr.Code == worker.CodeAuthentication {
		return &DecryptionError{Stage: op, Err: ErrAuthenticationFailed}
	}
	if errors.Is(err, crypto.ErrAuthenticationFailed) {
		return &DecryptionError{Stage: op, Err: ErrAuthenticationFailed}
	}
	if errors.Is(err, crypto.ErrInvalidKeyMaterial) {
		return fmt.Errorf("%w: %s", ErrInvalidKeyMaterial, op)
	}

	return err
}

// classify maps an error to the failure kind reported in TransferError.
func classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	case errors.Is(err, ErrWrongPassword), errors.Is(err, ErrPasswordRequired):
		return FailureWrongPassword
	case errors.Is(err, ErrLocked):
		return FailureLocked
	case errors.Is(err, ErrGone):
		return FailureGone
	case errors.Is(err, ErrNotFound):
		return FailureNotFound
	case errors.Is(err, ErrReserved):
		return FailureReserved
	case errors.Is(err, ErrRateLimited):
		return FailureRateLimited
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidTTL), errors.Is(err, ErrInvalidPIN):
		return FailureValidation
	case errors.Is(err, ErrInvalidLink), errors.Is(err, ErrInvalidKeyMaterial):
		return FailureInvalidKey
	case errors.Is(err, ErrAuthenticationFailed):
		return FailureCorrupted
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return FailureNetwork
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return FailureServer
	}
	return FailureInternal
}
