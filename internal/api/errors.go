package api

import (
	"errors"
	"fmt"
	"strings"
)

// Common API errors that can be checked with errors.Is.
var (
	// ErrNotFound indicates the object does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrGone indicates the object expired or was already downloaded.
	ErrGone = errors.New("file is no longer available")
	// ErrReserved indicates another download of the object is in progress.
	ErrReserved = errors.New("file is currently being downloaded")
	// ErrLocked indicates PIN entry is locked after too many attempts.
	ErrLocked = errors.New("too many incorrect PIN attempts")
	// ErrWrongPIN indicates the PIN was rejected.
	ErrWrongPIN = errors.New("incorrect PIN")
	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ResourceType indicates which endpoint family an error came from.
type ResourceType string

const (
	// ResourceUnknown indicates the resource type is not specified.
	ResourceUnknown ResourceType = ""
	// ResourceFile indicates a backend metadata or gating endpoint.
	ResourceFile ResourceType = "file"
	// ResourceObject indicates a presigned storage URL.
	ResourceObject ResourceType = "object"
	// ResourcePIN indicates a PIN endpoint.
	ResourcePIN ResourceType = "pin"
)

// APIError represents an HTTP error from the backend or the storage service.
type APIError struct {
	StatusCode   int
	Message      string
	RequestID    string
	ResourceType ResourceType
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

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	if e.ResourceType == ResourceObject {
		// Presigned URLs answer 403 once expired and 404 once deleted.
		switch e.StatusCode {
		case 403, 404, 410:
			return target == ErrGone
		}
		return false
	}

	switch e.StatusCode {
	case 400, 401, 403:
		return target == ErrWrongPIN && strings.Contains(strings.ToLower(e.Message), "pin") &&
			strings.Contains(strings.ToLower(e.Message), "incorrect")
	case 404:
		return target == ErrNotFound
	case 409:
		return target == ErrReserved
	case 410:
		return target == ErrGone
	case 423:
		return target == ErrLocked
	case 429:
		return target == ErrRateLimited
	}
	return false
}

// WithResourceType returns a copy of the error with the resource type set.
// If the error is not an *APIError, it is returned unchanged.
func WithResourceType(err error, rt ResourceType) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode:   apiErr.StatusCode,
			Message:      apiErr.Message,
			RequestID:    apiErr.RequestID,
			ResourceType: rt,
		}
	}
	return err
}

// NetworkError represents a network-level failure.
type NetworkError struct {
	Err error
	URL string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
