package sdbx

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sdbx/client-go/internal/api"
	"github.com/sdbx/client-go/internal/archive"
	"github.com/sdbx/client-go/internal/crypto"
	"github.com/sdbx/client-go/internal/sharelink"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []struct {
		name string
		err  error
	}{
		{"ErrMissingBaseURL", ErrMissingBaseURL},
		{"ErrInvalidKeyMaterial", ErrInvalidKeyMaterial},
		{"ErrAuthenticationFailed", ErrAuthenticationFailed},
		{"ErrWrongPassword", ErrWrongPassword},
		{"ErrPasswordRequired", ErrPasswordRequired},
		{"ErrValidation", ErrValidation},
		{"ErrNotFound", ErrNotFound},
		{"ErrGone", ErrGone},
		{"ErrReserved", ErrReserved},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrLocked", ErrLocked},
		{"ErrInvalidLink", ErrInvalidLink},
		{"ErrInvalidPIN", ErrInvalidPIN},
		{"ErrInvalidTTL", ErrInvalidTTL},
	}

	for _, s := range sentinels {
		t.Run(s.name, func(t *testing.T) {
			if s.err == nil {
				t.Fatal("sentinel error is nil")
			}
			if s.err.Error() == "" {
				t.Error("sentinel error has empty message")
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{"status only", &APIError{StatusCode: 500}, "API error 500"},
		{"with message", &APIError{StatusCode: 404, Message: "File not found"}, "API error 404: File not found"},
		{"with request id", &APIError{StatusCode: 500, RequestID: "req-1"}, "API error 500 (request_id: req-1)"},
		{"all", &APIError{StatusCode: 410, Message: "gone", RequestID: "r"}, "API error 410: gone (request_id: r)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    *APIError
		target error
		want   bool
	}{
		{"404 is not found", &APIError{StatusCode: 404}, ErrNotFound, true},
		{"410 is gone", &APIError{StatusCode: 410}, ErrGone, true},
		{"409 is reserved", &APIError{StatusCode: 409}, ErrReserved, true},
		{"423 is locked", &APIError{StatusCode: 423}, ErrLocked, true},
		{"429 is rate limited", &APIError{StatusCode: 429}, ErrRateLimited, true},
		{"wrong pin", &APIError{StatusCode: 400, Message: "Incorrect PIN. 2 attempts left"}, ErrWrongPassword, true},
		{"other 400", &APIError{StatusCode: 400, Message: "file_size must be a positive integer"}, ErrWrongPassword, false},
		{"404 is not gone", &APIError{StatusCode: 404}, ErrGone, false},
		{"object 403 is gone", &APIError{StatusCode: 403, resource: api.ResourceObject}, ErrGone, true},
		{"object 404 is gone", &APIError{StatusCode: 404, resource: api.ResourceObject}, ErrGone, true},
		{"object 404 is not not-found", &APIError{StatusCode: 404, resource: api.ResourceObject}, ErrNotFound, false},
		{"unrelated target", &APIError{StatusCode: 404}, ErrValidation, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.want)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Errors: []string{"Too many files", "Total size is too large"}}
	if got, want := err.Error(), "validation failed: Too many files; Total size is too large"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrValidation) {
		t.Error("ValidationError should match ErrValidation")
	}
}

func TestTransferError(t *testing.T) {
	err := &TransferError{State: StateFetching, Kind: FailureGone, Err: ErrGone}
	if got, want := err.Error(), "fetching failed (gone): "+ErrGone.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrGone) {
		t.Error("TransferError should unwrap to its cause")
	}
	var sdbxErr SDBXError
	if !errors.As(err, &sdbxErr) {
		t.Error("TransferError should implement SDBXError")
	}
}

func TestWrapError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if wrapError("op", nil) != nil {
			t.Error("wrapError(nil) should be nil")
		}
	})

	t.Run("api error", func(t *testing.T) {
		in := &api.APIError{StatusCode: 410, Message: "File expired", RequestID: "abc"}
		var apiErr *APIError
		if !errors.As(wrapError("download", in), &apiErr) {
			t.Fatal("expected *APIError")
		}
		if apiErr.StatusCode != 410 || apiErr.Message != "File expired" || apiErr.RequestID != "abc" {
			t.Errorf("fields not preserved: %+v", apiErr)
		}
		if !errors.Is(apiErr, ErrGone) {
			t.Error("expected ErrGone")
		}
	})

	t.Run("network error", func(t *testing.T) {
		cause := errors.New("connection refused")
		in := &api.NetworkError{Err: cause, URL: "https://api.example.com/upload/init"}
		var te *TransportError
		if !errors.As(wrapError("upload", in), &te) {
			t.Fatal("expected *TransportError")
		}
		if te.Op != "upload" || te.URL != in.URL || !errors.Is(te, cause) {
			t.Errorf("unexpected transport error: %+v", te)
		}
	})

	t.Run("archive validation", func(t *testing.T) {
		in := &archive.ValidationError{Message: "Too many files"}
		if !errors.Is(wrapError("upload", in), ErrValidation) {
			t.Error("expected ErrValidation")
		}
	})

	t.Run("bad fragment", func(t *testing.T) {
		in := fmt.Errorf("%w: 1 segments", sharelink.ErrInvalidFragment)
		if !errors.Is(wrapError("download", in), ErrInvalidLink) {
			t.Error("expected ErrInvalidLink")
		}
	})

	t.Run("authentication", func(t *testing.T) {
		in := fmt.Errorf("open: %w", crypto.ErrAuthenticationFailed)
		err := wrapError("decrypt", in)
		var de *DecryptionError
		if !errors.As(err, &de) || de.Stage != "decrypt" {
			t.Fatalf("expected *DecryptionError, got %v", err)
		}
		if !errors.Is(err, ErrAuthenticationFailed) {
			t.Error("expected ErrAuthenticationFailed")
		}
	})

	t.Run("key material", func(t *testing.T) {
		in := fmt.Errorf("%w: bad length", crypto.ErrInvalidKeyMaterial)
		if !errors.Is(wrapError("download", in), ErrInvalidKeyMaterial) {
			t.Error("expected ErrInvalidKeyMaterial")
		}
	})

	t.Run("sdk errors pass through", func(t *testing.T) {
		in := &ValidationError{Errors: []string{"x"}}
		if wrapError("upload", in) != error(in) {
			t.Error("SDK error should be returned unchanged")
		}
	})

	t.Run("other", func(t *testing.T) {
		in := errors.New("boom")
		if wrapError("upload", in) != in {
			t.Error("unknown error should be returned unchanged")
		}
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"nil", nil, FailureNone},
		{"canceled", fmt.Errorf("x: %w", context.Canceled), FailureCanceled},
		{"deadline", context.DeadlineExceeded, FailureCanceled},
		{"wrong password", &DecryptionError{Stage: "unwrap", Err: ErrWrongPassword}, FailureWrongPassword},
		{"password required", ErrPasswordRequired, FailureWrongPassword},
		{"wrong pin", &APIError{StatusCode: 400, Message: "Incorrect PIN. 1 attempts left"}, FailureWrongPassword},
		{"locked", &APIError{StatusCode: 423, Message: "Incorrect PIN. File locked for 12 hours"}, FailureLocked},
		{"gone", &APIError{StatusCode: 410}, FailureGone},
		{"object gone", &APIError{StatusCode: 403, resource: api.ResourceObject}, FailureGone},
		{"not found", &APIError{StatusCode: 404}, FailureNotFound},
		{"reserved", &APIError{StatusCode: 409}, FailureReserved},
		{"rate limited", &APIError{StatusCode: 429}, FailureRateLimited},
		{"validation", &ValidationError{Errors: []string{"x"}}, FailureValidation},
		{"ttl", ErrInvalidTTL, FailureValidation},
		{"pin", ErrInvalidPIN, FailureValidation},
		{"link", ErrInvalidLink, FailureInvalidKey},
		{"key material", ErrInvalidKeyMaterial, FailureInvalidKey},
		{"corrupted", &DecryptionError{Stage: "decrypt", Err: ErrAuthenticationFailed}, FailureCorrupted},
		{"network", &TransportError{Op: "upload", Err: errors.New("reset")}, FailureNetwork},
		{"server", &APIError{StatusCode: 500}, FailureServer},
		{"internal", errors.New("boom"), FailureInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
