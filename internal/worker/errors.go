package worker

import (
	"errors"
	"fmt"

	"github.com/sdbx/client-go/internal/crypto"
)

// Code classifies a worker failure.
type Code string

const (
	// CodeAuthentication means the envelope did not verify under the key.
	CodeAuthentication Code = "authentication"
	// CodeInvalidKey means the key could not be imported.
	CodeInvalidKey Code = "invalid_key"
	// CodeRandom means the random source failed.
	CodeRandom Code = "random"
	// CodeInternal means the worker crashed.
	CodeInternal Code = "internal"
)

var messages = map[Code]string{
	CodeAuthentication: "data could not be authenticated",
	CodeInvalidKey:     "key could not be imported",
	CodeRandom:         "random source unavailable",
	CodeInternal:       "worker failed",
}

// Error is the structured failure a worker reports across its boundary.
// Message is fixed per Code and never carries primitive error text.
type Error struct {
	Op      string // "encrypt" or "decrypt"
	Stage   string // "key", "iv", "cipher"
	Code    Code
	Message string
	Err     error // crypto sentinel, nil for CodeInternal
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed at %s: %s", e.Op, e.Stage, e.Message)
}

// Unwrap returns the crypto sentinel behind the failure.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, stage string, err error) *Error {
	code := CodeInternal
	var sentinel error
	switch {
	case errors.Is(err, crypto.ErrAuthenticationFailed):
		code, sentinel = CodeAuthentication, crypto.ErrAuthenticationFailed
	case errors.Is(err, crypto.ErrInvalidKeyMaterial), errors.Is(err, crypto.ErrInvalidKeySize):
		code, sentinel = CodeInvalidKey, crypto.ErrInvalidKeyMaterial
	case stage == stageIV:
		code = CodeRandom
	}
	return &Error{
		Op:      op,
		Stage:   stage,
		Code:    code,
		Message: messages[code],
		Err:     sentinel,
	}
}
