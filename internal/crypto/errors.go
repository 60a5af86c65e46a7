package crypto

import "errors"

var (
	// ErrAuthenticationFailed is returned when an envelope does not verify.
	// It covers tampering, truncation, and use of the wrong key or password.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrInvalidKeyMaterial is returned when a key or salt cannot be decoded
	// from its transport form or has the wrong length.
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrInvalidKeySize is returned when raw key bytes are not AESKeySize long.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrEnvelopeTooShort is returned when an envelope cannot hold an IV and a tag.
	ErrEnvelopeTooShort = errors.New("envelope too short")

	// ErrEmptySalt is returned when a derivation is attempted without a salt.
	ErrEmptySalt = errors.New("salt is required")
)
