package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"
)

// AEAD is a key imported into the AES-GCM primitive.
// It holds no mutable state and is safe for concurrent use.
type AEAD struct {
	gcm cipher.AEAD
}

// ImportKey prepares k for sealing and opening.
func ImportKey(k Key) (*AEAD, error) {
	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &AEAD{gcm: gcm}, nil
}

// NewEnvelope allocates an envelope buffer for a plaintext of n bytes and
// fills its first IVSize bytes with a fresh random IV. The result has length
// IVSize and is meant to be passed to SealInto.
func (a *AEAD) NewEnvelope(n int) ([]byte, error) {
	env := make([]byte, IVSize, IVSize+n+TagSize)
	if _, err := io.ReadFull(randReader, env); err != nil {
		return nil, fmt.Errorf("generate IV: %w", err)
	}
	return env, nil
}

// SealInto encrypts plaintext under the IV held in env and appends the
// ciphertext and tag. env must come from NewEnvelope and be used only once.
func (a *AEAD) SealInto(env, plaintext []byte) []byte {
	return a.gcm.Seal(env, env[:IVSize], plaintext, nil)
}

// Seal encrypts plaintext with a fresh random IV.
// Returns: IV (12 bytes) || ciphertext || tag (16 bytes)
func (a *AEAD) Seal(plaintext []byte) ([]byte, error) {
	env, err := a.NewEnvelope(len(plaintext))
	if err != nil {
		return nil, err
	}
	return a.SealInto(env, plaintext), nil
}

// Open decrypts an envelope into a new buffer.
func (a *AEAD) Open(envelope []byte) ([]byte, error) {
	return a.open(nil, envelope)
}

// OpenInPlace decrypts an envelope reusing its storage for the plaintext.
// The envelope is consumed: on failure its contents are undefined.
func (a *AEAD) OpenInPlace(envelope []byte) ([]byte, error) {
	if len(envelope) < EnvelopeOverhead {
		return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, ErrEnvelopeTooShort)
	}
	return a.open(envelope[IVSize:IVSize], envelope)
}

func (a *AEAD) open(dst, envelope []byte) ([]byte, error) {
	if len(envelope) < EnvelopeOverhead {
		return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, ErrEnvelopeTooShort)
	}
	plaintext, err := a.gcm.Open(dst, envelope[:IVSize], envelope[IVSize:], nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Seal encrypts plaintext under k with a fresh random IV.
func Seal(plaintext []byte, k Key) ([]byte, error) {
	a, err := ImportKey(k)
	if err != nil {
		return nil, err
	}
	return a.Seal(plaintext)
}

// Open decrypts an envelope produced by Seal.
// Every verification failure is reported as ErrAuthenticationFailed.
func Open(envelope []byte, k Key) ([]byte, error) {
	a, err := ImportKey(k)
	if err != nil {
		return nil, err
	}
	return a.Open(envelope)
}

// WrapKey seals the raw bytes of dataKey under wrapperKey.
func WrapKey(dataKey, wrapperKey Key) ([]byte, error) {
	raw := ExportRaw(dataKey)
	defer Wipe(raw)
	return Seal(raw, wrapperKey)
}

// UnwrapKey reverses WrapKey. A wrong wrapper key yields ErrAuthenticationFailed.
func UnwrapKey(wrapped []byte, wrapperKey Key) (Key, error) {
	raw, err := Open(wrapped, wrapperKey)
	if err != nil {
		return Key{}, err
	}
	defer Wipe(raw)
	return ImportRaw(raw)
}
