package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/pbkdf2"
)

// randReader is the random source for keys, salts and IVs.
// It defaults to crypto/rand.Reader and can be replaced in tests.
var randReader io.Reader = rand.Reader

// Key is a 256-bit AES-GCM key.
type Key [AESKeySize]byte

// GenerateKey returns a fresh random session or data key.
func GenerateKey() (Key, error) {
	var k Key
	if _, err := io.ReadFull(randReader, k[:]); err != nil {
		return Key{}, fmt.Errorf("generate key: %w", err)
	}
	return k, nil
}

// NewSalt returns SaltSize random bytes for a password derivation.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(randReader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a key from a password and salt with PBKDF2-HMAC-SHA-256.
// The same password and salt always yield the same key.
func DeriveKey(password string, salt []byte) (Key, error) {
	if len(salt) == 0 {
		return Key{}, ErrEmptySalt
	}

	pw := []byte(password)
	defer Wipe(pw)

	derived := pbkdf2.Key(pw, salt, PBKDF2Iterations, AESKeySize, sha256.New)
	defer Wipe(derived)

	var k Key
	copy(k[:], derived)
	return k, nil
}

// ExportRaw returns a copy of the raw key bytes.
// The caller owns the slice and should Wipe it when done.
func ExportRaw(k Key) []byte {
	raw := make([]byte, AESKeySize)
	copy(raw, k[:])
	return raw
}

// ImportRaw builds a key from raw bytes. The input is copied, not retained.
func ImportRaw(raw []byte) (Key, error) {
	if len(raw) != AESKeySize {
		return Key{}, fmt.Errorf("%w: %w: got %d, want %d", ErrInvalidKeyMaterial, ErrInvalidKeySize, len(raw), AESKeySize)
	}
	var k Key
	copy(k[:], raw)
	return k, nil
}

// ToTransport encodes a key for a single-access share fragment.
func ToTransport(k Key) string {
	raw := ExportRaw(k)
	defer Wipe(raw)
	return ToBase64(raw)
}

// FromTransport decodes a key produced by ToTransport.
func FromTransport(s string) (Key, error) {
	raw, err := DecodeBase64(s)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	defer Wipe(raw)
	return ImportRaw(raw)
}

// SaltFromTransport decodes a base64 salt from a vault fragment or metadata.
func SaltFromTransport(s string) ([]byte, error) {
	salt, err := DecodeBase64(s)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrInvalidKeyMaterial, err)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", ErrInvalidKeyMaterial)
	}
	return salt, nil
}

// SaltFromHex decodes the hex salt the backend issues for PIN shares.
func SaltFromHex(s string) ([]byte, error) {
	salt, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrInvalidKeyMaterial, err)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", ErrInvalidKeyMaterial)
	}
	return salt, nil
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	memguard.WipeBytes(b)
}
