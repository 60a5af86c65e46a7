package crypto

const (
	// AESKeySize is the size of an AES-256 key in bytes.
	AESKeySize = 32
	// IVSize is the size of an AES-GCM nonce in bytes.
	IVSize = 12
	// TagSize is the size of an AES-GCM authentication tag in bytes.
	TagSize = 16
	// SaltSize is the size of a password-derivation salt in bytes.
	SaltSize = 16

	// PBKDF2Iterations is the iteration count for password derivation.
	// Changing it invalidates every vault link and PIN code already issued.
	PBKDF2Iterations = 100000

	// EnvelopeOverhead is the number of bytes Seal adds to a plaintext.
	EnvelopeOverhead = IVSize + TagSize
)
