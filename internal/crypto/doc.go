// Package crypto provides the key handling and envelope format of the sdbx
// transfer protocol. It composes the platform primitives (AES-256-GCM,
// PBKDF2-HMAC-SHA256, crypto/rand) and implements none of them itself.
//
// # Envelope Format
//
// Every encrypted payload, including a wrapped key, has the layout
//
//	bytes[0:12]  IV
//	bytes[12:]   AES-GCM ciphertext followed by the 16-byte tag
//
// No associated data is authenticated. [Open] fails closed with
// [ErrAuthenticationFailed] when the envelope is truncated, tampered with, or
// sealed under a different key. Callers must not try to tell these cases
// apart; the vault flow relies on exactly that signal to report a wrong
// password.
//
// # Nonces
//
// [Seal] draws a fresh 12-byte IV from the random source on every call.
// There is no counter and no caller-supplied IV. Reusing an IV under the same
// key breaks both confidentiality and integrity of AES-GCM.
//
// # Keys
//
// A [Key] is a 256-bit value. Session keys come from [GenerateKey] and travel
// in share links via [ToTransport]. Password keys come from [DeriveKey] with
// a per-use random salt and [PBKDF2Iterations] rounds of HMAC-SHA-256; the
// derivation is deterministic so a recipient can re-derive the same key from
// the password and the public salt.
//
// Exported raw key bytes and password bytes are wiped with [Wipe] once the
// operation that needed them is finished. Keys must never be logged or sent
// to the backend unwrapped.
//
// # Base64 Encoding
//
// Transport strings use standard base64 with padding (RFC 4648 §4), which is
// what browsers produce with btoa. Decoding is lenient and also accepts the
// unpadded and URL-safe alphabets, since links get re-encoded by chat clients.
package crypto
