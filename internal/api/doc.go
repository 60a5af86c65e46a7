// Package api provides the HTTP client for the sdbx backend. It handles
// request/response serialization, maps status codes to sentinel errors, and
// moves ciphertext to and from presigned storage URLs with progress.
//
// # Client Creation
//
// Use [NewClient] with a [Config]. Only BaseURL is required; the backend
// has no API keys. Bot-verification tokens travel in request bodies.
//
// # No Retries
//
// The client never retries. A failed request surfaces as an [*APIError] or
// a [*NetworkError] and the caller decides what to do; single-access
// downloads in particular must not be replayed blindly, since the backend
// reserves the object on the first request.
//
// # Error Handling
//
// The package defines sentinel errors for the backend's lifecycle states:
//
//   - [ErrNotFound]: unknown object (404).
//   - [ErrGone]: expired or already consumed (410). Storage 403/404 on a
//     presigned download also map here.
//   - [ErrReserved]: another download of a single-access object is in flight (409).
//   - [ErrLocked]: too many wrong PIN attempts (423).
//   - [ErrWrongPIN]: the PIN did not match (400/401/403 with a PIN message).
//   - [ErrRateLimited]: rate limit exceeded (429).
//
// Use errors.Is to check for specific error types:
//
//	if errors.Is(err, api.ErrGone) {
//	    // Already downloaded or expired
//	}
//
// # Thread Safety
//
// The [Client] type is safe for concurrent use.
package api
