// Package worker runs envelope encryption and decryption off the caller's
// goroutine and reports progress as fixed milestones.
//
// Every Encrypt or Decrypt call spawns a dedicated worker goroutine that
// talks to the caller only through a message channel (progress, complete,
// error). The worker is torn down when the call returns, whether it
// completed, failed, or the context was cancelled; workers are never pooled
// or reused after a fault.
//
// The AES-GCM call itself is atomic, so progress is reported at pipeline
// stages rather than per byte:
//
//	encrypt: 5 key import, 10 IV, 20 cipher start, 80 cipher done, 95 reassembly, 100
//	decrypt: 5 key import, 10 IV split, 20 cipher start, 90 cipher done, 100
//
// Buffers are handed over, not copied. Encrypt reads the plaintext once and
// never retains it; Decrypt decrypts in place, so the envelope passed in is
// consumed and must not be used by the caller afterwards.
package worker
