package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sdbx/client-go/internal/crypto"
)

const (
	opEncrypt = "encrypt"
	opDecrypt = "decrypt"

	stageKey    = "key"
	stageIV     = "iv"
	stageCipher = "cipher"
)

// ProgressFunc receives progress in [0,100]. Values never decrease within a call.
type ProgressFunc func(percent int)

type msgKind int

const (
	msgProgress msgKind = iota
	msgComplete
	msgError
)

type message struct {
	kind     msgKind
	progress int
	data     []byte
	err      *Error
}

// job is the body of one worker. It reports milestones through emit, which
// returns false once the caller has gone away; the job should then stop early.
type job func(emit func(int) bool) ([]byte, *Error)

// ChunkCipher dispatches envelope operations to short-lived workers.
type ChunkCipher struct {
	logger *zap.Logger
	nextID atomic.Uint64
}

// New returns a ChunkCipher. A nil logger disables logging.
func New(logger *zap.Logger) *ChunkCipher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChunkCipher{logger: logger}
}

// Encrypt seals data under key in a fresh worker and returns the envelope.
// The caller hands data over and must not modify it until Encrypt returns.
func (c *ChunkCipher) Encrypt(ctx context.Context, data []byte, key crypto.Key, onProgress ProgressFunc) ([]byte, error) {
	return c.run(ctx, opEncrypt, onProgress, func(emit func(int) bool) ([]byte, *Error) {
		aead, err := crypto.ImportKey(key)
		if err != nil {
			return nil, newError(opEncrypt, stageKey, err)
		}
		if !emit(5) {
			return nil, nil
		}

		env, err := aead.NewEnvelope(len(data))
		if err != nil {
			return nil, newError(opEncrypt, stageIV, err)
		}
		if !emit(10) || !emit(20) {
			return nil, nil
		}

		env = aead.SealInto(env, data)
		if !emit(80) {
			return nil, nil
		}

		if len(env) != len(data)+crypto.EnvelopeOverhead {
			return nil, newError(opEncrypt, stageCipher, fmt.Errorf("unexpected envelope length %d", len(env)))
		}
		emit(95)
		return env, nil
	})
}

// Decrypt opens envelope under key in a fresh worker and returns the plaintext.
// The envelope is consumed: its storage is reused for the plaintext.
func (c *ChunkCipher) Decrypt(ctx context.Context, envelope []byte, key crypto.Key, onProgress ProgressFunc) ([]byte, error) {
	return c.run(ctx, opDecrypt, onProgress, func(emit func(int) bool) ([]byte, *Error) {
		aead, err := crypto.ImportKey(key)
		if err != nil {
			return nil, newError(opDecrypt, stageKey, err)
		}
		if !emit(5) {
			return nil, nil
		}

		if len(envelope) < crypto.EnvelopeOverhead {
			return nil, newError(opDecrypt, stageIV, fmt.Errorf("%w: %w", crypto.ErrAuthenticationFailed, crypto.ErrEnvelopeTooShort))
		}
		if !emit(10) || !emit(20) {
			return nil, nil
		}

		plaintext, err := aead.OpenInPlace(envelope)
		if err != nil {
			return nil, newError(opDecrypt, stageCipher, err)
		}
		emit(90)
		return plaintext, nil
	})
}

// run owns the lifecycle of one worker: spawn, relay messages, tear down.
func (c *ChunkCipher) run(ctx context.Context, op string, onProgress ProgressFunc, fn job) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := c.nextID.Add(1)
	log := c.logger.With(zap.Uint64("worker", id), zap.String("op", op))
	log.Debug("worker started")

	msgs := make(chan message)
	done := make(chan struct{})
	defer close(done)

	send := func(m message) bool {
		select {
		case msgs <- m:
			return true
		case <-done:
			return false
		}
	}

	go func() {
		defer close(msgs)
		defer func() {
			if r := recover(); r != nil {
				send(message{kind: msgError, err: &Error{
					Op:      op,
					Stage:   stageCipher,
					Code:    CodeInternal,
					Message: messages[CodeInternal],
				}})
			}
		}()

		emit := func(p int) bool { return send(message{kind: msgProgress, progress: p}) }
		data, werr := fn(emit)
		if werr != nil {
			send(message{kind: msgError, err: werr})
			return
		}
		send(message{kind: msgComplete, data: data})
	}()

	last := -1
	report := func(p int) {
		if p > 100 {
			p = 100
		}
		if p <= last {
			return
		}
		last = p
		if onProgress != nil {
			onProgress(p)
		}
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug("worker cancelled")
			return nil, ctx.Err()
		case m, ok := <-msgs:
			if !ok {
				return nil, &Error{Op: op, Stage: stageCipher, Code: CodeInternal, Message: messages[CodeInternal]}
			}
			switch m.kind {
			case msgProgress:
				report(m.progress)
				if err := ctx.Err(); err != nil {
					log.Debug("worker cancelled")
					return nil, err
				}
			case msgComplete:
				report(100)
				log.Debug("worker finished", zap.Int("bytes", len(m.data)))
				return m.data, nil
			case msgError:
				log.Debug("worker failed", zap.String("stage", m.err.Stage), zap.String("code", string(m.err.Code)))
				return nil, m.err
			}
		}
	}
}
