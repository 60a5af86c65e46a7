package sdbx

import (
	"fmt"

	"go.uber.org/zap"
)

// State is a stage of one upload or download.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StateKeying
	StateEncrypting
	StateUploading
	StateFinalizing
	StateUnlocking
	StateFetching
	StateDecrypting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StatePreparing:  "preparing",
	StateKeying:     "keying",
	StateEncrypting: "encrypting",
	StateUploading:  "uploading",
	StateFinalizing: "finalizing",
	StateUnlocking:  "unlocking",
	StateFetching:   "fetching",
	StateDecrypting: "decrypting",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// FailureKind classifies why an operation ended in StateFailed.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureValidation
	FailureInvalidKey
	FailureWrongPassword
	FailureCorrupted
	FailureNetwork
	FailureGone
	FailureNotFound
	FailureReserved
	FailureLocked
	FailureRateLimited
	FailureServer
	FailureCanceled
	FailureInternal
)

var failureNames = [...]string{
	FailureNone:          "none",
	FailureValidation:    "validation",
	FailureInvalidKey:    "invalid key",
	FailureWrongPassword: "wrong password",
	FailureCorrupted:     "corrupted",
	FailureNetwork:       "network",
	FailureGone:          "gone",
	FailureNotFound:      "not found",
	FailureReserved:      "reserved",
	FailureLocked:        "locked",
	FailureRateLimited:   "rate limited",
	FailureServer:        "server",
	FailureCanceled:      "canceled",
	FailureInternal:      "internal",
}

func (k FailureKind) String() string {
	if k < 0 || int(k) >= len(failureNames) {
		return fmt.Sprintf("failure(%d)", int(k))
	}
	return failureNames[k]
}

// flow is the set of legal transitions for one kind of operation.
// StateFailed is reachable from every state except StateDone.
type flow map[State][]State

var (
	uploadFlow = flow{
		StateIdle:       {StatePreparing},
		StatePreparing:  {StateKeying},
		StateKeying:     {StateEncrypting},
		StateEncrypting: {StateUploading},
		StateUploading:  {StateFinalizing},
		StateFinalizing: {StateDone},
	}

	// downloadFlow: vault and PIN downloads unlock a password-derived key;
	// link downloads import the key straight from the fragment.
	downloadFlow = flow{
		StateIdle:       {StatePreparing},
		StatePreparing:  {StateKeying, StateUnlocking},
		StateKeying:     {StateFetching},
		StateUnlocking:  {StateFetching},
		StateFetching:   {StateDecrypting},
		StateDecrypting: {StateDone},
	}
)

func (f flow) allows(from, to State) bool {
	if to == StateFailed {
		return from != StateDone && from != StateFailed
	}
	for _, s := range f[from] {
		if s == to {
			return true
		}
	}
	return false
}

// operation drives one transfer through its flow and owns its progress.
// It is not safe for concurrent use; each operation runs on one goroutine.
type operation struct {
	name    string
	flow    flow
	state   State
	percent int
	onProg  ProgressFunc
	logger  *zap.Logger
}

func newOperation(name string, f flow, onProgress ProgressFunc, logger *zap.Logger) *operation {
	return &operation{
		name:    name,
		flow:    f,
		state:   StateIdle,
		percent: 0,
		onProg:  onProgress,
		logger:  logger.With(zap.String("op", name)),
	}
}

// enter moves to the next state and reports percent for it.
func (o *operation) enter(s State, percent int, message string) {
	if !o.flow.allows(o.state, s) {
		// A flow bug, not a runtime condition.
		panic(fmt.Sprintf("sdbx: %s: illegal transition %s -> %s", o.name, o.state, s))
	}
	o.logger.Debug("state", zap.Stringer("from", o.state), zap.Stringer("to", s))
	o.state = s
	o.report(percent, message)
}

// report emits progress within the current state. Percent never decreases.
func (o *operation) report(percent int, message string) {
	percent = max(0, min(percent, 100))
	if percent < o.percent {
		percent = o.percent
	}
	o.percent = percent
	if o.onProg != nil {
		o.onProg(Progress{State: o.state, Percent: percent, Message: message})
	}
}

// span maps a sub-task's own 0-100 progress onto [lo, hi] of the operation.
func (o *operation) span(lo, hi int, message string) func(int) {
	return func(p int) {
		o.report(lo+(hi-lo)*max(0, min(p, 100))/100, message)
	}
}

// fail moves to StateFailed and returns the classified error.
func (o *operation) fail(err error) error {
	wrapped := wrapError(o.name, err)
	kind := classify(wrapped)
	from := o.state
	o.logger.Debug("state",
		zap.Stringer("from", from),
		zap.Stringer("to", StateFailed),
		zap.Stringer("kind", kind),
	)
	o.state = StateFailed
	if o.onProg != nil {
		o.onProg(Progress{State: StateFailed, Percent: o.percent, Message: kind.String()})
	}
	return &TransferError{State: from, Kind: kind, Err: wrapped}
}

// done finishes the operation at 100%.
func (o *operation) done(message string) {
	o.enter(StateDone, 100, message)
}
