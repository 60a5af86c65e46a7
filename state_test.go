package sdbx

import (
	"testing"

	"go.uber.org/zap"
)

func TestStateString(t *testing.T) {
	if got := StateDecrypting.String(); got != "decrypting" {
		t.Errorf("String() = %q, want decrypting", got)
	}
	if got := State(99).String(); got != "state(99)" {
		t.Errorf("String() = %q, want state(99)", got)
	}
	if got := FailureWrongPassword.String(); got != "wrong password" {
		t.Errorf("String() = %q, want wrong password", got)
	}
}

func TestFlowAllows(t *testing.T) {
	tests := []struct {
		name     string
		f        flow
		from, to State
		want     bool
	}{
		{"upload start", uploadFlow, StateIdle, StatePreparing, true},
		{"upload skip keying", uploadFlow, StatePreparing, StateEncrypting, false},
		{"upload backwards", uploadFlow, StateUploading, StateEncrypting, false},
		{"upload never unlocks", uploadFlow, StatePreparing, StateUnlocking, false},
		{"download keying", downloadFlow, StatePreparing, StateKeying, true},
		{"download unlocking", downloadFlow, StatePreparing, StateUnlocking, true},
		{"download fetch after unlock", downloadFlow, StateUnlocking, StateFetching, true},
		{"download never encrypts", downloadFlow, StateKeying, StateEncrypting, false},
		{"fail from idle", uploadFlow, StateIdle, StateFailed, true},
		{"fail mid-flight", downloadFlow, StateFetching, StateFailed, true},
		{"done is terminal", downloadFlow, StateDone, StateFailed, false},
		{"failed is terminal", uploadFlow, StateFailed, StateFailed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.allows(tt.from, tt.to); got != tt.want {
				t.Errorf("allows(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestOperationProgressIsMonotonic(t *testing.T) {
	var got []Progress
	op := newOperation("test", uploadFlow, func(p Progress) { got = append(got, p) }, zap.NewNop())

	op.enter(StatePreparing, 0, "")
	op.report(10, "")
	op.report(5, "")
	op.report(150, "")

	want := []int{0, 10, 10, 100}
	if len(got) != len(want) {
		t.Fatalf("got %d reports, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.Percent != want[i] {
			t.Errorf("report %d: percent = %d, want %d", i, p.Percent, want[i])
		}
	}
}

func TestOperationSpan(t *testing.T) {
	var last Progress
	op := newOperation("test", downloadFlow, func(p Progress) { last = p }, zap.NewNop())
	op.enter(StatePreparing, 0, "")

	report := op.span(30, 70, "Downloading...")
	report(50)
	if last.Percent != 50 {
		t.Errorf("span(30,70)(50) = %d, want 50", last.Percent)
	}
	report(100)
	if last.Percent != 70 {
		t.Errorf("span(30,70)(100) = %d, want 70", last.Percent)
	}
}

func TestOperationIllegalTransitionPanics(t *testing.T) {
	op := newOperation("test", uploadFlow, nil, zap.NewNop())
	defer func() {
		if recover() == nil {
			t.Error("expected panic on illegal transition")
		}
	}()
	op.enter(StateUploading, 0, "")
}

func TestOperationFail(t *testing.T) {
	var last Progress
	op := newOperation("test", downloadFlow, func(p Progress) { last = p }, zap.NewNop())
	op.enter(StatePreparing, 0, "")
	op.enter(StateKeying, 5, "")

	err := op.fail(ErrInvalidKeyMaterial)
	te, ok := err.(*TransferError)
	if !ok {
		t.Fatalf("fail() returned %T, want *TransferError", err)
	}
	if te.State != StateKeying {
		t.Errorf("State = %v, want keying", te.State)
	}
	if te.Kind != FailureInvalidKey {
		t.Errorf("Kind = %v, want invalid key", te.Kind)
	}
	if last.State != StateFailed || last.Percent != 5 {
		t.Errorf("last progress = %+v, want failed at 5%%", last)
	}
}

func TestBytesPercent(t *testing.T) {
	tests := []struct {
		done, total int64
		want        int
	}{
		{0, 100, 0},
		{50, 100, 50},
		{100, 100, 100},
		{150, 100, 100},
		{10, 0, 0},
		{10, -1, 0},
	}
	for _, tt := range tests {
		if got := bytesPercent(tt.done, tt.total); got != tt.want {
			t.Errorf("bytesPercent(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}
