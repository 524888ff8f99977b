package accessorkit

import (
	"errors"
	"testing"

	"github.com/comalice/accessorkit/internal/priority"
)

// TestScenarioECausalityLoopRejectedAtSetup builds spec.md Scenario E: two
// atomics each with a state-dependent input-to-output path, wired output to
// input in both directions and back, with no pruning on either side. Setup
// must fail with a causality error naming one of the involved ports, and
// must do so before the host is left in any runnable state.
func TestScenarioECausalityLoopRejectedAtSetup(t *testing.T) {
	x, err := NewAtomic("X", WithInputPorts("in"), WithOutputPorts("out"))
	if err != nil {
		t.Fatalf("NewAtomic(X): %v", err)
	}
	y, err := NewAtomic("Y", WithInputPorts("in"), WithOutputPorts("out"))
	if err != nil {
		t.Fatalf("NewAtomic(Y): %v", err)
	}

	h, err := NewHost("loophost")
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	if err := h.AddChild(x); err != nil {
		t.Fatalf("AddChild(X): %v", err)
	}
	if err := h.AddChild(y); err != nil {
		t.Fatalf("AddChild(Y): %v", err)
	}
	if err := h.ConnectChildren("X", "out", "Y", "in"); err != nil {
		t.Fatalf("ConnectChildren(X->Y): %v", err)
	}
	if err := h.ConnectChildren("Y", "out", "X", "in"); err != nil {
		t.Fatalf("ConnectChildren(Y->X): %v", err)
	}

	err = h.Setup()
	if err == nil {
		t.Fatal("expected Setup to fail on a causality loop")
	}
	if !errors.Is(err, priority.ErrCausalityLoop) {
		t.Fatalf("Setup error = %v, want wrapping priority.ErrCausalityLoop", err)
	}
	if h.State() != NeedsSetup && h.State() != SettingUp {
		t.Fatalf("host state after failed Setup = %v, want NeedsSetup or SettingUp", h.State())
	}
}
