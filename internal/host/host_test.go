package host

import (
	"context"
	"testing"
	"time"

	"github.com/comalice/accessorkit/internal/accessor"
)

func TestSetupTwiceFails(t *testing.T) {
	h, err := New("demo")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := h.Setup(); err != nil {
		t.Fatalf("first Setup: %v", err)
	}
	if err := h.Setup(); err == nil {
		t.Fatal("expected second Setup to fail")
	}
}

func TestHostRejectsOwnPorts(t *testing.T) {
	h, _ := New("demo")
	if err := h.AddInputPort("x"); err == nil {
		t.Fatal("expected AddInputPort to fail on a host")
	}
	if err := h.AddOutputPort("x"); err == nil {
		t.Fatal("expected AddOutputPort to fail on a host")
	}
}

func TestIterateRunsScheduledReaction(t *testing.T) {
	h, err := New("demo")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var fired bool
	source, err := accessor.NewAtomic("source", accessor.WithSpontaneousOutputPorts("out"),
		accessor.WithInitializeFunc(func() {}))
	if err != nil {
		t.Fatalf("NewAtomic: %v", err)
	}
	sink, err := accessor.NewAtomic("sink", accessor.WithInputPorts("in"))
	if err != nil {
		t.Fatalf("NewAtomic: %v", err)
	}
	sink.AddInputHandler("in", func(a *accessor.Atomic) { fired = true })

	if err := h.AddChild(source); err != nil {
		t.Fatalf("AddChild source: %v", err)
	}
	if err := h.AddChild(sink); err != nil {
		t.Fatalf("AddChild sink: %v", err)
	}
	if err := h.ConnectChildren("source", "out", "sink", "in"); err != nil {
		t.Fatalf("ConnectChildren: %v", err)
	}
	if err := h.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if err := source.SendOutput("out", 7); err != nil {
		t.Fatalf("SendOutput: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.Iterate(ctx, 2); err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if !fired {
		t.Fatal("sink's input handler never ran")
	}
	if h.State() != Paused {
		t.Fatalf("state = %v, want Paused", h.State())
	}
}

type recordingListener struct {
	errs        []error
	transitions [][2]State
}

func (l *recordingListener) NotifyOfException(err error) { l.errs = append(l.errs, err) }
func (l *recordingListener) NotifyOfStateChange(oldState, newState State) {
	l.transitions = append(l.transitions, [2]State{oldState, newState})
}

func TestIterateRecoversPanicAndEndsPaused(t *testing.T) {
	h, err := New("demo")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	source, err := accessor.NewAtomic("source", accessor.WithSpontaneousOutputPorts("out"),
		accessor.WithInitializeFunc(func() {}))
	if err != nil {
		t.Fatalf("NewAtomic: %v", err)
	}
	boom, err := accessor.NewAtomic("boom", accessor.WithInputPorts("in"))
	if err != nil {
		t.Fatalf("NewAtomic: %v", err)
	}
	boom.AddInputHandler("in", func(a *accessor.Atomic) { panic("kaboom") })

	if err := h.AddChild(source); err != nil {
		t.Fatalf("AddChild source: %v", err)
	}
	if err := h.AddChild(boom); err != nil {
		t.Fatalf("AddChild boom: %v", err)
	}
	if err := h.ConnectChildren("source", "out", "boom", "in"); err != nil {
		t.Fatalf("ConnectChildren: %v", err)
	}
	if err := h.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	listener := &recordingListener{}
	h.AddEventListener(listener)

	if err := source.SendOutput("out", 1); err != nil {
		t.Fatalf("SendOutput: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.Iterate(ctx, 2); err != nil {
		t.Fatalf("Iterate: %v", err)
	}

	if h.State() != Paused {
		t.Fatalf("state after recovered panic = %v, want Paused", h.State())
	}
	if len(listener.errs) != 1 {
		t.Fatalf("NotifyOfException called %d times, want 1", len(listener.errs))
	}

	sawCorrupted := false
	for _, tr := range listener.transitions {
		if tr[1] == Corrupted {
			sawCorrupted = true
		}
	}
	if !sawCorrupted {
		t.Fatal("expected a transition into Corrupted before landing on Paused")
	}

	if err := h.Iterate(ctx, 1); err != nil {
		t.Fatalf("Iterate after recovery should succeed, got: %v", err)
	}
}

func TestPauseFailsWhenNotRunning(t *testing.T) {
	h, _ := New("demo")
	if err := h.Pause(); err == nil {
		t.Fatal("expected Pause to fail before Running")
	}
}
