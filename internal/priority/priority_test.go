package priority

import (
	"testing"

	"github.com/comalice/accessorkit/internal/accessor"
	"github.com/comalice/accessorkit/internal/port"
)

func build(t *testing.T) (*accessor.Composite, *accessor.Atomic, *accessor.Atomic) {
	t.Helper()
	top, err := accessor.NewComposite("top")
	if err != nil {
		t.Fatalf("NewComposite: %v", err)
	}
	source, err := accessor.NewAtomic("source", accessor.WithSpontaneousOutputPorts("out"))
	if err != nil {
		t.Fatalf("NewAtomic source: %v", err)
	}
	sink, err := accessor.NewAtomic("sink", accessor.WithInputPorts("in"))
	if err != nil {
		t.Fatalf("NewAtomic sink: %v", err)
	}
	if err := top.AddChild(source); err != nil {
		t.Fatalf("AddChild source: %v", err)
	}
	if err := top.AddChild(sink); err != nil {
		t.Fatalf("AddChild sink: %v", err)
	}
	if err := top.ConnectChildren("source", "out", "sink", "in"); err != nil {
		t.Fatalf("ConnectChildren: %v", err)
	}
	return top, source, sink
}

func TestAssignGivesDownstreamAccessorLargerPriorityNumber(t *testing.T) {
	top, source, sink := build(t)

	if err := Assign(top, nil, 1, false); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if sink.Priority() <= source.Priority() {
		t.Fatalf("sink priority %d should exceed source priority %d", sink.Priority(), source.Priority())
	}
}

func TestAssignDetectsCausalityLoop(t *testing.T) {
	top, err := accessor.NewComposite("top")
	if err != nil {
		t.Fatalf("NewComposite: %v", err)
	}
	a, _ := accessor.NewAtomic("a", accessor.WithInputPorts("in"), accessor.WithOutputPorts("out"))
	b, _ := accessor.NewAtomic("b", accessor.WithInputPorts("in"), accessor.WithOutputPorts("out"))
	_ = top.AddChild(a)
	_ = top.AddChild(b)
	if err := top.ConnectChildren("a", "out", "b", "in"); err != nil {
		t.Fatalf("connect a->b: %v", err)
	}
	if err := top.ConnectChildren("b", "out", "a", "in"); err != nil {
		t.Fatalf("connect b->a: %v", err)
	}

	if err := Assign(top, nil, 1, false); err == nil {
		t.Fatal("expected a causality loop error")
	}
}

func TestResolveSourceOutputWalksThroughCompositeRelay(t *testing.T) {
	outer, err := accessor.NewComposite("outer")
	if err != nil {
		t.Fatalf("NewComposite: %v", err)
	}
	inner, err := accessor.NewComposite("inner")
	if err != nil {
		t.Fatalf("NewComposite: %v", err)
	}
	source, err := accessor.NewAtomic("source", accessor.WithSpontaneousOutputPorts("out"))
	if err != nil {
		t.Fatalf("NewAtomic: %v", err)
	}
	if err := inner.AddChild(source); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if err := inner.AddOutputPort("relay"); err != nil {
		t.Fatalf("AddOutputPort: %v", err)
	}
	if err := inner.ConnectChildOutputToMyOutput("source", "out", "relay"); err != nil {
		t.Fatalf("ConnectChildOutputToMyOutput: %v", err)
	}
	if err := outer.AddChild(inner); err != nil {
		t.Fatalf("AddChild inner: %v", err)
	}

	sink, err := accessor.NewAtomic("sink", accessor.WithInputPorts("in"))
	if err != nil {
		t.Fatalf("NewAtomic sink: %v", err)
	}
	if err := outer.AddChild(sink); err != nil {
		t.Fatalf("AddChild sink: %v", err)
	}

	innerOut, err := inner.OutputPort("relay")
	if err != nil {
		t.Fatalf("OutputPort: %v", err)
	}
	sinkIn, err := sink.InputPort("in")
	if err != nil {
		t.Fatalf("InputPort: %v", err)
	}
	if err := port.Connect(innerOut, sinkIn); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	resolved := resolveSourceOutput(sinkIn)
	if resolved == nil {
		t.Fatal("resolveSourceOutput returned nil, want the atomic source output port")
	}
	if resolved.FullName() != source.FullName()+".out" {
		t.Fatalf("resolveSourceOutput = %q, want %q", resolved.FullName(), source.FullName()+".out")
	}
}
