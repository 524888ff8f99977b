package port

import (
	"errors"
	"testing"

	"github.com/comalice/accessorkit/internal/event"
)

type fakeOwner struct {
	initialized bool
	composite   bool
	alerted     int
}

func (f *fakeOwner) FullName() string    { return "fake" }
func (f *fakeOwner) Initialized() bool   { return f.initialized }
func (f *fakeOwner) IsComposite() bool   { return f.composite }
func (f *fakeOwner) AlertNewInput()      { f.alerted++ }

func TestInputPortQueuesAndAlertsOnce(t *testing.T) {
	owner := &fakeOwner{initialized: true}
	in := NewInputPort("in", owner)

	in.ReceiveData(event.New(1))
	if owner.alerted != 1 {
		t.Fatalf("alerted = %d, want 1", owner.alerted)
	}
	if !in.IsWaitingForInputHandler() {
		t.Fatal("expected port to be waiting for handler")
	}

	in.ReceiveData(event.New(2))
	if owner.alerted != 1 {
		t.Fatalf("alerted = %d after second receive, want still 1", owner.alerted)
	}
	if in.QueueLength() != 2 {
		t.Fatalf("QueueLength = %d, want 2", in.QueueLength())
	}

	in.DequeueLatestInput()
	if !in.IsWaitingForInputHandler() {
		t.Fatal("expected port to still be waiting with one item left")
	}
	in.DequeueLatestInput()
	if in.IsWaitingForInputHandler() {
		t.Fatal("expected port to stop waiting once drained")
	}
}

func TestInputPortDropsWhenOwnerUninitialized(t *testing.T) {
	owner := &fakeOwner{initialized: false}
	in := NewInputPort("in", owner)
	in.ReceiveData(event.New(1))
	if in.QueueLength() != 0 {
		t.Fatalf("QueueLength = %d, want 0 (dropped)", in.QueueLength())
	}
}

func TestInputPortRelaysWhenCompositeOwner(t *testing.T) {
	owner := &fakeOwner{initialized: true, composite: true}
	in := NewInputPort("in", owner)
	downstream := NewInputPort("downstream", &fakeOwner{initialized: true})
	if err := Connect(in, downstream); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	in.ReceiveData(event.New(7))
	if in.QueueLength() != 0 {
		t.Fatal("composite input port must not queue")
	}
	got, ok := downstream.LatestInput()
	if !ok || got.Payload != 7 {
		t.Fatalf("downstream did not receive relayed event: %v, %v", got, ok)
	}
}

func TestConnectRejectsDoubleSource(t *testing.T) {
	source1 := NewOutputPort("o1", &fakeOwner{initialized: true}, false)
	source2 := NewOutputPort("o2", &fakeOwner{initialized: true}, false)
	dest := NewInputPort("dest", &fakeOwner{initialized: true})

	if err := Connect(source1, dest); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	err := Connect(source2, dest)
	if !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("err = %v, want ErrAlreadyConnected", err)
	}
}

func TestConnectRejectsSpontaneousDestination(t *testing.T) {
	source := NewOutputPort("o", &fakeOwner{initialized: true}, false)
	dest := NewOutputPort("spontaneous", &fakeOwner{initialized: true}, true)

	err := Connect(source, dest)
	if !errors.Is(err, ErrSpontaneousDestination) {
		t.Fatalf("err = %v, want ErrSpontaneousDestination", err)
	}
}

func TestDisconnectAll(t *testing.T) {
	source := NewOutputPort("o", &fakeOwner{initialized: true}, false)
	dest := NewInputPort("dest", &fakeOwner{initialized: true})
	if err := Connect(source, dest); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	DisconnectAll(dest)
	if dest.IsConnectedToSource() {
		t.Fatal("expected dest to be disconnected")
	}
	if len(source.Destinations()) != 0 {
		t.Fatal("expected source to have no destinations left")
	}
}
