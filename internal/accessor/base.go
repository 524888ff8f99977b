// Package accessor implements the model's actors: AtomicAccessor leaves
// that react to input with user-supplied handlers, and Composite branches
// that contain and connect child accessors. Both share the bookkeeping in
// base: identity, priority, port tables, and the scheduling/initialization
// hooks the director and the containing composite rely on.
package accessor

import (
	"fmt"
	"math"

	"github.com/comalice/accessorkit/internal/director"
	"github.com/comalice/accessorkit/internal/event"
	"github.com/comalice/accessorkit/internal/port"
)

// DefaultPriority is assigned to every accessor before a host's priority
// assignment pass runs.
const DefaultPriority = math.MaxInt

// Node is implemented by both *Atomic and *Composite. It's the surface a
// containing Composite and the priority-assignment pass need.
type Node interface {
	port.Owner

	Name() string
	Priority() int
	SetPriority(priority int)
	ResetPriority()
	IsComposite() bool
	Initialize()
	Director() *director.Director

	HasInputPorts() bool
	HasOutputPorts() bool
	InputPorts() []*port.InputPort
	OutputPorts() []*port.OutputPort
	InputPort(name string) (*port.InputPort, error)
	OutputPort(name string) (*port.OutputPort, error)

	setParent(p parentHooks) error
	propagateDirector(d *director.Director)
	react()
}

// parentHooks is the subset of Composite a child needs from its parent:
// access to the shared director, and the ability to request a reaction.
type parentHooks interface {
	Director() *director.Director
	scheduleReaction(child Node, priority int)
}

type base struct {
	name        string
	parent      parentHooks
	priority    int
	initialized bool
	director    *director.Director

	initializeFn func()
	callbackIDs  map[int]struct{}

	inputPorts         map[string]*port.InputPort
	orderedInputPorts  []*port.InputPort
	outputPorts        map[string]*port.OutputPort
	orderedOutputPorts []*port.OutputPort
}

func newBase(name string, initializeFn func()) base {
	return base{
		name:         name,
		priority:     DefaultPriority,
		initializeFn: initializeFn,
		callbackIDs:  make(map[int]struct{}),
		inputPorts:   make(map[string]*port.InputPort),
		outputPorts:  make(map[string]*port.OutputPort),
	}
}

func (b *base) Name() string { return b.name }

func (b *base) FullName() string {
	if b.parent == nil {
		return b.name
	}
	if named, ok := b.parent.(interface{ FullName() string }); ok {
		return named.FullName() + "." + b.name
	}
	return b.name
}

func (b *base) Initialized() bool { return b.initialized }

func (b *base) Priority() int          { return b.priority }
func (b *base) SetPriority(p int)      { b.priority = p }
func (b *base) resetOwnPriority()      { b.priority = DefaultPriority }
func (b *base) Director() *director.Director { return b.director }

func (b *base) setParent(p parentHooks) error {
	if b.parent != nil {
		return fmt.Errorf("%w: %q", ErrAlreadyHasParent, b.name)
	}
	b.parent = p
	return nil
}

func (b *base) propagateDirectorSelf(d *director.Director) { b.director = d }

func (b *base) doInitialize() {
	if b.initializeFn != nil {
		b.initializeFn()
	}
	b.initialized = true
}

// AlertNewInput requests a reaction from this accessor's containing
// composite. It is only ever meaningfully invoked for atomic accessors:
// a composite's own input ports relay transparently and never reach this
// path (see port.InputPort.ReceiveData).
func (b *base) alertNewInput(self Node) {
	if b.parent != nil {
		b.parent.scheduleReaction(self, b.priority)
	}
}

func (b *base) HasInputPorts() bool  { return len(b.inputPorts) > 0 }
func (b *base) HasOutputPorts() bool { return len(b.outputPorts) > 0 }

func (b *base) InputPorts() []*port.InputPort {
	out := make([]*port.InputPort, len(b.orderedInputPorts))
	copy(out, b.orderedInputPorts)
	return out
}

func (b *base) OutputPorts() []*port.OutputPort {
	out := make([]*port.OutputPort, len(b.orderedOutputPorts))
	copy(out, b.orderedOutputPorts)
	return out
}

func (b *base) InputPort(name string) (*port.InputPort, error) {
	p, ok := b.inputPorts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q on %q", ErrPortNotFound, name, b.name)
	}
	return p, nil
}

func (b *base) OutputPort(name string) (*port.OutputPort, error) {
	p, ok := b.outputPorts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q on %q", ErrPortNotFound, name, b.name)
	}
	return p, nil
}

func (b *base) hasInputPortWithName(name string) bool {
	_, ok := b.inputPorts[name]
	return ok
}

func (b *base) hasOutputPortWithName(name string) bool {
	_, ok := b.outputPorts[name]
	return ok
}

// newPortNameIsValid mirrors NewPortNameIsValid: a port name must be a
// valid name and unused by either port table on this accessor.
func (b *base) newPortNameIsValid(name string) bool {
	return NameIsValid(name) && !b.hasInputPortWithName(name) && !b.hasOutputPortWithName(name)
}

func (b *base) validatePortName(name string) error {
	if !NameIsValid(name) {
		return fmt.Errorf("%w: port name %q", ErrInvalidName, name)
	}
	if !b.newPortNameIsValid(name) {
		return fmt.Errorf("%w: %q on %q", ErrPortExists, name, b.name)
	}
	return nil
}

func (b *base) addInputPortUnchecked(owner port.Owner, name string) {
	p := port.NewInputPort(name, owner)
	b.inputPorts[name] = p
	b.orderedInputPorts = append(b.orderedInputPorts, p)
}

func (b *base) addOutputPortUnchecked(owner port.Owner, name string, spontaneous bool) {
	p := port.NewOutputPort(name, owner, spontaneous)
	b.outputPorts[name] = p
	b.orderedOutputPorts = append(b.orderedOutputPorts, p)
}

func (b *base) getLatestInput(inputPortName string) (event.Event, bool, error) {
	p, err := b.InputPort(inputPortName)
	if err != nil {
		return event.Event{}, false, err
	}
	ev, ok := p.LatestInput()
	return ev, ok, nil
}

// scheduleCallback registers fn with the director at this accessor's
// current priority, tracking the resulting id so clearAllScheduledCallbacks
// can sweep them later.
func (b *base) scheduleCallback(fn func(), delayMS int64, periodic bool) (int, error) {
	d := b.Director()
	if d == nil {
		return 0, fmt.Errorf("accessor %q has no director (not attached to a host)", b.name)
	}
	id := d.ScheduleCallback(fn, msToDuration(delayMS), periodic, b.priority)
	b.callbackIDs[id] = struct{}{}
	return id, nil
}

func (b *base) clearScheduledCallback(id int) {
	if d := b.Director(); d != nil {
		d.ClearScheduledCallback(id)
	}
	delete(b.callbackIDs, id)
}

func (b *base) clearAllScheduledCallbacks() {
	d := b.Director()
	for id := range b.callbackIDs {
		if d != nil {
			d.ClearScheduledCallback(id)
		}
		delete(b.callbackIDs, id)
	}
}

func (b *base) sendOutput(outputPortName string, ev event.Event) error {
	if !b.initialized {
		return fmt.Errorf("%w: %q", ErrNotInitialized, b.name)
	}
	out, err := b.OutputPort(outputPortName)
	if err != nil {
		return err
	}
	_, err = b.scheduleCallback(func() { out.SendData(ev) }, 0, false)
	return err
}
