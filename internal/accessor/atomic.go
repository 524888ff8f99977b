package accessor

import (
	"fmt"
	"time"

	"github.com/comalice/accessorkit/internal/director"
	"github.com/comalice/accessorkit/internal/event"
)

// InputHandler reacts to new input having arrived on the port it was
// registered against. It reads the port's latest value with GetLatestInput
// and may call SendOutput on any of a's output ports.
type InputHandler func(a *Atomic)

// FireFunc runs once per reaction, after every input handler triggered by
// this round's inputs has run. It is the place to compute state that
// depends on more than one input port having just fired together.
type FireFunc func(a *Atomic)

// Atomic is a leaf accessor: it reacts to input by running user-registered
// handlers and may produce output, spontaneously or in response to input.
type Atomic struct {
	base

	inputHandlers map[string][]InputHandler
	fireFn        FireFunc

	// forwardPrunedDependencies[inputPortName] is the set of output port
	// names whose value may depend on that input. backwardPrunedDependencies
	// is its inverse. Both default to the full cross product of
	// non-spontaneous output ports over input ports, and are narrowed with
	// RemoveDependency as an accessor author declares independence.
	forwardPrunedDependencies  map[string]map[string]struct{}
	backwardPrunedDependencies map[string]map[string]struct{}
}

// AtomicOption configures an Atomic at construction time.
type AtomicOption func(*Atomic)

// WithInputPorts adds one input port per name.
func WithInputPorts(names ...string) AtomicOption {
	return func(a *Atomic) {
		for _, n := range names {
			_ = a.AddInputPort(n)
		}
	}
}

// WithOutputPorts adds one ordinary (non-spontaneous) output port per name.
func WithOutputPorts(names ...string) AtomicOption {
	return func(a *Atomic) {
		for _, n := range names {
			_ = a.AddOutputPort(n)
		}
	}
}

// WithSpontaneousOutputPorts adds one spontaneous output port per name -
// ports that may produce output with no triggering input, and so are never
// entered into the dependency maps used for priority assignment.
func WithSpontaneousOutputPorts(names ...string) AtomicOption {
	return func(a *Atomic) {
		for _, n := range names {
			_ = a.AddSpontaneousOutputPort(n)
		}
	}
}

// WithInputHandlers registers h against every named input port.
func WithInputHandlers(h InputHandler, portNames ...string) AtomicOption {
	return func(a *Atomic) {
		for _, n := range portNames {
			a.AddInputHandler(n, h)
		}
	}
}

// WithFireFunc sets the function run once per reaction after input handlers.
func WithFireFunc(fn FireFunc) AtomicOption {
	return func(a *Atomic) { a.fireFn = fn }
}

// WithInitializeFunc sets the function Initialize runs before the accessor
// is marked initialized.
func WithInitializeFunc(fn func()) AtomicOption {
	return func(a *Atomic) { a.initializeFn = fn }
}

// NewAtomic constructs a named atomic accessor. name must satisfy NameIsValid.
func NewAtomic(name string, opts ...AtomicOption) (*Atomic, error) {
	if !NameIsValid(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	a := &Atomic{
		base:                       newBase(name, nil),
		inputHandlers:              make(map[string][]InputHandler),
		forwardPrunedDependencies:  make(map[string]map[string]struct{}),
		backwardPrunedDependencies: make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// IsComposite reports false: an Atomic never contains children.
func (a *Atomic) IsComposite() bool { return false }

// ResetPriority restores DefaultPriority, ready for a fresh priority
// assignment pass.
func (a *Atomic) ResetPriority() { a.resetOwnPriority() }

// Initialize runs the configured initialize function, if any, and marks the
// accessor ready to send output.
func (a *Atomic) Initialize() { a.doInitialize() }

func (a *Atomic) propagateDirector(d *director.Director) { a.propagateDirectorSelf(d) }

// SetDirector attaches this atomic directly to a director - used when an
// Atomic is the host's sole top-level accessor rather than nested in a
// Composite.
func (a *Atomic) SetDirector(d *director.Director) { a.propagateDirector(d) }

// AlertNewInput implements port.Owner: a new value arrived on one of this
// accessor's input ports, so it requests a reaction from its parent.
func (a *Atomic) AlertNewInput() { a.alertNewInput(a) }

// AddInputPort declares a new input port and marks every existing
// non-spontaneous output port dependent on it - the mirror of what
// AddOutputPort does for a new output against the existing inputs. This
// matters for an accessor grown dynamically after construction (e.g. a
// "dynamic adder" gaining a new input port per Fire): without it, the new
// port would never appear in the causality graph the priority-assignment
// pass walks.
func (a *Atomic) AddInputPort(name string) error {
	if err := a.validatePortName(name); err != nil {
		return err
	}
	a.addInputPortUnchecked(a, name)
	for outputName, out := range a.outputPorts {
		if !out.IsSpontaneous() {
			a.addDependencyUnchecked(name, outputName)
		}
	}
	return nil
}

// AddOutputPort declares a new ordinary output port and marks it dependent
// on every existing input port.
func (a *Atomic) AddOutputPort(name string) error {
	if err := a.validatePortName(name); err != nil {
		return err
	}
	a.addOutputPortUnchecked(a, name, false)
	for inputName := range a.inputPorts {
		a.addDependencyUnchecked(inputName, name)
	}
	return nil
}

// AddSpontaneousOutputPort declares an output port that may fire with no
// triggering input. Spontaneous ports never appear in the dependency maps.
func (a *Atomic) AddSpontaneousOutputPort(name string) error {
	if err := a.validatePortName(name); err != nil {
		return err
	}
	a.addOutputPortUnchecked(a, name, true)
	return nil
}

func (a *Atomic) addDependencyUnchecked(inputName, outputName string) {
	if a.forwardPrunedDependencies[inputName] == nil {
		a.forwardPrunedDependencies[inputName] = make(map[string]struct{})
	}
	a.forwardPrunedDependencies[inputName][outputName] = struct{}{}
	if a.backwardPrunedDependencies[outputName] == nil {
		a.backwardPrunedDependencies[outputName] = make(map[string]struct{})
	}
	a.backwardPrunedDependencies[outputName][inputName] = struct{}{}
}

// RemoveDependency declares that outputPortName's value never depends on
// inputPortName, pruning the corresponding edge from both dependency maps.
// Used to break false causality loops a host's priority assignment would
// otherwise reject.
func (a *Atomic) RemoveDependency(inputPortName, outputPortName string) error {
	if !a.hasInputPortWithName(inputPortName) {
		return fmt.Errorf("%w: %q", ErrInputPortNotFound, inputPortName)
	}
	if !a.hasOutputPortWithName(outputPortName) {
		return fmt.Errorf("%w: %q", ErrPortNotFound, outputPortName)
	}
	delete(a.forwardPrunedDependencies[inputPortName], outputPortName)
	delete(a.backwardPrunedDependencies[outputPortName], inputPortName)
	return nil
}

// DependentOutputPorts returns the names of output ports whose value may
// depend on inputPortName, per the current (possibly pruned) dependency map.
func (a *Atomic) DependentOutputPorts(inputPortName string) []string {
	set := a.forwardPrunedDependencies[inputPortName]
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	return out
}

// InputPortDependencies returns the names of input ports on which
// outputPortName's value may depend.
func (a *Atomic) InputPortDependencies(outputPortName string) []string {
	set := a.backwardPrunedDependencies[outputPortName]
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	return out
}

// EquivalentPorts returns the set of input port names (including
// inputPortName itself) that a priority-assignment pass must treat as a
// single unit: ports that reach, through this accessor's dependency graph,
// a shared output port. If this accessor hasn't pruned any dependencies, or
// has only one input port, or has no output ports, every input port is
// trivially equivalent and is returned.
func (a *Atomic) EquivalentPorts(inputPortName string) []string {
	if len(a.forwardPrunedDependencies) == 0 || len(a.inputPorts) == 1 || len(a.outputPorts) == 0 {
		out := make([]string, 0, len(a.orderedInputPorts))
		for _, p := range a.orderedInputPorts {
			out = append(out, p.Name())
		}
		return out
	}

	equivalentPorts := make(map[string]struct{})
	dependentPorts := make(map[string]struct{})
	a.findEquivalentPorts(inputPortName, equivalentPorts, dependentPorts)

	out := make([]string, 0, len(equivalentPorts))
	for name := range equivalentPorts {
		out = append(out, name)
	}
	return out
}

func (a *Atomic) findEquivalentPorts(inputPortName string, equivalentPorts, dependentPorts map[string]struct{}) {
	if _, seen := equivalentPorts[inputPortName]; seen {
		return
	}
	equivalentPorts[inputPortName] = struct{}{}
	for _, outputName := range a.DependentOutputPorts(inputPortName) {
		if _, seen := dependentPorts[outputName]; seen {
			continue
		}
		dependentPorts[outputName] = struct{}{}
		for _, depName := range a.InputPortDependencies(outputName) {
			a.findEquivalentPorts(depName, equivalentPorts, dependentPorts)
		}
	}
}

// AddInputHandler registers h to run whenever inputPortName receives a
// value, in the order handlers were added.
func (a *Atomic) AddInputHandler(inputPortName string, h InputHandler) {
	a.inputHandlers[inputPortName] = append(a.inputHandlers[inputPortName], h)
}

// GetLatestInput returns the value at the head of inputPortName's queue -
// the oldest value not yet dequeued - if one is queued.
func (a *Atomic) GetLatestInput(inputPortName string) (any, bool, error) {
	ev, ok, err := a.getLatestInput(inputPortName)
	if err != nil {
		return nil, false, err
	}
	return ev.Payload, ok, nil
}

// SendOutput schedules payload to be sent out outputPortName. The send runs
// as its own director callback at the accessor's current priority, so it
// participates in the strict total order like every other reaction.
func (a *Atomic) SendOutput(outputPortName string, payload any) error {
	return a.sendOutput(outputPortName, eventFor(payload))
}

// ScheduleCallback registers fn to run on the director after delay, at this
// accessor's current priority, optionally repeating every delay thereafter.
// This is how a spontaneous accessor (a clock, a periodic counter) drives
// its own timer instead of waiting on an input.
func (a *Atomic) ScheduleCallback(fn func(), delay time.Duration, periodic bool) (int, error) {
	return a.scheduleCallback(fn, delay.Milliseconds(), periodic)
}

// ClearScheduledCallback cancels a callback previously returned by
// ScheduleCallback.
func (a *Atomic) ClearScheduledCallback(id int) {
	a.clearScheduledCallback(id)
}

func (a *Atomic) react() { a.ProcessInputs() }

// ProcessInputs visits each input port in declaration order and, for a port
// with a queued value, runs its registered input handlers and then dequeues
// that port's head event. After every port has been visited, it runs the
// fire function, if one is set and at least one port had a queued value.
// This is what a host calls once per scheduled reaction.
//
// A port that still has further events queued after the dequeue (more than
// one arrived within the same logical instant) re-requests a reaction on
// this accessor at its own priority, and re-relays its new head to any of
// the port's own destinations - otherwise a burst of same-instant inputs
// would strand everything past the first event in the queue forever, since
// AlertNewInput only fires on the empty-to-nonempty transition.
func (a *Atomic) ProcessInputs() {
	fired := false
	for _, p := range a.orderedInputPorts {
		if p.QueueLength() == 0 {
			continue
		}
		a.invokeInputHandlers(p.Name())
		p.DequeueLatestInput()
		fired = true
		if p.IsWaitingForInputHandler() {
			if a.parent != nil {
				a.parent.scheduleReaction(a, a.Priority())
			}
			if ev, ok := p.LatestInput(); ok {
				p.SendData(ev)
			}
		}
	}
	if fired && a.fireFn != nil {
		a.fireFn(a)
	}
}

// invokeInputHandlers runs every handler registered for portName. A handler
// that panics is removed from the registration before the panic is
// propagated, so a single bad handler cannot wedge every future reaction on
// that port.
func (a *Atomic) invokeInputHandlers(portName string) {
	handlers := a.inputHandlers[portName]
	for i, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.inputHandlers[portName] = append(
						append([]InputHandler{}, handlers[:i]...), handlers[i+1:]...)
					panic(r)
				}
			}()
			h(a)
		}()
	}
}

func eventFor(payload any) event.Event {
	return event.New(payload)
}
