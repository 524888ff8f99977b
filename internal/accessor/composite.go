package accessor

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/comalice/accessorkit/internal/director"
	"github.com/comalice/accessorkit/internal/port"
)

// childHeap orders queued children by ascending priority, the Go
// equivalent of the original's priority_queue-plus-set unique priority
// queue: a child is pushed here at most once between pops.
type childHeap []Node

func (h childHeap) Len() int            { return len(h) }
func (h childHeap) Less(i, j int) bool  { return h[i].Priority() < h[j].Priority() }
func (h childHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *childHeap) Push(x any)         { *h = append(*h, x.(Node)) }
func (h *childHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// CompositeOption configures a Composite at construction time.
type CompositeOption func(*Composite)

// WithInitialize sets the function Initialize runs, on the composite
// itself, before recursing into children.
func WithInitialize(fn func()) CompositeOption {
	return func(c *Composite) { c.initializeFn = fn }
}

// WithChildrenChangedFunc sets the hook ChildrenChanged invokes after a
// child is added. The teacher's original dispatches this virtually to a
// Host subclass; here it's a plain callback since Go embedding can't
// reproduce that override.
func WithChildrenChangedFunc(fn func()) CompositeOption {
	return func(c *Composite) { c.childrenChangedFn = fn }
}

// Composite is a branch accessor: it owns child accessors, connects their
// ports (to each other, and transparently through its own boundary ports),
// and dispatches reactions to whichever children have pending input.
type Composite struct {
	base

	children        map[string]Node
	orderedChildren []Node

	childQueue        childHeap
	queued            map[Node]bool
	reactionRequested bool

	childrenChangedFn func()
}

// NewComposite constructs a named composite accessor. name must satisfy
// NameIsValid.
func NewComposite(name string, opts ...CompositeOption) (*Composite, error) {
	if !NameIsValid(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	c := &Composite{
		base:     newBase(name, nil),
		children: make(map[string]Node),
		queued:   make(map[Node]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// IsComposite reports true: a Composite always contains (zero or more)
// children.
func (c *Composite) IsComposite() bool { return true }

// ResetPriority restores DefaultPriority on this composite and, recursively,
// every descendant - the state a fresh priority assignment pass starts from.
func (c *Composite) ResetPriority() {
	c.resetOwnPriority()
	c.ResetChildrenPriorities()
}

// ResetChildrenPriorities resets every child's priority without touching
// this composite's own.
func (c *Composite) ResetChildrenPriorities() {
	for _, child := range c.orderedChildren {
		child.ResetPriority()
	}
}

// Initialize marks this composite initialized and then initializes every
// child. Marking the composite itself initialized first - rather than only
// recursing into children - matters: a composite's own input ports relay
// through to child ports in ReceiveData, and that relay path is gated on
// the composite's own Initialized() being true.
func (c *Composite) Initialize() {
	c.doInitialize()
	for _, child := range c.orderedChildren {
		child.Initialize()
	}
}

func (c *Composite) react() { c.ProcessChildEventQueue() }

func (c *Composite) propagateDirector(d *director.Director) {
	c.propagateDirectorSelf(d)
	for _, child := range c.orderedChildren {
		child.propagateDirector(d)
	}
}

// SetDirector attaches this composite, and every descendant, to d. Director
// pointers are pushed down the tree eagerly at attach time rather than
// looked up by walking parents at call time, since a Host embedding
// Composite can't transparently intercept a grandchild's upward lookup the
// way the original's virtual GetDirector() does.
func (c *Composite) SetDirector(d *director.Director) { c.propagateDirector(d) }

// AlertNewInput implements port.Owner. It is effectively unreachable in
// normal operation: a composite's own input ports relay directly to
// whichever child port they're connected to (see port.InputPort.ReceiveData),
// so the composite itself never queues input or needs a reaction scheduled
// on its own behalf.
func (c *Composite) AlertNewInput() { c.alertNewInput(c) }

// HasChildWithName reports whether a child by that name has been added.
func (c *Composite) HasChildWithName(name string) bool {
	_, ok := c.children[name]
	return ok
}

// Child returns the named child accessor.
func (c *Composite) Child(name string) (Node, error) {
	child, ok := c.children[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrChildNotFound, name)
	}
	return child, nil
}

// GetChildren returns every child, in the order they were added.
func (c *Composite) GetChildren() []Node {
	out := make([]Node, len(c.orderedChildren))
	copy(out, c.orderedChildren)
	return out
}

// NewChildNameIsValid reports whether name is usable for a new child of c:
// a valid name, distinct from c's own name, and not already in use by
// another child.
func (c *Composite) NewChildNameIsValid(name string) bool {
	return NameIsValid(name) && name != c.name && !c.HasChildWithName(name)
}

// AddChild attaches child to this composite, propagating the composite's
// director (if it already has one) and invoking the children-changed hook.
func (c *Composite) AddChild(child Node) error {
	name := child.Name()
	if !c.NewChildNameIsValid(name) {
		return fmt.Errorf("%w: %q", ErrChildNameInvalid, name)
	}
	if err := child.setParent(c); err != nil {
		return err
	}
	c.children[name] = child
	c.orderedChildren = append(c.orderedChildren, child)
	if c.director != nil {
		child.propagateDirector(c.director)
	}
	c.ChildrenChanged()
	return nil
}

// ChildrenChanged runs the configured hook, if any, after AddChild attaches
// a new child. Hosts use this to re-run priority assignment.
func (c *Composite) ChildrenChanged() {
	if c.childrenChangedFn != nil {
		c.childrenChangedFn()
	}
}

// scheduleReaction implements parentHooks. It queues child onto this
// composite's own child-event queue and, if this composite has a parent,
// forwards the request up the tree (this composite becomes the "child" one
// level up) so every ancestor's queue reflects the pending reaction. Only
// the topmost composite - the one with no parent, normally a Host - ever
// actually schedules a director callback for the reaction, guarded by
// reactionRequested so a burst of inputs in one instant schedules exactly
// one ProcessChildEventQueue per round.
func (c *Composite) scheduleReaction(child Node, priority int) {
	if priority == DefaultPriority {
		priority = c.Priority()
	}

	if c.parent != nil {
		c.pushChild(child)
		c.parent.scheduleReaction(c, priority)
		return
	}

	if c.reactionRequested {
		c.pushChild(child)
		return
	}
	c.reactionRequested = true
	c.pushChild(child)
	if d := c.Director(); d != nil {
		d.ScheduleCallback(c.ProcessChildEventQueue, 0, false, priority)
	}
}

func (c *Composite) pushChild(child Node) {
	if c.queued[child] {
		return
	}
	c.queued[child] = true
	heap.Push(&c.childQueue, child)
}

// ProcessChildEventQueue pops every currently-queued child in ascending
// priority order and runs its reaction. A child queued again for itself or a
// descendant while this drains (e.g. one atomic's output feeds a sibling
// directly, in the same reaction) is processed in the same pass rather than
// deferred to the next scheduled instant.
func (c *Composite) ProcessChildEventQueue() {
	for c.childQueue.Len() > 0 {
		child := heap.Pop(&c.childQueue).(Node)
		delete(c.queued, child)
		child.react()
	}
	c.reactionRequested = false
}

// ConnectMyInputToChildInput relays data arriving on one of this
// composite's own input ports through to a named child's input port.
func (c *Composite) ConnectMyInputToChildInput(myInputName, childName, childInputName string) error {
	myInput, err := c.InputPort(myInputName)
	if err != nil {
		return err
	}
	child, err := c.Child(childName)
	if err != nil {
		return err
	}
	childInput, err := child.InputPort(childInputName)
	if err != nil {
		return err
	}
	return port.Connect(myInput, childInput)
}

// ConnectChildOutputToMyOutput relays a named child's output through to one
// of this composite's own output ports.
func (c *Composite) ConnectChildOutputToMyOutput(childName, childOutputName, myOutputName string) error {
	child, err := c.Child(childName)
	if err != nil {
		return err
	}
	childOutput, err := child.OutputPort(childOutputName)
	if err != nil {
		return err
	}
	myOutput, err := c.OutputPort(myOutputName)
	if err != nil {
		return err
	}
	return port.Connect(childOutput, myOutput)
}

// ConnectChildren wires a source child's output port directly to a
// destination child's input port.
func (c *Composite) ConnectChildren(srcChildName, srcOutputName, dstChildName, dstInputName string) error {
	src, err := c.Child(srcChildName)
	if err != nil {
		return err
	}
	srcOutput, err := src.OutputPort(srcOutputName)
	if err != nil {
		return err
	}
	dst, err := c.Child(dstChildName)
	if err != nil {
		return err
	}
	dstInput, err := dst.InputPort(dstInputName)
	if err != nil {
		return err
	}
	return port.Connect(srcOutput, dstInput)
}

// AddInputPort declares a new input port on this composite, transparent to
// whatever it's later connected through to on the child side.
func (c *Composite) AddInputPort(name string) error {
	if err := c.validatePortName(name); err != nil {
		return err
	}
	c.addInputPortUnchecked(c, name)
	return nil
}

// AddOutputPort declares a new output port on this composite.
func (c *Composite) AddOutputPort(name string) error {
	if err := c.validatePortName(name); err != nil {
		return err
	}
	c.addOutputPortUnchecked(c, name, false)
	return nil
}

// ScheduleCallback registers fn to run on the director after delay, at this
// composite's current priority, optionally repeating every delay
// thereafter. A Host embeds a Composite, so this is how a host schedules
// its own setup-time timers (e.g. periodically growing its own tree) the
// same way an atomic accessor drives its own clock.
func (c *Composite) ScheduleCallback(fn func(), delay time.Duration, periodic bool) (int, error) {
	return c.scheduleCallback(fn, delay.Milliseconds(), periodic)
}

// ClearScheduledCallback cancels a callback previously returned by
// ScheduleCallback.
func (c *Composite) ClearScheduledCallback(id int) {
	c.clearScheduledCallback(id)
}
