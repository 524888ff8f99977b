// Package accessorkit is a deterministic discrete-event runtime for
// networks of hierarchical "accessor" actors. Atomic accessors react to
// input with user-supplied Go functions; composite accessors contain and
// wire together other accessors, transparently relaying ports across their
// own boundary. A Host owns one such network plus the Director that drives
// it: a single, strictly-ordered callback queue shared by every accessor in
// the tree, so reactions that happen "at the same time" still execute in a
// well-defined, dependency-respecting order.
package accessorkit

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/accessorkit/internal/accessor"
	"github.com/comalice/accessorkit/internal/host"
	"github.com/comalice/accessorkit/internal/hypervisor"
)

// Re-exported types. Callers build networks entirely in terms of these;
// internal/* stays unexported so the dependency graph between the director,
// accessor, priority, and host packages can keep changing shape.
type (
	// Atomic is a leaf accessor: it reacts to input by running registered
	// handlers and may produce output.
	Atomic = accessor.Atomic
	// Composite is a branch accessor: it contains children and wires their
	// ports together, transparently relaying across its own ports.
	Composite = accessor.Composite
	// Node is implemented by both Atomic and Composite.
	Node = accessor.Node
	// InputHandler reacts to new input on the port it was registered
	// against.
	InputHandler = accessor.InputHandler
	// FireFunc runs once per reaction, after every triggered input handler.
	FireFunc = accessor.FireFunc
	// AtomicOption configures an Atomic at construction time.
	AtomicOption = accessor.AtomicOption
	// CompositeOption configures a Composite at construction time.
	CompositeOption = accessor.CompositeOption

	// Host contains and drives an accessor network.
	Host = host.Host
	// HostState is a host's lifecycle stage.
	HostState = host.State
	// HostOption configures a Host at construction time.
	HostOption = host.Option
	// HostEventListener is notified of a host's state transitions and of
	// any panic recovered from a reaction while Running.
	HostEventListener = host.EventListener

	// Hypervisor owns a fleet of hosts and runs operations across them
	// concurrently.
	Hypervisor = hypervisor.Hypervisor
)

// Host lifecycle states.
const (
	NeedsSetup  = host.NeedsSetup
	SettingUp   = host.SettingUp
	ReadyToRun  = host.ReadyToRun
	Running     = host.Running
	Paused      = host.Paused
	Exiting     = host.Exiting
	Finished    = host.Finished
	Corrupted   = host.Corrupted
)

// NewAtomic constructs a named atomic accessor.
func NewAtomic(name string, opts ...AtomicOption) (*Atomic, error) {
	return accessor.NewAtomic(name, opts...)
}

// NewComposite constructs a named composite accessor.
func NewComposite(name string, opts ...CompositeOption) (*Composite, error) {
	return accessor.NewComposite(name, opts...)
}

// NewHost constructs a named host with its own Director.
func NewHost(name string, opts ...HostOption) (*Host, error) {
	return host.New(name, opts...)
}

// NewHypervisor constructs an empty fleet of hosts.
func NewHypervisor() *Hypervisor {
	return hypervisor.New()
}

// WithHostLogger attaches a structured logger to a Host under construction.
func WithHostLogger(logger zerolog.Logger) HostOption {
	return host.WithLogger(logger)
}

// WithAdditionalSetup registers a function a Host's Setup runs before
// priority assignment and initialization - the place to build out the
// accessor tree itself.
func WithAdditionalSetup(fn func() error) HostOption {
	return host.WithAdditionalSetup(fn)
}

// WithMaxSleepChunk overrides how long a Host's Director sleeps between
// cancellation checks while waiting for the next scheduled callback.
func WithMaxSleepChunk(chunk time.Duration) HostOption {
	return host.WithMaxSleepChunk(chunk)
}

// WithOnInitialize registers a function a Host runs on itself during
// Setup's Initialize cascade, before any child is initialized - the place
// for a host to schedule its own timers, such as periodically growing its
// own tree.
func WithOnInitialize(fn func()) HostOption {
	return host.WithOnInitialize(fn)
}

// Input port, output port, and input-handler accessor options.
var (
	WithInputPorts             = accessor.WithInputPorts
	WithOutputPorts            = accessor.WithOutputPorts
	WithSpontaneousOutputPorts = accessor.WithSpontaneousOutputPorts
	WithInputHandlers          = accessor.WithInputHandlers
	WithFireFunc               = accessor.WithFireFunc
	WithInitializeFunc         = accessor.WithInitializeFunc
	WithChildrenChangedFunc    = accessor.WithChildrenChangedFunc
)
