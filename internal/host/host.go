// Package host implements the top of an accessor network: a composite
// accessor with no ports of its own, a dedicated Director, and a lifecycle
// (NeedsSetup -> SettingUp -> ReadyToRun -> Running <-> Paused -> Exiting ->
// Finished, with Corrupted reachable from Running on an unrecovered panic)
// that external code drives through Setup/Iterate/Run/Pause/Exit.
package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/accessorkit/internal/accessor"
	"github.com/comalice/accessorkit/internal/director"
	"github.com/comalice/accessorkit/internal/priority"
)

const (
	updateModelPriority = 0
	hostPriority        = updateModelPriority + 1
)

// EventListener is notified of a host's state transitions and of any panic
// recovered from a reaction while Running.
type EventListener interface {
	NotifyOfException(err error)
	NotifyOfStateChange(oldState, newState State)
}

// Host contains and drives an accessor network.
type Host struct {
	*accessor.Composite

	mu    sync.Mutex
	state State

	director        *director.Director
	logger          zerolog.Logger
	maxSleepChunk   time.Duration
	additionalSetup func() error
	onInitialize    func()
	cancel          context.CancelFunc

	nextListenerID int
	listeners      map[int]EventListener
}

// Option configures a Host at construction time.
type Option func(*Host)

// WithLogger attaches a structured logger used for reaction and lifecycle
// tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Host) { h.logger = logger }
}

// WithAdditionalSetup registers a function Setup runs, after the base
// accessor tree exists but before priority assignment and initialization -
// the place to build out the model itself.
func WithAdditionalSetup(fn func() error) Option {
	return func(h *Host) { h.additionalSetup = fn }
}

// WithMaxSleepChunk overrides how long the host's Director sleeps between
// cancellation checks while waiting for the next scheduled callback.
func WithMaxSleepChunk(chunk time.Duration) Option {
	return func(h *Host) { h.maxSleepChunk = chunk }
}

// WithOnInitialize registers a function the host runs on itself during
// Setup's Initialize cascade, before any child is initialized - the place
// for a host to schedule its own timers (e.g. periodically growing its own
// tree), mirroring the original's overridable Host::Initialize.
func WithOnInitialize(fn func()) Option {
	return func(h *Host) { h.onInitialize = fn }
}

// New constructs a Host named name, with its own Director.
func New(name string, opts ...Option) (*Host, error) {
	h := &Host{
		state:     NeedsSetup,
		logger:    zerolog.Nop(),
		listeners: make(map[int]EventListener),
	}

	composite, err := accessor.NewComposite(name,
		accessor.WithChildrenChangedFunc(h.childrenChanged),
		accessor.WithInitialize(func() {
			if h.onInitialize != nil {
				h.onInitialize()
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	h.Composite = composite
	composite.SetPriority(hostPriority)

	for _, opt := range opts {
		opt(h)
	}
	directorOpts := []director.Option{director.WithLogger(h.logger)}
	if h.maxSleepChunk > 0 {
		directorOpts = append(directorOpts, director.WithMaxSleepChunk(h.maxSleepChunk))
	}
	h.director = director.New(directorOpts...)
	composite.SetDirector(h.director)
	return h, nil
}

// AddInputPort always fails: a host is the top of the tree and may not
// itself have ports.
func (h *Host) AddInputPort(string) error { return ErrHasPorts }

// AddOutputPort always fails: a host is the top of the tree and may not
// itself have ports.
func (h *Host) AddOutputPort(string) error { return ErrHasPorts }

// State returns the host's current lifecycle state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// AddEventListener registers listener and returns an id usable with
// RemoveEventListener.
func (h *Host) AddEventListener(listener EventListener) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextListenerID
	h.nextListenerID++
	h.listeners[id] = listener
	return id
}

// RemoveEventListener unregisters a listener previously added with
// AddEventListener. It is a no-op if the id is unknown.
func (h *Host) RemoveEventListener(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.listeners, id)
}

// ResetPriority restores the host's own priority to hostPriority and resets
// every descendant's priority, ready for a fresh assignment pass.
func (h *Host) ResetPriority() {
	h.Composite.SetPriority(hostPriority)
	h.Composite.ResetChildrenPriorities()
}

// childrenChanged reruns priority assignment on the next director callback,
// then initializes any child added after Setup that isn't initialized yet.
// It temporarily drops this host's own priority to updateModelPriority so
// that callback is scheduled ahead of every other pending reaction. It is
// wired in as the Composite's children-changed hook (see New) rather than
// overriding Composite.ChildrenChanged directly: Composite.AddChild calls
// ChildrenChanged on its own receiver, which would never reach an override
// on the embedding Host.
func (h *Host) childrenChanged() {
	h.Composite.SetPriority(updateModelPriority)
	_, err := h.scheduleChildrenChangedCallback()
	h.Composite.SetPriority(hostPriority)
	if err != nil {
		h.logger.Debug().Err(err).Msg("could not schedule model update; director not yet attached")
	}
}

func (h *Host) scheduleChildrenChangedCallback() (int, error) {
	if h.director == nil {
		return 0, fmt.Errorf("host %q has no director", h.Name())
	}
	id := h.director.ScheduleCallback(func() {
		h.logger.Debug().Str("host", h.Name()).Msg("updating model priorities")
		if err := h.computeAccessorPriorities(true); err != nil {
			h.logger.Error().Err(err).Msg("priority assignment failed")
			return
		}
		for _, child := range h.Composite.GetChildren() {
			if !child.Initialized() {
				child.Initialize()
			}
		}
	}, 0, false, updateModelPriority)
	return id, nil
}

func (h *Host) computeAccessorPriorities(updateCallbacks bool) error {
	return priority.Assign(h.Composite, h.director, hostPriority, updateCallbacks)
}

// Setup runs additionalSetup (if any), assigns every accessor's priority,
// and initializes the whole tree. It may only be called once.
func (h *Host) Setup() error {
	h.mu.Lock()
	if h.state != NeedsSetup {
		h.mu.Unlock()
		return ErrNeedsSetup
	}
	h.setStateLocked(SettingUp)
	h.mu.Unlock()

	if h.additionalSetup != nil {
		if err := h.additionalSetup(); err != nil {
			return fmt.Errorf("additional setup: %w", err)
		}
	}
	if err := h.computeAccessorPriorities(false); err != nil {
		return err
	}
	h.Composite.Initialize()

	h.mu.Lock()
	h.setStateLocked(ReadyToRun)
	h.mu.Unlock()
	return nil
}

func (h *Host) validateCanRunLocked() error {
	switch h.state {
	case Running:
		return ErrAlreadyRunning
	case ReadyToRun, Paused:
		return nil
	default:
		return ErrNotRunnable
	}
}

// Iterate runs the director for numberOfIterations rounds of due-callback
// execution (0 means until the queue empties or ctx is canceled), then
// leaves the host Paused. A panic from a reaction is recovered and reported
// to every listener, transiently passing through Corrupted, but the host
// still ends up Paused and fit to Run or Iterate again - matching the
// original's unconditional SetState(Paused) after its try/catch.
func (h *Host) Iterate(ctx context.Context, numberOfIterations int) error {
	h.mu.Lock()
	if err := h.validateCanRunLocked(); err != nil {
		h.mu.Unlock()
		return err
	}
	h.setStateLocked(Running)
	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.mu.Unlock()
	defer cancel()

	h.runAndRecover(runCtx, numberOfIterations)

	h.mu.Lock()
	h.setStateLocked(Paused)
	h.mu.Unlock()
	return nil
}

// Run starts the director on a separate goroutine and returns immediately.
func (h *Host) Run(ctx context.Context) error {
	h.mu.Lock()
	if err := h.validateCanRunLocked(); err != nil {
		h.mu.Unlock()
		return err
	}
	h.mu.Unlock()

	go func() {
		_ = h.RunOnCurrentThread(ctx)
	}()
	return nil
}

// RunOnCurrentThread drives the director, unbounded, on the calling
// goroutine until ctx is canceled, Pause is called, or the queue empties.
func (h *Host) RunOnCurrentThread(ctx context.Context) error {
	return h.Iterate(ctx, 0)
}

func (h *Host) runAndRecover(ctx context.Context, numberOfIterations int) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("reaction panicked: %v", r)
			h.logger.Error().Err(err).Str("host", h.Name()).Msg("handler failure")
			h.mu.Lock()
			h.setStateLocked(Corrupted)
			h.mu.Unlock()
			h.notifyListenersOfException(err)
		}
	}()
	h.director.Execute(ctx, numberOfIterations)
}

// Pause cancels the in-progress Iterate/RunOnCurrentThread call. It is a
// no-op error if the host is not Running.
func (h *Host) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != Running {
		return ErrNotRunning
	}
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.setStateLocked(Paused)
	return nil
}

// Exit cancels any in-progress execution and moves the host to Finished. A
// finished host cannot be reused.
func (h *Host) Exit() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setStateLocked(Exiting)
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.setStateLocked(Finished)
}

// setStateLocked must be called with h.mu held.
func (h *Host) setStateLocked(newState State) {
	oldState := h.state
	if oldState == newState {
		return
	}
	h.state = newState
	h.logger.Debug().Str("host", h.Name()).Stringer("from", oldState).Stringer("to", newState).Msg("state change")
	for _, listener := range h.listeners {
		listener.NotifyOfStateChange(oldState, newState)
	}
}

func (h *Host) notifyListenersOfException(err error) {
	h.mu.Lock()
	listeners := make([]EventListener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()
	for _, l := range listeners {
		l.NotifyOfException(err)
	}
}
