// Package director implements the accessor model's global callback queue
// and execution engine. There is exactly one Director per host. It
// prioritizes callbacks first by next execution time, then by the calling
// accessor's priority, and lastly by a monotonically increasing callback id;
// the id also lets the scheduling accessor cancel its own callback and
// guarantees that two callbacks scheduled in order by a single accessor
// execute in that same order.
//
// Execution time is derived from a logical clock loosely tied to wall-clock
// time. Physical time is continuous, but the logical clock is discrete: it
// jumps instantaneously from one scheduled instant to the next as queued
// callbacks execute. This lets callbacks run synchronously and still appear,
// to the accessors involved, to have executed atomically and concurrently -
// coordinated reactions without explicit cross-accessor locking.
package director

import (
	"container/heap"
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// NoPriority is the largest priority value, the Go equivalent of the
// original's INT_MAX default. The Director gives it no special meaning: a
// callback scheduled with it simply sorts after every other callback due at
// the same instant.
const NoPriority = math.MaxInt

// Director owns the global, priority-ordered callback queue for one host.
type Director struct {
	mu     sync.Mutex
	logger zerolog.Logger

	nextID            int
	callbacks         map[int]*scheduledCallback
	queue             callbackHeap
	currentLogicalMS  int64
	startMS           int64
	maxSleepChunk     time.Duration
	wake              chan struct{}
}

// New constructs a Director with its logical clock seeded from the current
// wall-clock time.
func New(opts ...Option) *Director {
	now := time.Now().UnixMilli()
	d := &Director{
		logger:        zerolog.Nop(),
		callbacks:     make(map[int]*scheduledCallback),
		currentLogicalMS: now,
		startMS:       now,
		maxSleepChunk: DefaultMaxSleepChunk,
		wake:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ScheduleCallback queues fn to run after delay, optionally repeating every
// delay thereafter, at the given priority (NoPriority to leave it
// unordered-last among same-instant callbacks until a priority assignment
// pass assigns one). It returns a callback id that can be passed to
// ClearScheduledCallback.
func (d *Director) ScheduleCallback(fn func(), delay time.Duration, periodic bool, priority int) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	cb := &scheduledCallback{
		id:         id,
		fn:         fn,
		delayMS:    delay.Milliseconds(),
		periodic:   periodic,
		priority:   priority,
		nextExecMS: d.currentLogicalMS + delay.Milliseconds(),
	}
	d.callbacks[id] = cb
	heap.Push(&d.queue, cb)
	d.notifyWakeLocked()
	return id
}

// ClearScheduledCallback cancels a previously scheduled callback. It is a
// no-op if the callback has already fired (and was not periodic) or was
// already cleared.
func (d *Director) ClearScheduledCallback(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cb, ok := d.callbacks[id]
	if !ok {
		return
	}
	delete(d.callbacks, id)
	if cb.index >= 0 && cb.index < d.queue.Len() && d.queue[cb.index] == cb {
		heap.Remove(&d.queue, cb.index)
	}
}

// HandlePriorityUpdate re-sorts every callback currently scheduled at
// oldPriority to newPriority. Called when a priority-assignment pass gives
// accessors new priorities, so callbacks already queued under their old
// priority number move to their new place in the total order.
func (d *Director) HandlePriorityUpdate(oldPriority, newPriority int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, cb := range d.callbacks {
		if cb.priority == oldPriority {
			cb.priority = newPriority
			if cb.index >= 0 {
				heap.Fix(&d.queue, cb.index)
			}
		}
	}
	d.notifyWakeLocked()
}

// CurrentLogicalTime returns the logical clock's current value, in
// milliseconds, as wall-clock milliseconds since the Unix epoch.
func (d *Director) CurrentLogicalTime() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentLogicalMS
}

// Execute drives the callback queue until ctx is canceled or, if
// numberOfIterations is nonzero, that many rounds of due-callback execution
// have run. Each round advances the logical clock to the next scheduled
// instant and runs every callback due at or before it. Execute returns once
// the queue empties, with nothing left to wait for.
func (d *Director) Execute(ctx context.Context, numberOfIterations int) {
	iteration := 0
	for {
		if ctx.Err() != nil {
			return
		}
		if numberOfIterations != 0 && iteration >= numberOfIterations {
			return
		}

		target, ready := d.waitForNextReady(ctx)
		if !ready {
			return
		}

		d.executeCallbacks(target)
		iteration++
	}
}

func (d *Director) waitForNextReady(ctx context.Context) (int64, bool) {
	for {
		d.mu.Lock()
		if d.queue.Len() == 0 {
			d.mu.Unlock()
			return 0, false
		}
		target := d.queue[0].nextExecMS
		d.mu.Unlock()

		remainingMS := target - time.Now().UnixMilli()
		if remainingMS <= 0 {
			return target, true
		}

		wait := time.Duration(remainingMS) * time.Millisecond
		if wait > d.maxSleepChunk {
			wait = d.maxSleepChunk
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, false
		case <-d.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (d *Director) executeCallbacks(targetMS int64) {
	d.mu.Lock()
	d.currentLogicalMS = targetMS
	d.mu.Unlock()
	d.logger.Debug().Int64("logical_time_offset_ms", targetMS-d.startMS).Msg("executing due callbacks")

	for {
		d.mu.Lock()
		if d.queue.Len() == 0 || d.queue[0].nextExecMS > targetMS {
			d.mu.Unlock()
			return
		}
		cb := heap.Pop(&d.queue).(*scheduledCallback)
		fn := cb.fn
		d.mu.Unlock()

		fn()

		d.mu.Lock()
		if existing, ok := d.callbacks[cb.id]; ok && existing == cb {
			if cb.periodic {
				cb.nextExecMS += cb.delayMS
				heap.Push(&d.queue, cb)
			} else {
				delete(d.callbacks, cb.id)
			}
		}
		d.mu.Unlock()
	}
}

func (d *Director) notifyWakeLocked() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}
