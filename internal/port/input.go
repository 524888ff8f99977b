package port

import "github.com/comalice/accessorkit/internal/event"

// InputPort queues received events until its owner's reaction drains them.
// A composite's input port is transparent: it never queues, it relays
// straight through to whatever it's wired to inside the composite.
type InputPort struct {
	common
	waitingForInputHandler bool
	queue                  []event.Event
}

// NewInputPort constructs an InputPort belonging to owner.
func NewInputPort(name string, owner Owner) *InputPort {
	return &InputPort{common: common{name: name, owner: owner}}
}

// IsSpontaneous is always false for an input port.
func (p *InputPort) IsSpontaneous() bool { return false }

// LatestInput returns the event at the front of the queue, if any.
func (p *InputPort) LatestInput() (event.Event, bool) {
	if len(p.queue) == 0 {
		return event.Event{}, false
	}
	return p.queue[0], true
}

// QueueLength reports how many events are currently queued.
func (p *InputPort) QueueLength() int { return len(p.queue) }

// IsWaitingForInputHandler reports whether a reaction still owes this port
// a call to DequeueLatestInput.
func (p *InputPort) IsWaitingForInputHandler() bool { return p.waitingForInputHandler }

// DequeueLatestInput drops the front of the queue. Only the owning
// accessor's reaction should call this, after its input handlers have run.
func (p *InputPort) DequeueLatestInput() {
	if len(p.queue) == 0 {
		return
	}
	p.queue = p.queue[1:]
	p.waitingForInputHandler = len(p.queue) > 0
}

// ReceiveData implements Port. A composite relays the event straight to its
// own destinations (its input ports are transparent pass-throughs into the
// subnetwork); an atomic accessor queues it and, on the empty-to-nonempty
// transition, alerts its owner that a reaction is needed and forwards the
// event to any further destinations (feedback/fan-out wiring).
func (p *InputPort) ReceiveData(ev event.Event) {
	if !p.owner.Initialized() {
		return
	}

	if p.owner.IsComposite() {
		p.SendData(ev)
		return
	}

	wasWaiting := p.waitingForInputHandler
	p.queueInput(ev)
	if !wasWaiting && p.waitingForInputHandler {
		p.owner.AlertNewInput()
		p.SendData(ev)
	}
}

func (p *InputPort) queueInput(ev event.Event) {
	p.queue = append(p.queue, ev)
	p.waitingForInputHandler = true
}
