package port

import "github.com/comalice/accessorkit/internal/event"

// OutputPort carries an accessor's reaction results onward. A spontaneous
// output port has no source: its accessor produces output on its own
// schedule (e.g. a timer), not in response to an input.
type OutputPort struct {
	common
	spontaneous bool
}

// NewOutputPort constructs an OutputPort belonging to owner.
func NewOutputPort(name string, owner Owner, spontaneous bool) *OutputPort {
	return &OutputPort{common: common{name: name, owner: owner}, spontaneous: spontaneous}
}

// IsSpontaneous reports whether this port was declared spontaneous.
func (p *OutputPort) IsSpontaneous() bool { return p.spontaneous }

// ReceiveData implements Port: an output port simply relays onward once its
// owner has been initialized.
func (p *OutputPort) ReceiveData(ev event.Event) {
	if !p.owner.Initialized() {
		return
	}
	p.SendData(ev)
}
