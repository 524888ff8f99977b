// Package port implements the event-carrying endpoints that connect
// accessors together. A port that sends an event is a source; a port that
// receives one is a destination. Despite the input/output naming, both
// kinds can send and receive: the names only describe where the port
// typically sits in a reaction (input ports feed reactions, output ports
// carry their results onward).
package port

import (
	"fmt"

	"github.com/comalice/accessorkit/internal/event"
)

// Owner is the subset of an accessor's behavior a port needs from whatever
// accessor holds it: its identity for naming, whether it has finished
// initialization (uninitialized accessors drop incoming events), whether it
// is a composite (composites relay rather than queue), and the hook an
// input port uses to tell its owner a new reaction needs scheduling.
type Owner interface {
	FullName() string
	Initialized() bool
	IsComposite() bool
	AlertNewInput()
}

// Port is the common interface implemented by InputPort and OutputPort.
// Connect/Disconnect operate on this interface so the two concrete types
// can be wired together without either package needing to know the other's
// layout.
type Port interface {
	Name() string
	FullName() string
	Owner() Owner
	IsSpontaneous() bool
	IsConnectedToSource() bool
	Source() Port
	Destinations() []Port
	SendData(ev event.Event)
	ReceiveData(ev event.Event)

	setSource(p Port)
	addDestination(p Port)
	removeDestination(p Port)
}

// common holds the bookkeeping shared by InputPort and OutputPort: identity,
// the single upstream source (if any), and the list of downstream
// destinations an incoming event is fanned out to.
type common struct {
	name         string
	owner        Owner
	source       Port
	destinations []Port
}

func (c *common) Name() string     { return c.name }
func (c *common) Owner() Owner     { return c.owner }
func (c *common) FullName() string { return c.owner.FullName() + "." + c.name }

func (c *common) IsConnectedToSource() bool { return c.source != nil }
func (c *common) Source() Port              { return c.source }

func (c *common) Destinations() []Port {
	out := make([]Port, len(c.destinations))
	copy(out, c.destinations)
	return out
}

func (c *common) setSource(p Port) { c.source = p }

func (c *common) addDestination(p Port) { c.destinations = append(c.destinations, p) }

func (c *common) removeDestination(p Port) {
	for i, d := range c.destinations {
		if d == p {
			c.destinations = append(c.destinations[:i], c.destinations[i+1:]...)
			return
		}
	}
}

func (c *common) SendData(ev event.Event) {
	for _, destination := range c.destinations {
		destination.ReceiveData(ev)
	}
}

// Connect wires source as destination's upstream source, and registers
// destination as one of source's fan-out targets. A destination already
// connected to a different source, or a spontaneous destination, is
// rejected.
func Connect(source, destination Port) error {
	if destination.IsConnectedToSource() && destination.Source() != source {
		return fmt.Errorf("%w: destination port %q is already connected to source port %q",
			ErrAlreadyConnected, destination.FullName(), destination.Source().FullName())
	}
	if destination.IsSpontaneous() {
		return fmt.Errorf("%w: destination port %q is spontaneous, cannot connect to source port %q",
			ErrSpontaneousDestination, destination.FullName(), source.FullName())
	}

	destination.setSource(source)
	source.addDestination(destination)
	return nil
}

// Disconnect removes the connection between source and destination, if any.
func Disconnect(source, destination Port) {
	destination.setSource(nil)
	source.removeDestination(destination)
}

// DisconnectAll disconnects p from its source, if any, and from every
// destination it feeds.
func DisconnectAll(p Port) {
	if p.IsConnectedToSource() {
		Disconnect(p.Source(), p)
	}
	for _, destination := range p.Destinations() {
		Disconnect(p, destination)
	}
}
