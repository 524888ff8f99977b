// Package event provides the immutable event primitive passed between ports.
//
// An Event carries an opaque payload between ports. It does not carry a
// type tag: accessors key their reactions off the port an event arrived on,
// not off the event's content, so the payload is consulted only by the
// handler that already knows what it expects.
package event

// Event is a value type; once constructed it is never mutated. Consumers
// must not assume the payload is comparable or safe to mutate in place.
type Event struct {
	Payload any
}

// New constructs an Event carrying the given payload.
func New(payload any) Event {
	return Event{Payload: payload}
}
