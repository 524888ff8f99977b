package port

import "errors"

// ErrAlreadyConnected is returned when a destination port already has a
// different source.
var ErrAlreadyConnected = errors.New("port: destination already connected to a different source")

// ErrSpontaneousDestination is returned when a caller tries to connect
// something to a spontaneous output port, which by definition has no source.
var ErrSpontaneousDestination = errors.New("port: destination is spontaneous and cannot accept a source")
