package accessor

import "errors"

var (
	// ErrInvalidName is returned when an accessor, port, or child name is
	// empty, contains a period, or contains whitespace.
	ErrInvalidName = errors.New("accessor: name is invalid")
	// ErrPortExists is returned when a port name collides with an existing
	// input or output port on the same accessor.
	ErrPortExists = errors.New("accessor: port name already in use")
	// ErrPortNotFound is returned when a named port lookup fails.
	ErrPortNotFound = errors.New("accessor: port not found")
	// ErrAlreadyHasParent is returned when an accessor already attached to
	// a composite is attached again.
	ErrAlreadyHasParent = errors.New("accessor: already has a parent")
	// ErrNotInitialized is returned by SendOutput before Initialize has run.
	ErrNotInitialized = errors.New("accessor: not yet initialized")
	// ErrChildNameInvalid is returned when a new child's name collides with
	// the parent's own name or an existing child's name.
	ErrChildNameInvalid = errors.New("accessor: child name is invalid")
	// ErrChildNotFound is returned when a named child lookup fails.
	ErrChildNotFound = errors.New("accessor: child not found")
	// ErrInputPortNotFound is returned when a dependency edit
	// (RemoveDependency) names an input port that does not exist.
	ErrInputPortNotFound = errors.New("accessor: input port not found")
)
