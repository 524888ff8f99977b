package host

import "errors"

var (
	// ErrNeedsSetup is returned by Setup when called more than once.
	ErrNeedsSetup = errors.New("host: setup already ran")
	// ErrNotRunnable is returned by Iterate/Run/RunOnCurrentThread unless the
	// host is ReadyToRun or Paused.
	ErrNotRunnable = errors.New("host: not in a runnable state")
	// ErrAlreadyRunning is returned by Iterate/Run/RunOnCurrentThread when the
	// host is already Running.
	ErrAlreadyRunning = errors.New("host: already running")
	// ErrNotRunning is returned by Pause when the host is not Running.
	ErrNotRunning = errors.New("host: not running")
	// ErrHasPorts is returned by AddInputPort/AddOutputPort: a host models
	// the top of an accessor network and may not itself have ports.
	ErrHasPorts = errors.New("host: hosts may not have ports")
)
