// Package hypervisor fans a single operation (setup, pause, run) out across
// every host it manages concurrently, joining before returning.
package hypervisor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/comalice/accessorkit/internal/host"
)

// ErrHostNotFound is returned by any per-host operation given an unknown id.
var ErrHostNotFound = fmt.Errorf("hypervisor: host not found")

// Hypervisor owns a set of hosts, identified by an id assigned at AddHost
// time, and runs fleet-wide operations across them concurrently.
type Hypervisor struct {
	mu        sync.Mutex
	nextID    int
	hosts     map[int]*host.Host
	hostOrder []int
}

// New constructs an empty Hypervisor.
func New() *Hypervisor {
	return &Hypervisor{hosts: make(map[int]*host.Host)}
}

// AddHost takes ownership of h and returns an id for referring to it later.
func (hv *Hypervisor) AddHost(h *host.Host) int {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	id := hv.nextID
	hv.nextID++
	hv.hosts[id] = h
	hv.hostOrder = append(hv.hostOrder, id)
	return id
}

// RemoveHost drops a host from the fleet. It does not stop the host if it's
// currently running; call PauseHost first.
func (hv *Hypervisor) RemoveHost(id int) {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	delete(hv.hosts, id)
	for i, existing := range hv.hostOrder {
		if existing == id {
			hv.hostOrder = append(hv.hostOrder[:i], hv.hostOrder[i+1:]...)
			break
		}
	}
}

// RemoveAllHosts drops every host from the fleet.
func (hv *Hypervisor) RemoveAllHosts() {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	hv.hosts = make(map[int]*host.Host)
	hv.hostOrder = nil
}

func (hv *Hypervisor) get(id int) (*host.Host, error) {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	h, ok := hv.hosts[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrHostNotFound, id)
	}
	return h, nil
}

func (hv *Hypervisor) orderedIDs() []int {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	ids := make([]int, len(hv.hostOrder))
	copy(ids, hv.hostOrder)
	sort.Ints(ids)
	return ids
}

// GetHostName returns the named host's accessor name.
func (hv *Hypervisor) GetHostName(id int) (string, error) {
	h, err := hv.get(id)
	if err != nil {
		return "", err
	}
	return h.Name(), nil
}

// GetHostState returns the named host's lifecycle state.
func (hv *Hypervisor) GetHostState(id int) (host.State, error) {
	h, err := hv.get(id)
	if err != nil {
		return 0, err
	}
	return h.State(), nil
}

// GetHostNames returns every host's name, keyed by id.
func (hv *Hypervisor) GetHostNames() map[int]string {
	out := make(map[int]string)
	for _, id := range hv.orderedIDs() {
		name, _ := hv.GetHostName(id)
		out[id] = name
	}
	return out
}

// GetHostStates returns every host's lifecycle state, keyed by id.
func (hv *Hypervisor) GetHostStates() map[int]host.State {
	out := make(map[int]host.State)
	for _, id := range hv.orderedIDs() {
		state, _ := hv.GetHostState(id)
		out[id] = state
	}
	return out
}

// SetupHost runs Setup on a single host.
func (hv *Hypervisor) SetupHost(id int) error {
	h, err := hv.get(id)
	if err != nil {
		return err
	}
	return h.Setup()
}

// PauseHost runs Pause on a single host.
func (hv *Hypervisor) PauseHost(id int) error {
	h, err := hv.get(id)
	if err != nil {
		return err
	}
	return h.Pause()
}

// RunHost starts a single host running on its own goroutine.
func (hv *Hypervisor) RunHost(ctx context.Context, id int) error {
	h, err := hv.get(id)
	if err != nil {
		return err
	}
	return h.Run(ctx)
}

// SetupHosts runs Setup concurrently across every host, returning the first
// error encountered (if any) after every host has had a chance to run.
func (hv *Hypervisor) SetupHosts(ctx context.Context) error {
	return hv.fanOut(ctx, func(h *host.Host) error { return h.Setup() })
}

// PauseHosts runs Pause concurrently across every host.
func (hv *Hypervisor) PauseHosts(ctx context.Context) error {
	return hv.fanOut(ctx, func(h *host.Host) error { return h.Pause() })
}

// RunHosts starts every host running, each on its own goroutine, and
// returns once all have been started (not once they've finished).
func (hv *Hypervisor) RunHosts(ctx context.Context) error {
	return hv.fanOut(ctx, func(h *host.Host) error { return h.Run(ctx) })
}

// RunHostsOnCurrentThread starts every host but one running on its own
// goroutine, then drives the remaining host on the calling goroutine,
// returning once every host's run has finished or ctx is canceled.
func (hv *Hypervisor) RunHostsOnCurrentThread(ctx context.Context) error {
	ids := hv.orderedIDs()
	if len(ids) == 0 {
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, id := range ids[1:] {
		id := id
		group.Go(func() error {
			h, err := hv.get(id)
			if err != nil {
				return err
			}
			return h.RunOnCurrentThread(groupCtx)
		})
	}

	first, err := hv.get(ids[0])
	if err != nil {
		return err
	}
	runErr := first.RunOnCurrentThread(groupCtx)
	waitErr := group.Wait()
	if runErr != nil {
		return runErr
	}
	return waitErr
}

func (hv *Hypervisor) fanOut(ctx context.Context, fn func(*host.Host) error) error {
	group, _ := errgroup.WithContext(ctx)
	for _, id := range hv.orderedIDs() {
		id := id
		group.Go(func() error {
			h, err := hv.get(id)
			if err != nil {
				return err
			}
			return fn(h)
		})
	}
	return group.Wait()
}
