package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/keyframer/internal/domain"
	"github.com/bft-labs/keyframer/internal/ports"
)

// ShutdownTimeout bounds how long a service waits for in-flight work on stop.
const ShutdownTimeout = 30 * time.Second

// State is the lifecycle state of a long-running service (watcher, HTTP server).
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

var stateNames = map[State]string{
	StateStopped:  "Stopped",
	StateStarting: "Starting",
	StateRunning:  "Running",
	StateStopping: "Stopping",
	StateCrashed:  "Crashed",
}

// String returns a human-readable representation of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// transitions lists the states reachable from each state.
var transitions = map[State][]State{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateCrashed},
	StateRunning:  {StateStopping, StateCrashed},
	StateStopping: {StateStopped, StateCrashed},
	StateCrashed:  {StateStarting},
}

// Lifecycle guards the state of a service and tracks its in-flight work.
type Lifecycle struct {
	name   string
	logger ports.Logger

	mu     sync.RWMutex
	state  State
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLifecycle creates a stopped lifecycle for the named service.
func NewLifecycle(name string, logger ports.Logger) *Lifecycle {
	return &Lifecycle{name: name, logger: logger, state: StateStopped}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves to next. Starting from a stopped or crashed service only
// allows StateStarting (domain.ErrNotRunning otherwise); any other invalid
// move fails with domain.ErrAlreadyRunning.
func (l *Lifecycle) TransitionTo(next State, reason string) error {
	l.mu.Lock()
	prev := l.state
	allowed := false
	for _, s := range transitions[prev] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		l.mu.Unlock()
		if prev == StateStopped || prev == StateCrashed {
			return domain.ErrNotRunning
		}
		return domain.ErrAlreadyRunning
	}
	l.state = next
	l.mu.Unlock()

	l.logger.Debug("state transition",
		ports.String("service", l.name),
		ports.Stringer("from", prev),
		ports.Stringer("to", next),
		ports.String("reason", reason),
	)
	return nil
}

// Start moves a stopped or crashed service to Starting and derives a
// cancellable context for it.
func (l *Lifecycle) Start(ctx context.Context) (context.Context, error) {
	if err := l.TransitionTo(StateStarting, "start"); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()
	return ctx, nil
}

// Cancel triggers shutdown of the service context. Safe before Start.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Go runs fn as tracked in-flight work.
func (l *Lifecycle) Go(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

// Stop cancels the service, waits up to timeout for tracked work and moves
// to Stopped. A crash during the wait leaves the service Crashed.
func (l *Lifecycle) Stop(timeout time.Duration) error {
	if err := l.TransitionTo(StateStopping, "stop"); err != nil {
		return err
	}
	l.Cancel()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		l.logger.Warn("shutdown timeout, forcing exit",
			ports.String("service", l.name),
			ports.Duration("timeout", timeout),
		)
		_ = l.TransitionTo(StateCrashed, "shutdown timeout")
		return domain.ErrShutdownTimeout
	}
	return l.TransitionTo(StateStopped, "stopped")
}
