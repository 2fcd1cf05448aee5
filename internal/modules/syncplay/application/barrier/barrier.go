// Package barrier implements the wait behind the readiness handshake: wait for
// local playback to start, give up on a playback error, or time out.
//
// A Barrier holds at most one armed Wait. Arming again supersedes the pending
// wait, so a stale handshake never reports readiness for a buffering cycle
// that has since been replaced.
package barrier

import (
	"context"
	"sync"
	"time"
)

// Outcome is how an armed wait was resolved.
type Outcome int

const (
	Started    Outcome = iota // local playback started
	Failed                    // local playback reported an error
	TimedOut                  // nothing happened before the timeout
	Superseded                // a newer wait was armed
	Cancelled                 // the barrier or the caller's context was cancelled
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case Started:
		return "started"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	case Superseded:
		return "superseded"
	default:
		return "cancelled"
	}
}

// Barrier routes playback signals to the currently armed wait.
type Barrier struct {
	mu      sync.Mutex
	pending *Wait
}

// New creates a Barrier with nothing armed.
func New() *Barrier {
	return &Barrier{}
}

// Arm arms a new wait, superseding the pending one if any.
func (b *Barrier) Arm() *Wait {
	w := &Wait{
		barrier: b,
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	previous := b.pending
	b.pending = w
	b.mu.Unlock()

	if previous != nil {
		previous.resolve(Superseded, nil)
	}
	return w
}

// Signal resolves the pending wait as Started.
// It returns false if nothing was armed.
func (b *Barrier) Signal() bool {
	return b.resolvePending(Started, nil)
}

// Fail resolves the pending wait as Failed with err.
// It returns false if nothing was armed.
func (b *Barrier) Fail(err error) bool {
	return b.resolvePending(Failed, err)
}

// Cancel resolves the pending wait as Cancelled.
func (b *Barrier) Cancel() {
	b.resolvePending(Cancelled, nil)
}

// Armed returns true while a wait is pending.
func (b *Barrier) Armed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending != nil
}

func (b *Barrier) resolvePending(outcome Outcome, err error) bool {
	b.mu.Lock()
	w := b.pending
	b.pending = nil
	b.mu.Unlock()

	if w == nil {
		return false
	}
	return w.resolve(outcome, err)
}

// release clears w from the barrier if it is still the pending wait.
func (b *Barrier) release(w *Wait) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == w {
		b.pending = nil
	}
}

// Wait is one armed handshake. It resolves exactly once.
type Wait struct {
	barrier *Barrier
	once    sync.Once
	done    chan struct{}
	outcome Outcome
	err     error
}

func (w *Wait) resolve(outcome Outcome, err error) bool {
	resolved := false
	w.once.Do(func() {
		w.outcome = outcome
		w.err = err
		close(w.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the wait has been resolved.
func (w *Wait) Done() <-chan struct{} {
	return w.done
}

// Await blocks until the wait is resolved, timeout elapses, or ctx is done.
// The error is only set for Failed.
func (w *Wait) Await(ctx context.Context, timeout time.Duration) (Outcome, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.done:
	case <-timer.C:
		w.resolve(TimedOut, nil)
	case <-ctx.Done():
		w.resolve(Cancelled, nil)
	}

	w.barrier.release(w)
	return w.outcome, w.err
}
