// Package anim runs time-sliced animation callbacks against a frame clock.
//
// Nothing here blocks: callers schedule tasks, and whoever owns the
// scheduler calls Frame once per tick (Run does this from a clockwork ticker).
// All callbacks run on the caller's goroutine, one after another, so tasks
// never race each other as long as Frame is serialized with the rest of the
// owner's state.
package anim

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Handle identifies a scheduled task. The zero Handle is never issued.
type Handle uint64

// Task is called once per frame with the frame time. Returning false
// finishes the task.
type Task func(now time.Time) bool

// PanicHandler is told when a task panics. The panicking task is removed
// before the handler runs.
type PanicHandler func(owner string, err error)

type entry struct {
	handle Handle
	owner  string
	fn     Task
	done   bool
}

// Scheduler keeps the set of in-flight tasks. It is not safe for concurrent
// use; the owner serializes access.
type Scheduler struct {
	clock   clockwork.Clock
	next    Handle
	tasks   []*entry
	onPanic PanicHandler
}

// NewScheduler creates a scheduler reading time from clock. A nil clock uses
// the real clock.
func NewScheduler(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{clock: clock}
}

// Clock returns the scheduler's time source.
func (s *Scheduler) Clock() clockwork.Clock { return s.clock }

// Now returns the current clock time.
func (s *Scheduler) Now() time.Time { return s.clock.Now() }

// OnPanic installs the handler notified when a task panics.
func (s *Scheduler) OnPanic(h PanicHandler) { s.onPanic = h }

// Every schedules fn to run on every frame until it returns false or is
// cancelled.
func (s *Scheduler) Every(owner string, fn Task) Handle {
	s.next++
	s.tasks = append(s.tasks, &entry{handle: s.next, owner: owner, fn: fn})
	return s.next
}

// After runs fn once, on the first frame at least d after now.
func (s *Scheduler) After(owner string, d time.Duration, fn func()) Handle {
	due := s.clock.Now().Add(d)
	return s.Every(owner, func(now time.Time) bool {
		if now.Before(due) {
			return true
		}
		fn()
		return false
	})
}

// Cancel stops a task. Cancelling a finished or unknown handle is a no-op.
func (s *Scheduler) Cancel(h Handle) {
	for _, e := range s.tasks {
		if e.handle == h {
			e.done = true
		}
	}
	s.compact()
}

// CancelOwner stops every task registered under owner.
func (s *Scheduler) CancelOwner(owner string) {
	for _, e := range s.tasks {
		if e.owner == owner {
			e.done = true
		}
	}
	s.compact()
}

// Active reports whether h is still scheduled.
func (s *Scheduler) Active(h Handle) bool {
	for _, e := range s.tasks {
		if e.handle == h && !e.done {
			return true
		}
	}
	return false
}

// Pending counts the live tasks of owner, or of everyone when owner is "".
func (s *Scheduler) Pending(owner string) int {
	n := 0
	for _, e := range s.tasks {
		if e.done {
			continue
		}
		if owner == "" || e.owner == owner {
			n++
		}
	}
	return n
}

// Frame runs every live task once, in scheduling order. Tasks scheduled
// during the frame first run on the next frame.
func (s *Scheduler) Frame(now time.Time) {
	batch := make([]*entry, len(s.tasks))
	copy(batch, s.tasks)
	for _, e := range batch {
		if e.done {
			continue
		}
		if !s.run(e, now) {
			e.done = true
		}
	}
	s.compact()
}

func (s *Scheduler) run(e *entry, now time.Time) (keep bool) {
	defer func() {
		if r := recover(); r != nil {
			keep = false
			e.done = true
			if s.onPanic != nil {
				s.onPanic(e.owner, fmt.Errorf("animation task %q panicked: %v", e.owner, r))
			}
		}
	}()
	return e.fn(now)
}

func (s *Scheduler) compact() {
	live := s.tasks[:0]
	for _, e := range s.tasks {
		if !e.done {
			live = append(live, e)
		}
	}
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live
}

// Run calls frame on every tick of interval until ctx is cancelled.
func Run(ctx context.Context, clock clockwork.Clock, interval time.Duration, frame func(now time.Time)) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.Chan():
			frame(now)
		}
	}
}
