// Package debounce coalesces bursts of change notifications into a single
// delayed action. Each document owns one Scheduler: rapid re-arms within
// the window supersede each other, so N mutations produce exactly one
// eventual action invocation reflecting state at fire time.
package debounce

import (
	"sync"
	"time"
)

// Scheduler is a single logical timer. The zero value is ready to use.
//
// Arm may be called concurrently with a pending fire; the action runs on
// a background goroutine and must itself be safe against concurrent
// re-arms. There is no cancel - superseding re-arm is the only control,
// and an action that fires after its trigger became irrelevant is
// expected to re-check whether it still has work to do.
type Scheduler struct {
	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// Arm (re)starts the timer. Only the most recent Arm within the window
// survives; pending invocations from earlier calls are discarded.
func (s *Scheduler) Arm(delay time.Duration, action func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, func() {
		// A Stop that loses the race with firing must still not run a
		// superseded action; the generation check closes that window.
		s.mu.Lock()
		live := s.gen == gen
		s.mu.Unlock()
		if live {
			action()
		}
	})
}
