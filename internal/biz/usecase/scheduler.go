package usecase

import (
	"sync"
	"time"
)

// Task is a handle to a deferred callback
type Task interface {
	// Cancel prevents the callback from running.
	// It reports false when the callback already ran or was cancelled.
	Cancel() bool
}

// Scheduler runs callbacks after a delay
type Scheduler interface {
	After(d time.Duration, fn func()) Task
}

// TimerScheduler schedules callbacks on runtime timers and tracks the pending ones
type TimerScheduler struct {
	mu      sync.Mutex
	pending map[*timerTask]struct{}
}

// NewTimerScheduler creates a new timer scheduler
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{pending: make(map[*timerTask]struct{})}
}

type timerTask struct {
	owner *TimerScheduler
	timer *time.Timer
}

// After schedules fn to run once after d
func (s *TimerScheduler) After(d time.Duration, fn func()) Task {
	t := &timerTask{owner: s}

	s.mu.Lock()
	s.pending[t] = struct{}{}
	t.timer = time.AfterFunc(d, func() {
		if !s.release(t) {
			return
		}
		fn()
	})
	s.mu.Unlock()

	return t
}

// Cancel stops the timer if it has not fired yet
func (t *timerTask) Cancel() bool {
	if !t.owner.release(t) {
		return false
	}
	t.timer.Stop()
	return true
}

// release removes t from the pending set, reporting whether it was still pending
func (s *TimerScheduler) release(t *timerTask) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[t]; !ok {
		return false
	}
	delete(s.pending, t)
	return true
}

// Pending counts callbacks that have not run yet
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// CancelPending cancels every callback that has not run yet
func (s *TimerScheduler) CancelPending() int {
	s.mu.Lock()
	tasks := make([]*timerTask, 0, len(s.pending))
	for t := range s.pending {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	n := 0
	for _, t := range tasks {
		if t.Cancel() {
			n++
		}
	}
	return n
}
