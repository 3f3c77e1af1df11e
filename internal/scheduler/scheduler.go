// Package scheduler runs fire-once tasks at a target time. Every task
// carries a key naming the container it belongs to so that all pending
// work for a container can be cancelled when the container goes away.
package scheduler

import (
	"sync"
	"time"

	"github.com/lalith-99/echohub/internal/clock"
	"go.uber.org/zap"
)

type Scheduler struct {
	clock  clock.Clock
	logger *zap.Logger

	mu     sync.Mutex
	nextID uint64
	tasks  map[uint64]*task
	closed bool
}

type task struct {
	id    uint64
	key   string
	at    time.Time
	timer clock.Timer
}

func New(c clock.Clock, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		clock:  c,
		logger: logger.Named("scheduler"),
		tasks:  make(map[uint64]*task),
	}
}

// At schedules fn to run once at the given time. A time in the past runs
// as soon as possible. It returns 0 if the scheduler has been closed.
func (s *Scheduler) At(at time.Time, key string, fn func()) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0
	}

	s.nextID++
	t := &task{id: s.nextID, key: key, at: at}
	s.tasks[t.id] = t
	t.timer = s.clock.AfterFunc(at.Sub(s.clock.Now()), func() { s.run(t.id, fn) })
	return t.id
}

// Cancel stops every pending task registered under key and returns how
// many were stopped.
func (s *Scheduler) Cancel(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, t := range s.tasks {
		if t.key != key {
			continue
		}
		if t.timer.Stop() {
			n++
		}
		delete(s.tasks, id)
	}
	if n > 0 {
		s.logger.Debug("cancelled pending tasks", zap.String("key", key), zap.Int("count", n))
	}
	return n
}

// Pending reports how many tasks are registered under key. An empty key
// counts every task.
func (s *Scheduler) Pending(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == "" {
		return len(s.tasks)
	}
	n := 0
	for _, t := range s.tasks {
		if t.key == key {
			n++
		}
	}
	return n
}

// Close stops all pending tasks. Later calls to At are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, id)
	}
	s.closed = true
}

func (s *Scheduler) run(id uint64, fn func()) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if ok {
		delete(s.tasks, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked",
				zap.Uint64("task_id", id),
				zap.String("key", t.key),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}
