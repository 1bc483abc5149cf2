package control

import "time"

// TaskFunc is one periodic unit of work, driven by Poll.
type TaskFunc func(now time.Time) error

// Task is a periodic task descriptor: a name, a period, and the last run
// time. Tasks never run concurrently; Poll invokes them in registration
// order, preserving the cooperative single-loop semantics.
type Task struct {
	Name    string
	Period  time.Duration
	lastRun time.Time
	fn      TaskFunc
}

// TaskError records a contained task failure from one poll.
type TaskError struct {
	Task string
	Err  error
}

// Scheduler drives a fixed set of periodic tasks from a single Poll call.
type Scheduler struct {
	tasks []*Task
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler { return &Scheduler{} }

// Add registers a task. A zero period runs the task on every poll.
func (s *Scheduler) Add(name string, period time.Duration, fn TaskFunc) {
	s.tasks = append(s.tasks, &Task{Name: name, Period: period, fn: fn})
}

// Poll runs every task whose period has elapsed. A failing task never stops
// the poll: errors are collected and the remaining tasks still run, so
// per-iteration duties (like the watchdog feed) cannot be skipped by an
// earlier failure.
func (s *Scheduler) Poll(now time.Time) []TaskError {
	var errs []TaskError
	for _, t := range s.tasks {
		if !t.lastRun.IsZero() && now.Sub(t.lastRun) < t.Period {
			continue
		}
		t.lastRun = now
		if err := t.fn(now); err != nil {
			errs = append(errs, TaskError{Task: t.Name, Err: err})
		}
	}
	return errs
}
