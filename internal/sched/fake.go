package sched

import (
	"sort"
	"sync"
	"time"
)

// Fake is a deterministic Scheduler driven by Advance. Callbacks fire
// inline on the goroutine calling Advance, in due-time order.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	next  int
	tasks map[int]*fakeTask
}

type fakeTask struct {
	due    time.Time
	period time.Duration // 0 for one-shot
	fn     func()
}

// NewFake returns a Fake scheduler starting at the given time.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start, tasks: make(map[int]*fakeTask)}
}

func (f *Fake) Every(period time.Duration, fn func()) CancelFunc {
	return f.add(&fakeTask{due: f.Now().Add(period), period: period, fn: fn})
}

func (f *Fake) After(delay time.Duration, fn func()) CancelFunc {
	return f.add(&fakeTask{due: f.Now().Add(delay), fn: fn})
}

func (f *Fake) add(t *fakeTask) CancelFunc {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.tasks[id] = t
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.tasks, id)
	}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d, firing every task that comes due.
// Repeating tasks fire as many times as their period fits in the window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		fn, ok := f.popDue(target)
		if !ok {
			break
		}
		fn()
	}

	f.mu.Lock()
	f.now = target
	f.mu.Unlock()
}

// popDue removes and returns the earliest task due at or before target,
// rescheduling it first if it repeats.
func (f *Fake) popDue(target time.Time) (func(), bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int, 0, len(f.tasks))
	for id := range f.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := f.tasks[ids[i]], f.tasks[ids[j]]
		if ti.due.Equal(tj.due) {
			return ids[i] < ids[j]
		}
		return ti.due.Before(tj.due)
	})

	for _, id := range ids {
		task := f.tasks[id]
		if task.due.After(target) {
			continue
		}
		f.now = task.due
		if task.period > 0 {
			task.due = task.due.Add(task.period)
		} else {
			delete(f.tasks, id)
		}
		return task.fn, true
	}
	return nil, false
}
