package draw

import (
	"sync"
	"time"
)

// Task is a handle to scheduled repeating work.
type Task interface {
	// Cancel stops future runs. It is safe to call more than once and from
	// inside the task's own callback.
	Cancel()
}

// Scheduler runs fn every interval until the returned Task is cancelled.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
}

// TickerScheduler schedules work on a time.Ticker in its own goroutine.
type TickerScheduler struct{}

type tickerTask struct {
	once sync.Once
	stop chan struct{}
}

func (t *tickerTask) Cancel() {
	t.once.Do(func() { close(t.stop) })
}

// Every starts a goroutine that calls fn on each tick.
func (TickerScheduler) Every(interval time.Duration, fn func()) Task {
	task := &tickerTask{stop: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-task.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return task
}
