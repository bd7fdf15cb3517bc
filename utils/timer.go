package utils

import (
	"time"

	"github.com/pkg/errors"
)

// Timer measures wall time between Start and Stop and keeps a running total.
type Timer struct {
	start   time.Time
	elapsed time.Duration
	total   time.Duration
	running bool
	stopped bool
}

func (t *Timer) Start() {
	t.start = time.Now()
	t.running = true
	t.stopped = false
}

func (t *Timer) Stop() error {
	if !t.running {
		return errors.New("timer has not been started")
	}
	t.elapsed = time.Since(t.start)
	t.total += t.elapsed
	t.running = false
	t.stopped = true
	return nil
}

// Elapsed is the duration of the last Start/Stop pair.
func (t *Timer) Elapsed() (time.Duration, error) {
	if !t.stopped {
		return 0, errors.New("timer has not been stopped")
	}
	return t.elapsed, nil
}

func (t *Timer) Total() time.Duration {
	return t.total
}
