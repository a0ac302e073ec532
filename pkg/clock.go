package pkg

import (
	"fmt"
	"sync"
	"time"
)

// Clock counts the thinking time of one side.
type Clock struct {
	mu      sync.Mutex
	elapsed time.Duration
	since   time.Time
	running bool
	now     func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

func (cl *Clock) String() string {
	d := cl.Elapsed()
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// Start resumes the clock. Starting a running clock is a no-op.
func (cl *Clock) Start() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.running {
		return
	}
	cl.running = true
	cl.since = cl.now()
}

func (cl *Clock) Pause() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if !cl.running {
		return
	}
	cl.elapsed += cl.now().Sub(cl.since)
	cl.running = false
}

func (cl *Clock) Reset() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.elapsed = 0
	cl.running = false
}

func (cl *Clock) Running() bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.running
}

func (cl *Clock) Elapsed() time.Duration {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.running {
		return cl.elapsed + cl.now().Sub(cl.since)
	}
	return cl.elapsed
}
