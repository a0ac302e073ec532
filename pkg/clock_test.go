package pkg

import (
	"testing"
	"time"
)

func TestClock(t *testing.T) {
	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	cl := NewClock()
	cl.now = func() time.Time { return now }

	cl.Start()
	now = now.Add(65 * time.Second)
	if got := cl.String(); got != "1:05" {
		t.Errorf("expected 1:05, got %s", got)
	}
	cl.Pause()
	now = now.Add(time.Hour)
	if got := cl.Elapsed(); got != 65*time.Second {
		t.Errorf("a paused clock must not advance, got %s", got)
	}

	cl.Start()
	cl.Start()
	now = now.Add(5 * time.Second)
	if got := cl.Elapsed(); got != 70*time.Second {
		t.Errorf("expected 70s, got %s", got)
	}

	cl.Reset()
	if cl.Running() || cl.Elapsed() != 0 || cl.String() != "0:00" {
		t.Errorf("reset should stop and zero the clock")
	}
}
