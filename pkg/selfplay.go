package pkg

import (
	"context"
	"errors"
	"sync"
)

var ErrSelfPlayRunning = errors.New("self-play already running")

// SelfPlay runs engine-vs-engine play on a background goroutine so the UI
// loop never blocks on a search. At most one worker runs at a time.
type SelfPlay struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Start plays moves chosen by adv for both sides until the game ends, ctx is
// cancelled, Stop is called or adv fails. onMove runs after every applied
// move and onDone once with the reason the worker stopped (nil when the game
// ended).
func (sp *SelfPlay) Start(ctx context.Context, m *Match, adv Advisor, onMove func(), onDone func(error)) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.done != nil {
		select {
		case <-sp.done:
		default:
			return ErrSelfPlayRunning
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	sp.cancel, sp.done = cancel, done

	go func() {
		defer close(done)
		defer cancel()
		err := sp.run(ctx, m, adv, onMove)
		if onDone != nil {
			onDone(err)
		}
	}()
	return nil
}

func (sp *SelfPlay) run(ctx context.Context, m *Match, adv Advisor, onMove func()) error {
	for !m.Over() {
		if err := ctx.Err(); err != nil {
			return err
		}
		move, err := adv.Advise(ctx, m.Position())
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Apply(move); err != nil {
			return err
		}
		if onMove != nil {
			onMove()
		}
	}
	return nil
}

// Stop cancels the worker and waits for it to exit.
func (sp *SelfPlay) Stop() {
	sp.mu.Lock()
	cancel, done := sp.cancel, sp.done
	sp.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (sp *SelfPlay) Running() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.done == nil {
		return false
	}
	select {
	case <-sp.done:
		return false
	default:
		return true
	}
}
