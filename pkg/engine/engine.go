// Package engine delegates move selection and evaluation to an external UCI
// engine process.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
	"go.uber.org/zap"
)

const DefaultMoveTime = time.Second

var (
	ErrNoEngine = errors.New("engine: no chess engine configured")
	ErrGameOver = errors.New("engine: game is over")
	ErrNoMove   = errors.New("engine: engine returned no move")
)

// Limit bounds a single search.
type Limit struct {
	MoveTime time.Duration
	Depth    int
}

func (l Limit) cmd() uci.CmdGo {
	cmd := uci.CmdGo{MoveTime: l.MoveTime, Depth: l.Depth}
	if cmd.MoveTime <= 0 && cmd.Depth <= 0 {
		cmd.MoveTime = DefaultMoveTime
	}
	return cmd
}

// Analysis is the engine's view of a position, from the side to move.
type Analysis struct {
	BestMove *chess.Move
	CP       int
	Mate     int
	Depth    int
	PV       []*chess.Move
}

// Engine is one running UCI engine process. Searches are serialized.
type Engine struct {
	searchMu sync.Mutex

	mu   sync.Mutex // guards eng
	eng  *uci.Engine
	path string
	log  *zap.SugaredLogger
}

// New starts the engine at path and runs the UCI handshake.
func New(path string, log *zap.SugaredLogger) (*Engine, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrNoEngine
	}
	eng, err := uci.New(path)
	if err != nil {
		return nil, fmt.Errorf("engine: start %s: %w", path, err)
	}
	if err := eng.Run(uci.CmdUCI, uci.CmdIsReady, uci.CmdUCINewGame); err != nil {
		eng.Close()
		return nil, fmt.Errorf("engine: handshake with %s: %w", path, err)
	}
	log.Infow("engine started", "path", path, "id", eng.ID())
	return &Engine{eng: eng, path: path, log: log}, nil
}

// Path returns the executable the engine was started from.
func (e *Engine) Path() string {
	return e.path
}

// Advise returns the engine's choice of move in pos.
func (e *Engine) Advise(ctx context.Context, pos *chess.Position, limit Limit) (*chess.Move, error) {
	a, err := e.search(ctx, pos, limit)
	if err != nil {
		return nil, err
	}
	return a.BestMove, nil
}

// Analyze searches pos and reports the score alongside the best move.
func (e *Engine) Analyze(ctx context.Context, pos *chess.Position, limit Limit) (Analysis, error) {
	return e.search(ctx, pos, limit)
}

func (e *Engine) search(ctx context.Context, pos *chess.Position, limit Limit) (Analysis, error) {
	if len(pos.ValidMoves()) == 0 {
		return Analysis{}, ErrGameOver
	}
	if e == nil {
		return Analysis{}, ErrNoEngine
	}

	done := make(chan result, 1)
	go func() {
		e.searchMu.Lock()
		e.mu.Lock()
		eng := e.eng
		e.mu.Unlock()
		if eng == nil {
			e.searchMu.Unlock()
			done <- result{err: ErrNoEngine}
			return
		}
		done <- runSearch(eng, pos, limit)

		// Close skips an engine that is searching; the search closes it.
		e.mu.Lock()
		closed := e.eng == nil
		e.searchMu.Unlock()
		e.mu.Unlock()
		if closed {
			if err := eng.Close(); err != nil {
				e.log.Warnw("failed to close engine", "err", err)
			}
		}
	}()

	// The search itself is bounded by limit; on cancellation the caller stops
	// waiting and the next search queues behind the running one.
	select {
	case <-ctx.Done():
		return Analysis{}, ctx.Err()
	case r := <-done:
		if r.err != nil && !errors.Is(r.err, ErrNoEngine) {
			e.log.Warnw("engine search failed", "fen", pos.String(), "err", r.err)
		}
		return r.a, r.err
	}
}

// Close quits the engine and reaps the process. It never waits for a
// running search: that search quits the engine once it returns.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	eng := e.eng
	e.eng = nil
	idle := eng != nil && e.searchMu.TryLock()
	e.mu.Unlock()
	if !idle {
		return nil
	}
	defer e.searchMu.Unlock()
	return eng.Close()
}

type result struct {
	a   Analysis
	err error
}

func runSearch(eng *uci.Engine, pos *chess.Position, limit Limit) result {
	if err := eng.Run(uci.CmdPosition{Position: pos}, limit.cmd()); err != nil {
		return result{err: fmt.Errorf("engine: search: %w", err)}
	}
	res := eng.SearchResults()
	if res.BestMove == nil {
		return result{err: ErrNoMove}
	}
	return result{a: Analysis{
		BestMove: res.BestMove,
		CP:       res.Info.Score.CP,
		Mate:     res.Info.Score.Mate,
		Depth:    res.Info.Depth,
		PV:       res.Info.PV,
	}}
}

// Limited binds an engine to a search limit so it can drive a seat.
type Limited struct {
	*Engine
	Limit Limit
}

func WithLimit(e *Engine, l Limit) *Limited {
	return &Limited{Engine: e, Limit: l}
}

func (l *Limited) Advise(ctx context.Context, pos *chess.Position) (*chess.Move, error) {
	return l.Engine.Advise(ctx, pos, l.Limit)
}

// WinProb converts a centipawn score to a win probability in [0, 1].
func WinProb(cp int) float64 {
	return 1 / (1 + math.Pow(10, -float64(cp)/400))
}

// RoundNearest rounds v to the nearest multiple of step.
func RoundNearest(v, step float64) float64 {
	return math.Round(v/step) * step
}

// ScoreString formats an analysis the way the side panel shows it.
func (a Analysis) ScoreString() string {
	if a.Mate != 0 {
		return fmt.Sprintf("mate in %d", a.Mate)
	}
	return fmt.Sprintf("cp=%d, pct=%.2f", a.CP, WinProb(a.CP)*100)
}
