package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/notnil/chess"
	"go.uber.org/zap"
)

func TestWinProb(t *testing.T) {
	if p := WinProb(0); p != 0.5 {
		t.Errorf("expected even odds at cp=0, got %f", p)
	}
	for _, cp := range []int{50, 200, 800} {
		up, down := WinProb(cp), WinProb(-cp)
		if up <= 0.5 || down >= 0.5 {
			t.Errorf("cp=%d: unexpected probabilities %f %f", cp, up, down)
		}
		if math.Abs(up+down-1) > 1e-9 {
			t.Errorf("cp=%d: probabilities are not symmetric: %f + %f", cp, up, down)
		}
	}
	if WinProb(400) <= WinProb(200) {
		t.Error("win probability must grow with the score")
	}
}

func TestRoundNearest(t *testing.T) {
	tests := []struct{ v, step, want float64 }{
		{49.25, 5, 50},
		{47.4, 5, 45},
		{0, 5, 0},
		{99.9, 5, 100},
	}
	for _, tt := range tests {
		if got := RoundNearest(tt.v, tt.step); got != tt.want {
			t.Errorf("RoundNearest(%v, %v) = %v, want %v", tt.v, tt.step, got, tt.want)
		}
	}
}

func TestNewWithoutPath(t *testing.T) {
	if _, err := New("   ", zap.NewNop().Sugar()); !errors.Is(err, ErrNoEngine) {
		t.Errorf("expected ErrNoEngine, got %v", err)
	}
}

func TestAdviseFinishedGame(t *testing.T) {
	// fool's mate, white is mated
	fen, err := chess.FEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	if err != nil {
		t.Fatal(err)
	}
	pos := chess.NewGame(fen).Position()

	e := &Engine{log: zap.NewNop().Sugar()}
	if _, err := e.Advise(context.Background(), pos, Limit{MoveTime: time.Millisecond}); !errors.Is(err, ErrGameOver) {
		t.Errorf("expected ErrGameOver, got %v", err)
	}
}

func TestAdviseNotStarted(t *testing.T) {
	e := &Engine{log: zap.NewNop().Sugar()}
	pos := chess.NewGame().Position()
	if _, err := e.Advise(context.Background(), pos, Limit{}); !errors.Is(err, ErrNoEngine) {
		t.Errorf("expected ErrNoEngine, got %v", err)
	}
}

func TestLimitDefaults(t *testing.T) {
	if cmd := (Limit{}).cmd(); cmd.MoveTime != DefaultMoveTime {
		t.Errorf("expected the default move time, got %s", cmd.MoveTime)
	}
	if cmd := (Limit{Depth: 12}).cmd(); cmd.MoveTime != 0 || cmd.Depth != 12 {
		t.Errorf("a depth limit should not add a move time: %+v", cmd)
	}
}

func TestScoreString(t *testing.T) {
	if s := (Analysis{Mate: 3}).ScoreString(); s != "mate in 3" {
		t.Errorf("unexpected mate string %q", s)
	}
	if s := (Analysis{CP: 0}).ScoreString(); s != "cp=0, pct=50.00" {
		t.Errorf("unexpected score string %q", s)
	}
}

// fakeEngine writes a shell script that speaks enough UCI for the wrapper.
// onGo is the shell run for every "go" command.
func fakeEngine(t *testing.T, onGo string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("needs a POSIX shell")
	}
	script := fmt.Sprintf(`#!/bin/sh
while read -r line; do
	case "$line" in
	uci) echo "id name fakefish"; echo "uciok" ;;
	isready) echo "readyok" ;;
	go*) %s ;;
	quit) exit 0 ;;
	esac
done
`, onGo)
	path := filepath.Join(t.TempDir(), "fakefish")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func startFake(t *testing.T, onGo string) *Engine {
	t.Helper()
	e, err := New(fakeEngine(t, onGo), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("failed to start engine: %s", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestAnalyze(t *testing.T) {
	e := startFake(t, `echo "info depth 5 score cp 34 pv e2e4 e7e5"; echo "bestmove e2e4"`)
	pos := chess.NewGame().Position()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a, err := e.Analyze(ctx, pos, Limit{MoveTime: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("analyze failed: %s", err)
	}
	if a.BestMove == nil || a.BestMove.S1() != chess.E2 || a.BestMove.S2() != chess.E4 {
		t.Errorf("expected e2e4, got %v", a.BestMove)
	}
	if a.CP != 34 || a.Mate != 0 || a.Depth != 5 {
		t.Errorf("unexpected score %+v", a)
	}
	if len(a.PV) != 2 || a.PV[1].S2() != chess.E5 {
		t.Errorf("unexpected principal variation %v", a.PV)
	}

	move, err := WithLimit(e, Limit{Depth: 3}).Advise(ctx, pos)
	if err != nil {
		t.Fatalf("advise failed: %s", err)
	}
	if move.S2() != chess.E4 {
		t.Errorf("expected e2e4, got %s", move)
	}
}

func TestAnalyzeMate(t *testing.T) {
	e := startFake(t, `echo "info depth 9 score mate 2 pv e2e4"; echo "bestmove e2e4"`)
	a, err := e.Analyze(context.Background(), chess.NewGame().Position(), Limit{})
	if err != nil {
		t.Fatalf("analyze failed: %s", err)
	}
	if a.Mate != 2 || a.ScoreString() != "mate in 2" {
		t.Errorf("unexpected mate score %+v", a)
	}
}

func TestAdviseCancelled(t *testing.T) {
	e := startFake(t, `sleep 1; echo "bestmove e2e4"`)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := e.Advise(ctx, chess.NewGame().Position(), Limit{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the deadline to end the wait, got %v", err)
	}

	// the search is still running; closing must not wait for it
	start := time.Now()
	if err := e.Close(); err != nil {
		t.Errorf("close failed: %s", err)
	}
	if d := time.Since(start); d > 500*time.Millisecond {
		t.Errorf("close waited %s for the search", d)
	}
	if _, err := e.Advise(context.Background(), chess.NewGame().Position(), Limit{}); !errors.Is(err, ErrNoEngine) {
		t.Errorf("expected ErrNoEngine after close, got %v", err)
	}
}

func TestClose(t *testing.T) {
	e := startFake(t, `echo "bestmove e2e4"`)
	if err := e.Close(); err != nil {
		t.Logf("close: %s", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if _, err := e.Advise(context.Background(), chess.NewGame().Position(), Limit{}); !errors.Is(err, ErrNoEngine) {
		t.Errorf("expected ErrNoEngine after close, got %v", err)
	}
}
