package pkg

import (
	"path/filepath"
	"testing"

	"github.com/notnil/chess"
)

func TestSquareAt(t *testing.T) {
	tests := []struct {
		row, col int
		flip     bool
		want     chess.Square
	}{
		{0, 0, false, chess.A8},
		{7, 0, false, chess.A1},
		{7, 7, false, chess.H1},
		{0, 0, true, chess.H1},
		{7, 7, true, chess.A8},
	}
	for _, tc := range tests {
		if got := SquareAt(tc.row, tc.col, tc.flip); got != tc.want {
			t.Errorf("SquareAt(%d, %d, %v) = %s, want %s", tc.row, tc.col, tc.flip, got, tc.want)
		}
	}

	for _, flip := range []bool{false, true} {
		for sq := chess.A1; sq <= chess.H8; sq++ {
			row, col := PositionOf(sq, flip)
			if got := SquareAt(row, col, flip); got != sq {
				t.Errorf("round trip of %s (flip %v) gave %s", sq, flip, got)
			}
		}
	}
}

func TestIsLight(t *testing.T) {
	if IsLight(chess.A1) || IsLight(chess.H8) {
		t.Error("a1 and h8 are dark")
	}
	if !IsLight(chess.H1) || !IsLight(chess.A8) {
		t.Error("h1 and a8 are light")
	}
}

func TestInitLog(t *testing.T) {
	log, err := InitLog(filepath.Join(t.TempDir(), "logs", "log"), "test")
	if err != nil {
		t.Fatal(err)
	}
	log.Infow("hello", "k", 1)
	_ = log.Sync()
}
