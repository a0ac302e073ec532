package pkg

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/notnil/chess"
	"go.uber.org/zap"
)

func getSquare(f chess.File, r chess.Rank) chess.Square {
	return chess.Square((int(r) * 8) + int(f))
}

// SquareAt returns the square shown at a board row/column (0-based, row 0 at
// the top) for the given orientation.
func SquareAt(row, col int, flip bool) chess.Square {
	if flip {
		return getSquare(chess.File(numcols-col-1), chess.Rank(row))
	}
	return getSquare(chess.File(col), chess.Rank(numrows-row-1))
}

// PositionOf is the inverse of SquareAt.
func PositionOf(sq chess.Square, flip bool) (row, col int) {
	if flip {
		return int(sq.Rank()), numcols - int(sq.File()) - 1
	}
	return numrows - int(sq.Rank()) - 1, int(sq.File())
}

// IsLight reports whether sq is a light square.
func IsLight(sq chess.Square) bool {
	return (int(sq.File())+int(sq.Rank()))%2 == 1
}

// GameFromFEN starts a game from a FEN string.
func GameFromFEN(gamefen string) (*chess.Game, error) {
	fen, err := chess.FEN(gamefen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFEN, err)
	}
	return chess.NewGame(fen), nil
}

// InitLog sends logs to dest. The terminal belongs to the UI, so nothing is
// ever logged to stdout or stderr.
func InitLog(dest, prefix string) (*zap.SugaredLogger, error) {
	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("error opening log dir: %w", err)
		}
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{dest}
	cfg.ErrorOutputPaths = []string{dest}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}
	return logger.Named(prefix).Sugar(), nil
}
