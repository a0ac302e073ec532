package gui

import (
	"github.com/notnil/chess"
	"github.com/qnkhuat/chess4fun/pkg/engine"
)

// GameState is the board interaction state that is not part of the game
type GameState struct {
	Selecting bool                  // A piece is picked up
	Selected  chess.Square          // Square of the picked up piece
	Targets   map[chess.Square]bool // Legal destinations of the picked up piece
	Hint      *chess.Move           // Hint when available
	Analysis  *engine.Analysis      // Last engine analysis
	Flip      bool                  // Black at the bottom
	Message   string                // Status line message
}

func (gs *GameState) clearSelection() {
	gs.Selecting = false
	gs.Selected = chess.NoSquare
	gs.Targets = nil
}

// clearPosition drops everything tied to the current position.
func (gs *GameState) clearPosition() {
	gs.clearSelection()
	gs.Hint = nil
	gs.Analysis = nil
}
