package gui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/notnil/chess"
	"github.com/qnkhuat/chess4fun/pkg"
	"github.com/qnkhuat/chess4fun/pkg/engine"
)

const (
	meterCells   = 10
	visibleMoves = 12
)

// squareBg returns the background of sq. Check beats hint, hint beats
// selection, selection beats the last move highlight.
func squareBg(sq chess.Square, p chess.Piece, gs *GameState, last *chess.Move, checked chess.Color, t Theme) tcell.Color {
	bg := t.SquareDark
	if pkg.IsLight(sq) {
		bg = t.SquareLight
	}
	if last != nil && (last.S1() == sq || last.S2() == sq) {
		bg = t.SquareHigh
	}
	if gs.Targets[sq] {
		bg = t.SquareTarget
	}
	if gs.Selecting && gs.Selected == sq {
		bg = t.SquareSelect
	}
	if gs.Hint != nil && (gs.Hint.S1() == sq || gs.Hint.S2() == sq) {
		bg = t.SquareHint
	}
	if checked != chess.NoColor && p.Type() == chess.King && p.Color() == checked {
		bg = t.SquareCheck
	}
	return bg
}

// pieceFg returns the foreground used for p
func pieceFg(p chess.Piece, t Theme) tcell.Color {
	if p.Color() == chess.White {
		return t.White
	}
	return t.Black
}

// squareText pads a piece glyph to a square cell
func squareText(p chess.Piece) string {
	if p == chess.NoPiece {
		return "   "
	}
	return fmt.Sprintf(" %s ", p.String())
}

// gameMove is used to store intermediate data in moveRows
type gameMove = struct {
	index string
	white string
	black string
}

// moveRows renders the move list as numbered SAN pairs, windowed to the last
// limit pairs.
func moveRows(positions []*chess.Position, moves []*chess.Move, limit int) []string {
	gameMoves := make([]gameMove, 0, len(moves)/2+1)
	var gm gameMove
	open := false
	for i, move := range moves {
		pos := positions[i]
		txt := chess.AlgebraicNotation{}.Encode(pos, move)
		if pos.Turn() == chess.White {
			gm = gameMove{index: fmt.Sprintf("%d.", len(gameMoves)+1), white: txt}
			open = true
			continue
		}
		// a game started from a black-to-move position has no white ply
		if !open {
			gm = gameMove{index: fmt.Sprintf("%d.", len(gameMoves)+1), white: "..."}
		}
		gm.black = txt
		gameMoves = append(gameMoves, gm)
		open = false
	}
	if open {
		gameMoves = append(gameMoves, gm)
	}

	// paginate to the most recent pairs
	moveOffset := 0
	if len(gameMoves) > limit {
		moveOffset = len(gameMoves) - limit
	}
	rows := make([]string, 0, limit)
	for _, m := range gameMoves[moveOffset:] {
		rows = append(rows, strings.TrimRight(fmt.Sprintf("%-4s %-8s %-8s", m.index, m.white, m.black), " "))
	}
	return rows
}

// meter draws the win probability of the side to move as a bar of colored
// blocks.
func meter(cp int, t Theme) string {
	// Round this by 5 because the meter is low resolution and we
	// don't want values like 49.25 showing lower than 50%
	winProb := engine.RoundNearest(engine.WinProb(cp)*100, 5.0)
	color := t.MeterNeutral
	if winProb < 50 {
		color = t.MeterLose
	} else if winProb > 50 {
		color = t.MeterWin
	}
	filled := int(winProb) * meterCells / 100
	var sb strings.Builder
	for i := 0; i < meterCells; i++ {
		c := t.MeterBase
		if i < filled {
			c = color
		}
		sb.WriteString(colorTag(c))
		sb.WriteRune('█')
	}
	sb.WriteString("[-]")
	return sb.String()
}

// colorTag returns a tview color tag for c. Colors without an RGB value,
// like ColorDefault, map to the default foreground.
func colorTag(c tcell.Color) string {
	v := c.Hex()
	if v == -1 {
		return "[-]"
	}
	return fmt.Sprintf("[#%06x]", v)
}

// statusText describes whose turn it is or how the game ended
func statusText(outcome chess.Outcome, method chess.Method, turn pkg.PlayerColor, inCheck bool) string {
	if outcome != chess.NoOutcome {
		return fmt.Sprintf("%s (%s)", outcome, method)
	}
	if inCheck {
		return fmt.Sprintf("%s to move, check!", turn)
	}
	return fmt.Sprintf("%s to move", turn)
}
