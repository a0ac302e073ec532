package pkg

import (
	"github.com/notnil/chess"
)

type EventKind int

const (
	EventMove EventKind = iota
	EventCapture
	EventCastle
	EventPromote
	EventCheck
	EventGameOver
	EventIllegal
	EventNewGame
	EventUndo
)

func (k EventKind) String() string {
	switch k {
	case EventMove:
		return "move"
	case EventCapture:
		return "capture"
	case EventCastle:
		return "castle"
	case EventPromote:
		return "promote"
	case EventCheck:
		return "check"
	case EventGameOver:
		return "gameover"
	case EventIllegal:
		return "illegal"
	case EventNewGame:
		return "newgame"
	case EventUndo:
		return "undo"
	default:
		return "unknown"
	}
}

// Event reports a change of the match state. Kind is the most significant
// thing that happened, in the order gameover > check > promote > castle >
// capture > move.
type Event struct {
	Kind    EventKind
	Move    *chess.Move
	Outcome chess.Outcome
	Method  chess.Method
}

// classify names the event for move, which has just been played in game.
func classify(game *chess.Game, move *chess.Move) Event {
	ev := Event{Kind: EventMove, Move: move, Outcome: game.Outcome(), Method: game.Method()}
	switch {
	case game.Outcome() != chess.NoOutcome:
		ev.Kind = EventGameOver
	case move.HasTag(chess.Check):
		ev.Kind = EventCheck
	case move.Promo() != chess.NoPieceType:
		ev.Kind = EventPromote
	case move.HasTag(chess.KingSideCastle) || move.HasTag(chess.QueenSideCastle):
		ev.Kind = EventCastle
	case move.HasTag(chess.Capture) || move.HasTag(chess.EnPassant):
		ev.Kind = EventCapture
	}
	return ev
}
