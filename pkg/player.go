package pkg

import (
	"context"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/notnil/chess"
)

type PlayerColor int

const (
	White PlayerColor = iota
	Black
)

func (pc PlayerColor) String() string {
	switch pc {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "Unknown"
	}
}

// ColorOf converts a rules-library color.
func ColorOf(c chess.Color) PlayerColor {
	if c == chess.Black {
		return Black
	}
	return White
}

func (pc PlayerColor) Other() PlayerColor {
	return 1 - pc
}

type PlayerKind int

const (
	Human PlayerKind = iota
	Engine
)

func (k PlayerKind) String() string {
	if k == Engine {
		return "Engine"
	}
	return "Human"
}

// Seat is one side of the board.
type Seat struct {
	Name string
	Kind PlayerKind
}

// Advisor picks a move for the side to move.
type Advisor interface {
	Advise(ctx context.Context, pos *chess.Position) (*chess.Move, error)
}

// NewSeat fills an empty name with a generated one.
func NewSeat(name string, kind PlayerKind) Seat {
	if name == "" {
		name = petname.Generate(2, "-")
	}
	return Seat{Name: name, Kind: kind}
}
