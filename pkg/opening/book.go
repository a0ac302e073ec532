// Package opening names the opening of a game from a precomputed book keyed
// by SAN movetext.
package opening

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
	eco "github.com/notnil/chess/opening"
)

// Unknown fills missing ECO or Variation fields.
const Unknown = "?"

var ErrIllegalSequence = errors.New("opening: illegal move sequence")

// Entry is the metadata stored for a book line.
type Entry struct {
	ECO       string
	Variation string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s: %s", e.ECO, e.Variation)
}

// Book maps rendered movetext to opening metadata. It is never written after
// construction, so concurrent Find calls are safe.
type Book struct {
	entries map[string]Entry
}

func NewBook(entries map[string]Entry) *Book {
	b := &Book{entries: make(map[string]Entry, len(entries))}
	for k, v := range entries {
		b.entries[k] = v
	}
	return b
}

func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Lookup returns the entry stored under an already rendered key.
func (b *Book) Lookup(key string) (Entry, bool) {
	if b == nil {
		return Entry{}, false
	}
	e, ok := b.entries[key]
	return e, ok
}

// Find returns the entry for the longest prefix of moves present in the book.
// Moves past the first illegal one are ignored.
func (b *Book) Find(moves []*chess.Move) (Entry, bool) {
	if b.Len() == 0 {
		return Entry{}, false
	}
	tokens, _ := tokenize(moves)
	for n := len(tokens); n > 0; n-- {
		if e, ok := b.entries[strings.Join(tokens[:n], " ")]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

// RenderMoves renders moves played from the standard starting position as
// numbered SAN movetext, e.g. "1. e4 e5 2. Nf3".
func RenderMoves(moves []*chess.Move) (string, error) {
	tokens, err := tokenize(moves)
	if err != nil {
		return "", err
	}
	return strings.Join(tokens, " "), nil
}

// tokenize returns one token per ply. White plies carry the move number.
// On an illegal move it returns the tokens of the legal prefix and an error.
func tokenize(moves []*chess.Move) ([]string, error) {
	pos := chess.NewGame().Position()
	tokens := make([]string, 0, len(moves))
	for i, m := range moves {
		valid := findValid(pos, m)
		if valid == nil {
			return tokens, fmt.Errorf("%w: ply %d (%s)", ErrIllegalSequence, i+1, m)
		}
		san := chess.AlgebraicNotation{}.Encode(pos, valid)
		if pos.Turn() == chess.White {
			san = fmt.Sprintf("%d. %s", i/2+1, san)
		}
		tokens = append(tokens, san)
		pos = pos.Update(valid)
	}
	return tokens, nil
}

// findValid returns the legal move of pos matching m by squares and
// promotion, so the returned move carries the tags SAN encoding needs.
func findValid(pos *chess.Position, m *chess.Move) *chess.Move {
	if m == nil {
		return nil
	}
	for _, v := range pos.ValidMoves() {
		if v.S1() == m.S1() && v.S2() == m.S2() && v.Promo() == m.Promo() {
			return v
		}
	}
	return nil
}

// LoadECO builds a book from the ECO dataset bundled with the rules library.
func LoadECO() (*Book, error) {
	book := eco.NewBookECO()
	entries := make(map[string]Entry)
	for _, o := range book.Possible(nil) {
		g := o.Game()
		if g == nil {
			continue
		}
		key, err := RenderMoves(g.Moves())
		if err != nil || key == "" {
			continue
		}
		entries[key] = Entry{ECO: orUnknown(o.Code()), Variation: orUnknown(o.Title())}
	}
	if len(entries) == 0 {
		return nil, errors.New("opening: bundled ECO book is empty")
	}
	return NewBook(entries), nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}
