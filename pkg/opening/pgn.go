package opening

import (
	"fmt"
	"io"

	"github.com/notnil/chess"
)

// ReadPGN converts an ECO PGN collection (such as scideco.pgn produced by
// eco2pgn.py from Scid's scid.eco) into book entries. Each game's mainline is
// the key, its ECO and Variation tag pairs the value. Later duplicates win.
func ReadPGN(r io.Reader) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	scanner := chess.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		game := scanner.Next()
		key, err := RenderMoves(game.Moves())
		if err != nil {
			return nil, fmt.Errorf("opening: game %d: %w", n, err)
		}
		if key == "" {
			continue
		}
		entries[key] = Entry{
			ECO:       tagOrUnknown(game, "ECO"),
			Variation: tagOrUnknown(game, "Variation"),
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("opening: read pgn: %w", err)
	}
	return entries, nil
}

func tagOrUnknown(g *chess.Game, key string) string {
	tp := g.GetTagPair(key)
	if tp == nil {
		return Unknown
	}
	return orUnknown(tp.Value)
}
