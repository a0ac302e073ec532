package gui

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/notnil/chess"
	"github.com/qnkhuat/chess4fun/pkg"
	"github.com/qnkhuat/chess4fun/pkg/config"
	"github.com/qnkhuat/chess4fun/pkg/opening"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, fen string) *Client {
	t.Helper()
	prefs, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return newClientWith(t, prefs, fen)
}

func newClientWith(t *testing.T, prefs *config.Preferences, fen string) *Client {
	t.Helper()
	cl, err := NewClient(Options{Prefs: prefs, FEN: fen}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(cl.shutdown)
	return cl
}

// click presses the board cell showing sq
func click(cl *Client, sq chess.Square) {
	row, col := pkg.PositionOf(sq, cl.state.Flip)
	cl.onSquare(row, col+1)
}

func TestClientBoard(t *testing.T) {
	cl := newTestClient(t, "")

	row, col := pkg.PositionOf(chess.E1, false)
	if got := cl.Board.GetCell(row, col+1).Text; !strings.Contains(got, chess.WhiteKing.String()) {
		t.Errorf("expected the white king on e1, got %q", got)
	}
	if got := cl.Board.GetCell(numrows, 1).Text; got != "a" {
		t.Errorf("expected file label a, got %q", got)
	}

	cl.flip()
	row, col = pkg.PositionOf(chess.E1, true)
	if row != 0 {
		t.Fatalf("flipped board should show rank 1 on top")
	}
	if got := cl.Board.GetCell(row, col+1).Text; !strings.Contains(got, chess.WhiteKing.String()) {
		t.Errorf("expected the white king on the flipped e1, got %q", got)
	}
}

func TestClientClickMove(t *testing.T) {
	cl := newTestClient(t, "")

	// an empty square or an enemy piece does not select
	click(cl, chess.E4)
	click(cl, chess.E7)
	if cl.state.Selecting {
		t.Fatal("nothing should be selected")
	}

	click(cl, chess.E2)
	if !cl.state.Selecting || cl.state.Selected != chess.E2 {
		t.Fatal("e2 should be selected")
	}
	if !cl.state.Targets[chess.E3] || !cl.state.Targets[chess.E4] {
		t.Errorf("expected e3 and e4 as targets, got %v", cl.state.Targets)
	}

	// clicking the selected square again deselects it
	click(cl, chess.E2)
	if cl.state.Selecting {
		t.Fatal("second click on e2 should deselect")
	}

	click(cl, chess.E2)
	click(cl, chess.E4)
	if moves := cl.match.Moves(); len(moves) != 1 || moves[0].S2() != chess.E4 {
		t.Fatalf("expected e2e4 to be played, got %v", moves)
	}
	if cl.state.Selecting {
		t.Error("selection should clear after a move")
	}

	// an illegal destination keeps the game unchanged
	click(cl, chess.D7)
	click(cl, chess.D4)
	if len(cl.match.Moves()) != 1 {
		t.Error("illegal move must not be played")
	}
	if !strings.Contains(cl.state.Message, "illegal") {
		t.Errorf("expected an illegal move message, got %q", cl.state.Message)
	}
}

func TestClientUndoAndSave(t *testing.T) {
	cl := newTestClient(t, "")
	click(cl, chess.G1)
	click(cl, chess.F3)
	cl.undo()
	if len(cl.match.Moves()) != 0 {
		t.Fatal("undo should take back the move")
	}

	click(cl, chess.D2)
	click(cl, chess.D4)
	cl.save()
	if !strings.HasPrefix(cl.state.Message, "saved to ") {
		t.Errorf("unexpected message %q", cl.state.Message)
	}
}

func TestClientEngineSeatBlocksClicks(t *testing.T) {
	cl := newTestClient(t, "")
	cl.match.SetSeat(pkg.White, pkg.Seat{Name: "engine", Kind: pkg.Engine})
	click(cl, chess.E2)
	if cl.state.Selecting {
		t.Error("the human cannot move for an engine seat")
	}
}

// fakeEngine writes a UCI engine script that always answers e2e4
func fakeEngine(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("needs a POSIX shell")
	}
	script := `#!/bin/sh
while read -r line; do
	case "$line" in
	uci) echo "uciok" ;;
	isready) echo "readyok" ;;
	go*) echo "bestmove e2e4" ;;
	quit) exit 0 ;;
	esac
done
`
	path := filepath.Join(t.TempDir(), "fakefish")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClientUndoEngineOpening(t *testing.T) {
	prefs, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	prefs.WhiteEngine = true
	prefs.EnginePath = fakeEngine(t)
	cl := newClientWith(t, prefs, "")

	// the engine opened with e4; undoing it hands the move back to the engine
	if _, err := cl.match.MoveSquares(chess.E2, chess.E4, chess.NoPieceType); err != nil {
		t.Fatal(err)
	}
	cl.undo()
	if len(cl.match.Moves()) != 0 {
		t.Fatalf("expected the opening move to be taken back")
	}
	if !cl.thinking {
		t.Error("the engine should be asked to move again")
	}
}

func TestClientResignAgainstEngine(t *testing.T) {
	cl := newTestClient(t, "")
	cl.match.SetSeat(pkg.White, pkg.Seat{Name: "alice", Kind: pkg.Human})
	cl.match.SetSeat(pkg.Black, pkg.Seat{Name: "engine", Kind: pkg.Engine})
	if _, err := cl.match.MoveSquares(chess.E2, chess.E4, chess.NoPieceType); err != nil {
		t.Fatal(err)
	}

	// black is to move, but only white can resign
	cl.resign()
	if o, method := cl.match.Outcome(); o != chess.BlackWon || method != chess.Resignation {
		t.Errorf("expected the human to lose, got %s %s", o, method)
	}
}

func TestClientResignBetweenHumans(t *testing.T) {
	cl := newTestClient(t, "")
	click(cl, chess.E2)
	click(cl, chess.E4)
	cl.resign()
	if o, _ := cl.match.Outcome(); o != chess.WhiteWon {
		t.Errorf("black was to move and resigned, got %s", o)
	}
}

func TestClientBookPreference(t *testing.T) {
	game := chess.NewGame()
	for _, san := range []string{"e4", "c5"} {
		if err := game.MoveStr(san); err != nil {
			t.Fatal(err)
		}
	}
	key, err := opening.RenderMoves(game.Moves())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "book.db")
	store, err := opening.OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(context.Background(), map[string]opening.Entry{key: {ECO: "B20", Variation: "Sicilian Defense"}}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	cl := newTestClient(t, "")
	cl.prefs.BookPath = path
	cl.applyPreferences()

	click(cl, chess.E2)
	click(cl, chess.E4)
	click(cl, chess.C7)
	click(cl, chess.C5)
	entry, ok := cl.match.Opening()
	if !ok || entry.ECO != "B20" {
		t.Errorf("expected the book from the preferences, got %v %v", entry, ok)
	}
}
