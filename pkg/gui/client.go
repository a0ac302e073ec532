// Package gui is the terminal front-end: a mouse driven board, the game side
// panel and the dialogs around them.
package gui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/notnil/chess"
	"github.com/qnkhuat/chess4fun/pkg"
	"github.com/qnkhuat/chess4fun/pkg/config"
	"github.com/qnkhuat/chess4fun/pkg/engine"
	"github.com/qnkhuat/chess4fun/pkg/opening"
	"github.com/qnkhuat/chess4fun/pkg/sound"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	numrows         = 8
	numcols         = 8
	refreshInterval = time.Second
)

type Options struct {
	Prefs *config.Preferences
	Book  *opening.Book
	Sound sound.Player
	// FEN of the starting position; empty for the standard one.
	FEN string
}

type Client struct {
	App       *tview.Application
	Pages     *tview.Pages
	Board     *tview.Table
	Layout    *tview.Grid
	players   *tview.TextView
	status    *tview.TextView
	movesView *tview.TextView
	selfBtn   *tview.Button

	match    *pkg.Match
	prefs    *config.Preferences
	selfPlay pkg.SelfPlay
	theme    Theme
	state    GameState
	bookPath string

	engineMu sync.Mutex
	engine   *engine.Engine

	soundMu sync.Mutex
	sound   sound.Player

	ctx    context.Context
	cancel context.CancelFunc

	// only touched on the UI goroutine
	clicked   bool
	clickDone bool
	thinking  bool
	gen       int

	log *zap.SugaredLogger
}

func NewClient(opts Options, log *zap.SugaredLogger) (*Client, error) {
	theme, err := ThemeByName(opts.Prefs.Theme)
	if err != nil {
		log.Warnw("unknown theme, using basic", "theme", opts.Prefs.Theme)
		theme = ThemeBasic
	}
	snd := opts.Sound
	if snd == nil {
		snd = sound.Mute{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cl := &Client{
		App:    tview.NewApplication(),
		prefs:  opts.Prefs,
		sound:  snd,
		theme:  theme,
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
	cl.state.clearSelection()
	cl.state.Flip = opts.Prefs.FlipBoard
	cl.bookPath = strings.TrimSpace(opts.Prefs.BookPath)

	match, err := pkg.NewMatch(pkg.MatchOptions{
		FEN:   opts.FEN,
		White: cl.seat(pkg.White),
		Black: cl.seat(pkg.Black),
		Book:  opts.Book,
		Sink:  cl.onEvent,
	}, log)
	if err != nil {
		cancel()
		return nil, err
	}
	cl.match = match

	cl.initLayout()
	cl.initTable()
	cl.render()
	return cl, nil
}

// seat builds the seat for c from the preferences
func (cl *Client) seat(c pkg.PlayerColor) pkg.Seat {
	name, isEngine := cl.prefs.WhiteName, cl.prefs.WhiteEngine
	if c == pkg.Black {
		name, isEngine = cl.prefs.BlackName, cl.prefs.BlackEngine
	}
	if isEngine {
		if name == "" && cl.prefs.EnginePath != "" {
			name = filepath.Base(cl.prefs.EnginePath)
		}
		return pkg.NewSeat(name, pkg.Engine)
	}
	return pkg.NewSeat(name, pkg.Human)
}

// onEvent may run on any goroutine
func (cl *Client) onEvent(ev pkg.Event) {
	cl.soundMu.Lock()
	cl.sound.Play(ev)
	cl.soundMu.Unlock()
	if ev.Kind == pkg.EventGameOver {
		cl.log.Infow("game over", "outcome", ev.Outcome, "method", ev.Method)
	}
}

// Run blocks until the UI exits.
func (cl *Client) Run() error {
	go cl.refresh()
	cl.App.QueueUpdateDraw(cl.maybeEngineTurn)
	err := cl.App.SetRoot(cl.Pages, true).EnableMouse(true).Run()
	cl.shutdown()
	return err
}

// Stop ends the UI loop.
func (cl *Client) Stop() {
	cl.App.Stop()
}

func (cl *Client) shutdown() {
	cl.cancel()
	cl.selfPlay.Stop()
	cl.engineMu.Lock()
	if err := cl.engine.Close(); err != nil {
		cl.log.Warnw("failed to close engine", "err", err)
	}
	cl.engine = nil
	cl.engineMu.Unlock()
	cl.soundMu.Lock()
	if err := cl.sound.Close(); err != nil {
		cl.log.Warnw("failed to close sound", "err", err)
	}
	cl.soundMu.Unlock()
}

// refresh redraws the clocks every second
func (cl *Client) refresh() {
	tick := time.NewTicker(refreshInterval)
	defer tick.Stop()
	for {
		select {
		case <-cl.ctx.Done():
			return
		case <-tick.C:
			cl.App.QueueUpdateDraw(cl.renderPlayers)
		}
	}
}

func (cl *Client) initTable() {
	cl.Board.SetSelectable(true, true)
	cl.Board.Select(0, 1).SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape {
			cl.state.clearSelection()
			cl.render()
		}
	}).SetSelectedFunc(func(row, col int) {
		// a click on the selected cell may also fire this
		if cl.clickDone {
			cl.clickDone = false
			return
		}
		cl.onSquare(row, col)
	}).SetSelectionChangedFunc(func(row, col int) {
		if cl.clicked {
			cl.clicked = false
			cl.clickDone = true
			cl.onSquare(row, col)
		}
	})
	cl.Board.SetMouseCapture(func(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
		if action == tview.MouseLeftClick {
			cl.clicked = true
			cl.clickDone = false
		}
		return action, event
	})
	cl.Board.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		cl.clicked = false
		cl.clickDone = false
		return event
	})
}

// RenderTable draws the board
func (cl *Client) RenderTable() {
	pos := cl.match.Position()
	board := pos.Board()
	last := cl.match.LastMove()
	checked := chess.NoColor
	if cl.match.InCheck() {
		checked = pos.Turn()
	}

	for r := 0; r <= numrows; r++ {
		for f := 0; f <= numcols; f++ {
			if f == 0 && r != numrows { // draw rank square
				rank := pkg.SquareAt(r, 0, cl.state.Flip).Rank()
				cell := tview.NewTableCell(rank.String()).
					SetAlign(tview.AlignCenter).
					SetTextColor(cl.theme.Label).
					SetSelectable(false)
				cl.Board.SetCell(r, f, cell)
				continue
			}

			if r == numrows && f > 0 { // draw files square
				file := pkg.SquareAt(0, f-1, cl.state.Flip).File()
				cell := tview.NewTableCell(file.String()).
					SetAlign(tview.AlignCenter).
					SetTextColor(cl.theme.Label).
					SetSelectable(false)
				cl.Board.SetCell(r, f, cell)
				continue
			}

			if r == numrows && f == 0 { // the bottom left tile is not used
				cl.Board.SetCell(r, f, tview.NewTableCell("").SetSelectable(false))
				continue
			}

			sq := pkg.SquareAt(r, f-1, cl.state.Flip)
			p := board.Piece(sq)
			cell := tview.NewTableCell(squareText(p)).
				SetAlign(tview.AlignCenter).
				SetTextColor(pieceFg(p, cl.theme)).
				SetBackgroundColor(squareBg(sq, p, &cl.state, last, checked, cl.theme))
			cl.Board.SetCell(r, f, cell)
		}
	}
}

func (cl *Client) render() {
	cl.RenderTable()
	cl.renderPlayers()
	cl.renderStatus()
	cl.renderMoves()
	if cl.selfPlay.Running() {
		cl.selfBtn.SetLabel(string(pkg.ActionStopSelfPlay))
	} else {
		cl.selfBtn.SetLabel(string(pkg.ActionSelfPlay))
	}
}

func (cl *Client) renderPlayers() {
	var sb strings.Builder
	for _, c := range []pkg.PlayerColor{pkg.Black, pkg.White} {
		seat := cl.match.Seat(c)
		marker := " "
		if cl.match.Turn() == c && !cl.match.Over() {
			marker = "▶"
		}
		fmt.Fprintf(&sb, "%s %s %-16s [::d]%-6s[::-] %s\n", marker, pieceGlyph(c), seat.Name, seat.Kind, cl.match.Clock(c))
	}
	cl.players.SetText(sb.String())
}

func pieceGlyph(c pkg.PlayerColor) string {
	if c == pkg.Black {
		return chess.BlackKing.String()
	}
	return chess.WhiteKing.String()
}

func (cl *Client) renderStatus() {
	outcome, method := cl.match.Outcome()
	var sb strings.Builder
	fmt.Fprintf(&sb, "[::b]%s[::-]\n", statusText(outcome, method, cl.match.Turn(), cl.match.InCheck()))
	if e, ok := cl.match.Opening(); ok {
		fmt.Fprintf(&sb, "%s\n", tview.Escape(e.String()))
	} else {
		sb.WriteString("\n")
	}
	if a := cl.state.Analysis; a != nil {
		fmt.Fprintf(&sb, "%s %s\n", meter(a.CP, cl.theme), a.ScoreString())
	} else {
		sb.WriteString("\n")
	}
	if cl.state.Hint != nil {
		fmt.Fprintf(&sb, "hint: %s\n", cl.state.Hint)
	}
	if cl.state.Message != "" {
		fmt.Fprintf(&sb, "[yellow]%s[-]\n", tview.Escape(cl.state.Message))
	}
	cl.status.SetText(sb.String())
}

func (cl *Client) renderMoves() {
	rows := moveRows(cl.match.Positions(), cl.match.Moves(), visibleMoves)
	cl.movesView.SetText(strings.Join(rows, "\n"))
}

// busy reports whether the board should ignore the human
func (cl *Client) busy() bool {
	if cl.thinking || cl.selfPlay.Running() {
		return true
	}
	return cl.match.Seat(cl.match.Turn()).Kind == pkg.Engine
}

func (cl *Client) onSquare(row, col int) {
	if row < 0 || row >= numrows || col < 1 || col > numcols {
		return
	}
	if cl.match.Over() {
		return
	}
	if cl.busy() {
		cl.state.Message = "waiting for the engine"
		cl.render()
		return
	}

	pos := cl.match.Position()
	sq := pkg.SquareAt(row, col-1, cl.state.Flip)
	p := pos.Board().Piece(sq)
	own := p != chess.NoPiece && p.Color() == pos.Turn()

	if !cl.state.Selecting {
		if own {
			cl.selectSquare(sq)
		}
		cl.render()
		return
	}

	switch {
	case sq == cl.state.Selected: // chose the last square to deactivate
		cl.state.clearSelection()
		cl.render()
	case own: // pick another piece
		cl.selectSquare(sq)
		cl.render()
	default: // choosing destination
		from := cl.state.Selected
		cl.state.clearSelection()
		if cl.match.NeedsPromotion(from, sq) {
			cl.askPromotion(from, sq)
			return
		}
		cl.move(from, sq, chess.NoPieceType)
	}
}

func (cl *Client) selectSquare(sq chess.Square) {
	cl.state.Selecting = true
	cl.state.Selected = sq
	cl.state.Targets = make(map[chess.Square]bool)
	for _, t := range cl.match.ValidTargets(sq) {
		cl.state.Targets[t] = true
	}
	cl.state.Message = ""
}

func (cl *Client) move(from, to chess.Square, promo chess.PieceType) {
	move, err := cl.match.MoveSquares(from, to, promo)
	switch {
	case errors.Is(err, pkg.ErrIllegalMove):
		cl.state.Message = fmt.Sprintf("illegal move %s%s", from, to)
		cl.render()
		return
	case err != nil:
		cl.showError(err)
		return
	}
	cl.log.Infow("move", "move", move.String())
	cl.afterMove()
}

// afterMove resets everything tied to the previous position and hands the
// turn to an engine seat if needed.
func (cl *Client) afterMove() {
	cl.gen++
	cl.state.clearPosition()
	cl.state.Message = ""
	cl.render()
	cl.maybeEngineTurn()
}

func (cl *Client) limit() engine.Limit {
	return engine.Limit{MoveTime: cl.prefs.SearchTime(), Depth: cl.prefs.EngineDepth}
}

// ensureEngine starts the engine on first use.
func (cl *Client) ensureEngine() (*engine.Engine, error) {
	cl.engineMu.Lock()
	defer cl.engineMu.Unlock()
	if cl.engine != nil && cl.engine.Path() == strings.TrimSpace(cl.prefs.EnginePath) {
		return cl.engine, nil
	}
	if cl.engine != nil {
		cl.engine.Close()
		cl.engine = nil
	}
	e, err := engine.New(cl.prefs.EnginePath, cl.log)
	if err != nil {
		return nil, err
	}
	cl.engine = e
	return e, nil
}

// search runs fn on a background goroutine and hands its result to done on
// the UI goroutine, unless the position changed in the meantime.
func (cl *Client) search(label string, fn func(e *engine.Engine, pos *chess.Position) (interface{}, error), done func(interface{})) {
	if cl.thinking || cl.selfPlay.Running() {
		return
	}
	e, err := cl.ensureEngine()
	if err != nil {
		cl.showError(err)
		return
	}
	cl.thinking = true
	cl.state.Message = label
	cl.render()

	gen := cl.gen
	pos := cl.match.Position()
	go func() {
		res, err := fn(e, pos)
		cl.App.QueueUpdateDraw(func() {
			cl.thinking = false
			cl.state.Message = ""
			if gen != cl.gen {
				cl.render()
				return
			}
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					cl.showError(err)
				}
				cl.render()
				return
			}
			done(res)
		})
	}()
}

// maybeEngineTurn lets an engine seat play its move
func (cl *Client) maybeEngineTurn() {
	if cl.match.Over() || cl.selfPlay.Running() {
		return
	}
	if cl.match.Seat(cl.match.Turn()).Kind != pkg.Engine {
		return
	}
	cl.engineMove()
}

func (cl *Client) engineMove() {
	cl.search("engine is thinking...", func(e *engine.Engine, pos *chess.Position) (interface{}, error) {
		return e.Advise(cl.ctx, pos, cl.limit())
	}, func(res interface{}) {
		if err := cl.match.Apply(res.(*chess.Move)); err != nil {
			cl.showError(err)
			return
		}
		cl.afterMove()
	})
}

func (cl *Client) hint() {
	cl.search("looking for a hint...", func(e *engine.Engine, pos *chess.Position) (interface{}, error) {
		return e.Advise(cl.ctx, pos, cl.limit())
	}, func(res interface{}) {
		cl.state.Hint = res.(*chess.Move)
		cl.render()
	})
}

func (cl *Client) analyze() {
	cl.search("analyzing...", func(e *engine.Engine, pos *chess.Position) (interface{}, error) {
		return e.Analyze(cl.ctx, pos, cl.limit())
	}, func(res interface{}) {
		a := res.(engine.Analysis)
		cl.state.Analysis = &a
		cl.render()
	})
}

func (cl *Client) toggleSelfPlay() {
	if cl.selfPlay.Running() {
		cl.selfPlay.Stop()
		cl.state.Message = "self-play stopped"
		cl.render()
		return
	}
	if cl.thinking || cl.match.Over() {
		return
	}
	e, err := cl.ensureEngine()
	if err != nil {
		cl.showError(err)
		return
	}
	cl.state.clearPosition()
	err = cl.selfPlay.Start(cl.ctx, cl.match, engine.WithLimit(e, cl.limit()),
		func() {
			cl.App.QueueUpdateDraw(func() {
				cl.gen++
				cl.state.clearPosition()
				cl.render()
			})
		},
		func(err error) {
			cl.App.QueueUpdateDraw(func() {
				if err != nil && !errors.Is(err, context.Canceled) {
					cl.showError(err)
				}
				cl.render()
			})
		})
	if err != nil {
		cl.showError(err)
		return
	}
	cl.render()
}

func (cl *Client) undo() {
	cl.selfPlay.Stop()
	if err := cl.match.Undo(); err != nil {
		cl.state.Message = err.Error()
		cl.render()
		return
	}
	// take back the engine's reply too so the human is to move
	if cl.match.Seat(cl.match.Turn()).Kind == pkg.Engine && len(cl.match.Moves()) > 0 {
		if err := cl.match.Undo(); err != nil {
			cl.log.Warnw("failed to undo engine move", "err", err)
		}
	}
	cl.gen++
	cl.state.clearPosition()
	cl.render()
	// an engine that opened the game is to move again
	cl.maybeEngineTurn()
}

func (cl *Client) newGame() {
	cl.selfPlay.Stop()
	cl.match.SetSeat(pkg.White, cl.seat(pkg.White))
	cl.match.SetSeat(pkg.Black, cl.seat(pkg.Black))
	if err := cl.match.Reset(); err != nil {
		cl.showError(err)
		return
	}
	cl.afterMove()
}

// resigner is the side giving up: the human seat when only one side is
// human, otherwise the side to move.
func (cl *Client) resigner() pkg.PlayerColor {
	white := cl.match.Seat(pkg.White).Kind == pkg.Human
	black := cl.match.Seat(pkg.Black).Kind == pkg.Human
	switch {
	case white && !black:
		return pkg.White
	case black && !white:
		return pkg.Black
	}
	return cl.match.Turn()
}

func (cl *Client) resign() {
	if err := cl.match.Resign(cl.resigner()); err != nil {
		cl.showError(err)
		return
	}
	cl.selfPlay.Stop()
	cl.render()
}

func (cl *Client) draw() {
	err := cl.match.OfferDraw()
	if errors.Is(err, pkg.ErrDrawDeclined) {
		cl.state.Message = "draw declined"
	} else if err != nil {
		cl.showError(err)
		return
	}
	cl.render()
}

func (cl *Client) save() {
	path, err := cl.match.SaveGame(cl.prefs.GamesDir())
	if err != nil {
		cl.showError(err)
		return
	}
	cl.state.Message = "saved to " + path
	cl.render()
}

func (cl *Client) flip() {
	cl.state.Flip = !cl.state.Flip
	cl.render()
}

// applyPreferences is called after the preferences dialog saved
func (cl *Client) applyPreferences() {
	if t, err := ThemeByName(cl.prefs.Theme); err == nil {
		cl.theme = t
	}
	cl.state.Flip = cl.prefs.FlipBoard
	if path := strings.TrimSpace(cl.prefs.BookPath); path != "" && path != cl.bookPath {
		book, err := opening.LoadFile(cl.ctx, path)
		if err != nil {
			cl.showError(err)
		} else {
			cl.match.SetBook(book)
			cl.bookPath = path
			cl.log.Infow("opening book loaded", "path", path, "entries", book.Len())
		}
	}
	cl.match.SetSeat(pkg.White, cl.seat(pkg.White))
	cl.match.SetSeat(pkg.Black, cl.seat(pkg.Black))
	cl.soundMu.Lock()
	if !cl.prefs.SoundEnabled {
		cl.sound.Close()
		cl.sound = sound.Mute{}
	} else if _, muted := cl.sound.(sound.Mute); muted {
		cl.sound = sound.NewPlayer(cl.prefs.SoundDir, true, cl.log)
	}
	cl.soundMu.Unlock()
	cl.render()
	cl.maybeEngineTurn()
}
