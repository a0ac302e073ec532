package pkg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"
	"github.com/qnkhuat/chess4fun/pkg/opening"
	"go.uber.org/zap"
)

const (
	numrows = 8
	numcols = 8
)

var (
	ErrIllegalMove       = errors.New("illegal move")
	ErrPromotionRequired = errors.New("promotion piece required")
	ErrGameOver          = errors.New("game is over")
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrDrawDeclined      = errors.New("draw declined")
	ErrBadFEN            = errors.New("invalid FEN")
)

// Match is one game session: the game, its seats and clocks. All methods are
// safe for concurrent use; events are delivered after the lock is released.
type Match struct {
	mu       sync.RWMutex
	game     *chess.Game
	startFEN string
	seats    [2]Seat
	clocks   [2]*Clock
	book     *opening.Book
	sink     func(Event)
	started  time.Time
	log      *zap.SugaredLogger
}

type MatchOptions struct {
	// FEN of the starting position; empty for the standard one.
	FEN   string
	White Seat
	Black Seat
	Book  *opening.Book
	Sink  func(Event)
}

func NewMatch(opts MatchOptions, log *zap.SugaredLogger) (*Match, error) {
	m := &Match{
		startFEN: opts.FEN,
		seats:    [2]Seat{opts.White, opts.Black},
		clocks:   [2]*Clock{NewClock(), NewClock()},
		book:     opts.Book,
		sink:     opts.Sink,
		log:      log,
	}
	game, err := m.newGame()
	if err != nil {
		return nil, err
	}
	m.game = game
	m.started = time.Now()
	m.clocks[ColorOf(game.Position().Turn())].Start()
	return m, nil
}

func (m *Match) newGame() (*chess.Game, error) {
	if m.startFEN == "" {
		return chess.NewGame(), nil
	}
	return GameFromFEN(m.startFEN)
}

func (m *Match) emit(evs ...Event) {
	if m.sink == nil {
		return
	}
	for _, ev := range evs {
		m.sink(ev)
	}
}

// SetSink replaces the event consumer.
func (m *Match) SetSink(sink func(Event)) {
	m.mu.Lock()
	m.sink = sink
	m.mu.Unlock()
}

// SetBook replaces the opening book used by Opening.
func (m *Match) SetBook(book *opening.Book) {
	m.mu.Lock()
	m.book = book
	m.mu.Unlock()
}

func (m *Match) Seat(c PlayerColor) Seat {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seats[c]
}

func (m *Match) SetSeat(c PlayerColor, s Seat) {
	m.mu.Lock()
	m.seats[c] = s
	m.mu.Unlock()
}

func (m *Match) Clock(c PlayerColor) *Clock {
	return m.clocks[c]
}

// Position returns the current position. Positions are immutable.
func (m *Match) Position() *chess.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.game.Position()
}

func (m *Match) Turn() PlayerColor {
	return ColorOf(m.Position().Turn())
}

func (m *Match) Moves() []*chess.Move {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*chess.Move(nil), m.game.Moves()...)
}

// Positions returns every position of the game, starting position first.
func (m *Match) Positions() []*chess.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*chess.Position(nil), m.game.Positions()...)
}

func (m *Match) Outcome() (chess.Outcome, chess.Method) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.game.Outcome(), m.game.Method()
}

func (m *Match) Over() bool {
	o, _ := m.Outcome()
	return o != chess.NoOutcome
}

// InCheck reports whether the side to move is in check.
func (m *Match) InCheck() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	moves := m.game.Moves()
	if len(moves) == 0 {
		return false
	}
	return moves[len(moves)-1].HasTag(chess.Check)
}

// LastMove returns the last move played or nil.
func (m *Match) LastMove() *chess.Move {
	m.mu.RLock()
	defer m.mu.RUnlock()
	moves := m.game.Moves()
	if len(moves) == 0 {
		return nil
	}
	return moves[len(moves)-1]
}

// ValidTargets lists the destination squares of the legal moves from sq.
func (m *Match) ValidTargets(sq chess.Square) []chess.Square {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[chess.Square]bool)
	targets := make([]chess.Square, 0)
	for _, mv := range m.game.ValidMoves() {
		if mv.S1() == sq && !seen[mv.S2()] {
			seen[mv.S2()] = true
			targets = append(targets, mv.S2())
		}
	}
	return targets
}

// NeedsPromotion reports whether moving from -> to is a legal promotion.
func (m *Match) NeedsPromotion(from, to chess.Square) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mv := range m.game.ValidMoves() {
		if mv.S1() == from && mv.S2() == to && mv.Promo() != chess.NoPieceType {
			return true
		}
	}
	return false
}

// MoveSquares plays the legal move from -> to. promo picks the promotion
// piece; it must be set when the move promotes.
func (m *Match) MoveSquares(from, to chess.Square, promo chess.PieceType) (*chess.Move, error) {
	m.mu.Lock()
	if m.game.Outcome() != chess.NoOutcome {
		m.mu.Unlock()
		return nil, ErrGameOver
	}

	var candidates []*chess.Move
	for _, mv := range m.game.ValidMoves() {
		if mv.S1() == from && mv.S2() == to {
			candidates = append(candidates, mv)
		}
	}
	if len(candidates) == 0 {
		m.mu.Unlock()
		m.log.Infow("illegal move", "from", from, "to", to)
		m.emit(Event{Kind: EventIllegal})
		return nil, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}

	var move *chess.Move
	for _, mv := range candidates {
		if mv.Promo() == promo {
			move = mv
			break
		}
	}
	if move == nil {
		m.mu.Unlock()
		if promo == chess.NoPieceType {
			return nil, ErrPromotionRequired
		}
		m.emit(Event{Kind: EventIllegal})
		return nil, fmt.Errorf("%w: %s%s%s", ErrIllegalMove, from, to, promo)
	}

	ev, err := m.play(move)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	m.emit(ev)
	return move, nil
}

// Apply plays move, which may come from an engine and so may lack tags. The
// move is matched against the legal moves by squares and promotion.
func (m *Match) Apply(move *chess.Move) error {
	if move == nil {
		return ErrIllegalMove
	}
	m.mu.Lock()
	if m.game.Outcome() != chess.NoOutcome {
		m.mu.Unlock()
		return ErrGameOver
	}
	valid := findValid(m.game, move)
	if valid == nil {
		m.mu.Unlock()
		m.emit(Event{Kind: EventIllegal})
		return fmt.Errorf("%w: %s", ErrIllegalMove, move)
	}
	ev, err := m.play(valid)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.emit(ev)
	return nil
}

// play must be called with the lock held.
func (m *Match) play(move *chess.Move) (Event, error) {
	mover := ColorOf(m.game.Position().Turn())
	if err := m.game.Move(move); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	m.clocks[mover].Pause()
	ev := classify(m.game, move)
	if ev.Kind != EventGameOver {
		m.clocks[mover.Other()].Start()
	} else {
		m.clocks[mover.Other()].Pause()
		m.log.Infow("game over", "outcome", ev.Outcome, "method", ev.Method)
	}
	m.log.Debugw("move", "color", mover, "move", move.String(), "event", ev.Kind)
	return ev, nil
}

func findValid(game *chess.Game, move *chess.Move) *chess.Move {
	for _, mv := range game.ValidMoves() {
		if mv.S1() == move.S1() && mv.S2() == move.S2() && mv.Promo() == move.Promo() {
			return mv
		}
	}
	return nil
}

// Undo takes back the last ply by replaying the game without it.
func (m *Match) Undo() error {
	m.mu.Lock()
	if err := m.undo(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()
	m.emit(Event{Kind: EventUndo})
	return nil
}

func (m *Match) undo() error {
	moves := m.game.Moves()
	if len(moves) == 0 {
		return ErrNothingToUndo
	}
	game, err := m.newGame()
	if err != nil {
		return err
	}
	for _, mv := range moves[:len(moves)-1] {
		valid := findValid(game, mv)
		if valid == nil {
			return fmt.Errorf("%w: replaying %s", ErrIllegalMove, mv)
		}
		if err := game.Move(valid); err != nil {
			return err
		}
	}
	m.game = game
	turn := ColorOf(game.Position().Turn())
	m.clocks[turn.Other()].Pause()
	m.clocks[turn].Start()
	return nil
}

// Reset starts a new game from the match's starting position.
func (m *Match) Reset() error {
	m.mu.Lock()
	game, err := m.newGame()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.game = game
	m.started = time.Now()
	for _, cl := range m.clocks {
		cl.Reset()
	}
	m.clocks[ColorOf(game.Position().Turn())].Start()
	m.mu.Unlock()
	m.emit(Event{Kind: EventNewGame})
	return nil
}

// Resign resigns the game for c, whoever is to move.
func (m *Match) Resign(c PlayerColor) error {
	m.mu.Lock()
	if m.game.Outcome() != chess.NoOutcome {
		m.mu.Unlock()
		return ErrGameOver
	}
	resigner := chess.White
	if c == Black {
		resigner = chess.Black
	}
	m.game.Resign(resigner)
	ev := m.finished()
	m.mu.Unlock()
	m.emit(ev)
	return nil
}

// OfferDraw claims a draw the rules allow (threefold repetition, fifty-move
// rule). Without one, a draw offer is accepted only when both seats are human.
func (m *Match) OfferDraw() error {
	m.mu.Lock()
	if m.game.Outcome() != chess.NoOutcome {
		m.mu.Unlock()
		return ErrGameOver
	}
	method := chess.NoMethod
	for _, d := range m.game.EligibleDraws() {
		if d != chess.DrawOffer {
			method = d
			break
		}
	}
	if method == chess.NoMethod {
		if m.seats[White].Kind != Human || m.seats[Black].Kind != Human {
			m.mu.Unlock()
			return ErrDrawDeclined
		}
		method = chess.DrawOffer
	}
	if err := m.game.Draw(method); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrDrawDeclined, err)
	}
	ev := m.finished()
	m.mu.Unlock()
	m.emit(ev)
	return nil
}

func (m *Match) finished() Event {
	for _, cl := range m.clocks {
		cl.Pause()
	}
	m.log.Infow("game over", "outcome", m.game.Outcome(), "method", m.game.Method())
	return Event{Kind: EventGameOver, Outcome: m.game.Outcome(), Method: m.game.Method()}
}

// Opening names the opening reached so far.
func (m *Match) Opening() (opening.Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.book == nil || m.startFEN != "" {
		return opening.Entry{}, false
	}
	return m.book.Find(m.game.Moves())
}

// PGN renders the game with its tag pairs.
func (m *Match) PGN() string {
	eco, hasOpening := m.Opening()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.game.AddTagPair("Event", "chess4fun")
	m.game.AddTagPair("Date", m.started.Format("2006.01.02"))
	m.game.AddTagPair("White", m.seats[White].Name)
	m.game.AddTagPair("Black", m.seats[Black].Name)
	m.game.AddTagPair("Result", string(m.game.Outcome()))
	if hasOpening {
		m.game.AddTagPair("ECO", eco.ECO)
		m.game.AddTagPair("Opening", eco.Variation)
	}
	if m.startFEN != "" {
		m.game.AddTagPair("SetUp", "1")
		m.game.AddTagPair("FEN", m.startFEN)
	}
	return m.game.String()
}

// SaveGame writes the game as PGN into dir and returns the file path.
func (m *Match) SaveGame(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create games dir: %w", err)
	}
	path := filepath.Join(dir, uuid.NewString()+".pgn")
	if err := os.WriteFile(path, []byte(m.PGN()), 0644); err != nil {
		return "", fmt.Errorf("write game: %w", err)
	}
	m.log.Infow("game saved", "path", path)
	return path, nil
}
