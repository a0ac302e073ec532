package gui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
	"github.com/qnkhuat/chess4fun/pkg"
	"github.com/rivo/tview"
)

const (
	pageMain        = "main"
	pageModal       = "modal"
	pagePromotion   = "promotion"
	pagePreferences = "preferences"
)

var promotions = []struct {
	label string
	piece chess.PieceType
}{
	{"Queen", chess.Queen},
	{"Rook", chess.Rook},
	{"Bishop", chess.Bishop},
	{"Knight", chess.Knight},
}

func (cl *Client) initLayout() {
	cl.Board = tview.NewTable()
	cl.players = tview.NewTextView().SetDynamicColors(true)
	cl.status = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	cl.movesView = tview.NewTextView().SetDynamicColors(true)
	cl.players.SetBorder(true).SetTitle(" Players ")
	cl.status.SetBorder(true).SetTitle(" Game ")
	cl.movesView.SetBorder(true).SetTitle(" Moves ")

	side := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(cl.players, 4, 0, false).
		AddItem(cl.status, 7, 0, false).
		AddItem(cl.movesView, 0, 1, false)

	cl.selfBtn = tview.NewButton(string(pkg.ActionSelfPlay)).SetSelectedFunc(cl.toggleSelfPlay)
	buttons := []*tview.Button{
		tview.NewButton(string(pkg.ActionNewGame)).SetSelectedFunc(func() {
			cl.confirm(string(pkg.ActionNewGamePrompt), pkg.ActionResignYes, pkg.ActionResignNo, cl.newGame)
		}),
		tview.NewButton(string(pkg.ActionFlip)).SetSelectedFunc(cl.flip),
		tview.NewButton(string(pkg.ActionUndo)).SetSelectedFunc(cl.undo),
		tview.NewButton(string(pkg.ActionHint)).SetSelectedFunc(cl.hint),
		tview.NewButton(string(pkg.ActionAnalyze)).SetSelectedFunc(cl.analyze),
		tview.NewButton(string(pkg.ActionEngineMove)).SetSelectedFunc(cl.engineMove),
		cl.selfBtn,
		tview.NewButton(string(pkg.ActionDrawOffer)).SetSelectedFunc(cl.offerDraw),
		tview.NewButton(string(pkg.ActionResignPrompt)).SetSelectedFunc(func() {
			cl.confirm(string(pkg.ActionResignPrompt)+"?", pkg.ActionResignYes, pkg.ActionResignNo, cl.resign)
		}),
		tview.NewButton(string(pkg.ActionSave)).SetSelectedFunc(cl.save),
		tview.NewButton(string(pkg.ActionPreferences)).SetSelectedFunc(cl.showPreferences),
		tview.NewButton(string(pkg.ActionExit)).SetSelectedFunc(cl.Stop),
	}
	gameOptions := tview.NewFlex().SetDirection(tview.FlexRow)
	for _, b := range buttons {
		gameOptions.AddItem(b, 1, 0, false).AddItem(nil, 1, 0, false)
	}

	cl.Layout = tview.NewGrid().
		SetRows(-1, 30, -1).
		SetColumns(-1, 30, 16, 44, -1).
		AddItem(tview.NewBox(), 0, 0, 3, 1, 0, 0, false).
		AddItem(tview.NewBox(), 0, 4, 3, 1, 0, 0, false).
		AddItem(cl.Board, 1, 1, 1, 1, 0, 0, true).
		AddItem(gameOptions, 1, 2, 1, 1, 0, 0, false).
		AddItem(side, 1, 3, 1, 1, 0, 0, false)

	cl.Pages = tview.NewPages().AddPage(pageMain, cl.Layout, true, true)
}

// showModal shows a dialog over the board. done gets the pressed label, or
// "" when the dialog was escaped.
func (cl *Client) showModal(text string, labels []string, done func(label string)) {
	modal := tview.NewModal().
		SetText(text).
		AddButtons(labels).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			cl.Pages.RemovePage(pageModal)
			cl.App.SetFocus(cl.Board)
			if buttonIndex < 0 {
				buttonLabel = ""
			}
			if done != nil {
				done(buttonLabel)
			}
		})
	cl.Pages.AddPage(pageModal, modal, false, true)
	cl.App.SetFocus(modal)
}

func (cl *Client) showError(err error) {
	cl.log.Warnw("error shown", "err", err)
	cl.showModal(err.Error(), []string{string(pkg.ActionOK)}, nil)
}

func (cl *Client) confirm(text string, yes, no pkg.Action, fn func()) {
	cl.showModal(text, []string{string(yes), string(no)}, func(label string) {
		if label == string(yes) {
			fn()
		}
	})
}

// offerDraw asks the opponent first when both sides are human
func (cl *Client) offerDraw() {
	if cl.match.Seat(pkg.White).Kind == pkg.Human && cl.match.Seat(pkg.Black).Kind == pkg.Human {
		cl.confirm(string(pkg.ActionDrawPrompt), pkg.ActionDrawAccept, pkg.ActionDrawReject, cl.draw)
		return
	}
	cl.draw()
}

// askPromotion lets the human pick the promotion piece
func (cl *Client) askPromotion(from, to chess.Square) {
	labels := make([]string, len(promotions))
	for i, p := range promotions {
		labels[i] = p.label
	}
	modal := tview.NewModal().
		SetText(fmt.Sprintf("Promote %s%s to", from, to)).
		AddButtons(labels).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			cl.Pages.RemovePage(pagePromotion)
			cl.App.SetFocus(cl.Board)
			if buttonIndex < 0 || buttonIndex >= len(promotions) {
				cl.render()
				return
			}
			cl.move(from, to, promotions[buttonIndex].piece)
		})
	cl.Pages.AddPage(pagePromotion, modal, false, true)
	cl.App.SetFocus(modal)
}

// showPreferences edits a copy of the preferences and saves it on submit
func (cl *Client) showPreferences() {
	p := *cl.prefs
	themeNames := ThemeNames()
	themeIdx := 0
	for i, name := range themeNames {
		if name == p.Theme {
			themeIdx = i
		}
	}
	searchTime := strconv.FormatFloat(p.EngineSearchTime, 'f', -1, 64)
	depth := strconv.Itoa(p.EngineDepth)

	closeForm := func() {
		cl.Pages.RemovePage(pagePreferences)
		cl.App.SetFocus(cl.Board)
	}

	form := tview.NewForm()
	form.AddInputField("Engine path", p.EnginePath, 40, nil, func(text string) { p.EnginePath = strings.TrimSpace(text) }).
		AddInputField("Search time (s)", searchTime, 8, tview.InputFieldFloat, func(text string) { searchTime = text }).
		AddInputField("Search depth", depth, 8, tview.InputFieldInteger, func(text string) { depth = text }).
		AddCheckbox("White is engine", p.WhiteEngine, func(checked bool) { p.WhiteEngine = checked }).
		AddCheckbox("Black is engine", p.BlackEngine, func(checked bool) { p.BlackEngine = checked }).
		AddInputField("White name", p.WhiteName, 20, nil, func(text string) { p.WhiteName = text }).
		AddInputField("Black name", p.BlackName, 20, nil, func(text string) { p.BlackName = text }).
		AddCheckbox("Sound", p.SoundEnabled, func(checked bool) { p.SoundEnabled = checked }).
		AddInputField("Sound dir", p.SoundDir, 40, nil, func(text string) { p.SoundDir = text }).
		AddInputField("Opening book", p.BookPath, 40, nil, func(text string) { p.BookPath = strings.TrimSpace(text) }).
		AddDropDown("Theme", themeNames, themeIdx, func(option string, _ int) { p.Theme = option }).
		AddCheckbox("Flip board", p.FlipBoard, func(checked bool) { p.FlipBoard = checked }).
		AddButton("Save", func() {
			if v, err := strconv.ParseFloat(searchTime, 64); err == nil && v > 0 {
				p.EngineSearchTime = v
			}
			if v, err := strconv.Atoi(depth); err == nil && v >= 0 {
				p.EngineDepth = v
			}
			*cl.prefs = p
			closeForm()
			if err := cl.prefs.Save(); err != nil {
				cl.showError(err)
			}
			cl.applyPreferences()
		}).
		AddButton("Cancel", closeForm)
	form.SetBorder(true).SetTitle(" Preferences ")

	cl.Pages.AddPage(pagePreferences, centered(form, 64, 31), true, true)
	cl.App.SetFocus(form)
}

// centered wraps p in a box of the given size in the middle of the screen
func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}
