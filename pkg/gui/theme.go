package gui

import (
	"errors"
	"sort"

	"github.com/gdamore/tcell/v2"
)

// Terminal safe color palette is available here
// Themes should be limited to the colors defined in this reference
// https://upload.wikimedia.org/wikipedia/commons/1/15/Xterm_256color_chart.svg

// Theme is used for dynamically coloring the UI
type Theme struct {
	Name         string
	SquareDark   tcell.Color
	SquareLight  tcell.Color
	SquareHigh   tcell.Color // last move
	SquareHint   tcell.Color
	SquareCheck  tcell.Color
	SquareSelect tcell.Color
	SquareTarget tcell.Color
	White        tcell.Color
	Black        tcell.Color
	Label        tcell.Color
	MeterBase    tcell.Color
	MeterNeutral tcell.Color
	MeterWin     tcell.Color
	MeterLose    tcell.Color
}

// ThemeBasic is the default theme
var ThemeBasic = Theme{
	"basic",        // Name
	tcell.Color188, // SquareDark
	tcell.Color230, // SquareLight
	tcell.Color226, // SquareHigh
	tcell.Color223, // SquareHint
	tcell.Color218, // SquareCheck
	tcell.Color117, // SquareSelect
	tcell.Color151, // SquareTarget
	tcell.Color232, // White
	tcell.Color232, // Black
	tcell.Color247, // Label
	tcell.Color240, // MeterBase
	tcell.Color45,  // MeterNeutral
	tcell.Color122, // MeterWin
	tcell.Color167, // MeterLose
}

// ThemeClassic uses the green/cream board of the old client
var ThemeClassic = Theme{
	"classic",        // Name
	tcell.Color65,    // SquareDark
	tcell.Color187,   // SquareLight
	tcell.Color179,   // SquareHigh
	tcell.Color110,   // SquareHint
	tcell.Color167,   // SquareCheck
	tcell.Color75,    // SquareSelect
	tcell.Color108,   // SquareTarget
	tcell.ColorWhite, // White
	tcell.ColorBlack, // Black
	tcell.Color247,   // Label
	tcell.Color240,   // MeterBase
	tcell.Color45,    // MeterNeutral
	tcell.Color122,   // MeterWin
	tcell.Color167,   // MeterLose
}

var themes = map[string]Theme{
	ThemeBasic.Name:   ThemeBasic,
	ThemeClassic.Name: ThemeClassic,
}

// ThemeNames lists the selectable themes in a stable order.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemeByName returns the theme called want.
func ThemeByName(want string) (Theme, error) {
	if t, ok := themes[want]; ok {
		return t, nil
	}
	return Theme{}, errors.New("theme: no theme found")
}
