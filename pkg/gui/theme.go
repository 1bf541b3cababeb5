package gui

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Terminal safe color palette is available here
// Themes should be limited to the colors defined in this reference
// https://upload.wikimedia.org/wikipedia/commons/1/15/Xterm_256color_chart.svg

// Theme is used for dynamically coloring the UI
type Theme struct {
	Name        string      `json:"name"`
	MoveLabelBg tcell.Color `json:"moveLabelBg"`
	MoveLabelFg tcell.Color `json:"moveLabelFg"`
	SquareDark  tcell.Color `json:"squareDark"`
	SquareLight tcell.Color `json:"squareLight"`
	SquareHigh  tcell.Color `json:"squareHigh"`
	SquareHint  tcell.Color `json:"squareHint"`
	SquareCheck tcell.Color `json:"squareCheck"`
	SquareSel   tcell.Color `json:"squareSel"`
	White       tcell.Color `json:"white"`
	Black       tcell.Color `json:"black"`
	Msg         tcell.Color `json:"msg"`
	Rank        tcell.Color `json:"rank"`
	File        tcell.Color `json:"file"`
}

// ThemeHex is the form of a Theme stored in config files
type ThemeHex struct {
	Name        string `json:"name"`
	MoveLabelBg string `json:"moveLabelBg"`
	MoveLabelFg string `json:"moveLabelFg"`
	SquareDark  string `json:"squareDark"`
	SquareLight string `json:"squareLight"`
	SquareHigh  string `json:"squareHigh"`
	SquareHint  string `json:"squareHint"`
	SquareCheck string `json:"squareCheck"`
	SquareSel   string `json:"squareSel"`
	White       string `json:"white"`
	Black       string `json:"black"`
	Msg         string `json:"msg"`
	Rank        string `json:"rank"`
	File        string `json:"file"`
}

// fmtHex returns a one character hex for ColorDefault so that it survives
// a round trip instead of being read back as black
func fmtHex(v int32) string {
	if v == -1 {
		return "#0"
	}
	return fmt.Sprintf("#%06x", v)
}

// Hex converts a Theme to a ThemeHex
func (t Theme) Hex() ThemeHex {
	return ThemeHex{
		Name:        t.Name,
		MoveLabelBg: fmtHex(t.MoveLabelBg.Hex()),
		MoveLabelFg: fmtHex(t.MoveLabelFg.Hex()),
		SquareDark:  fmtHex(t.SquareDark.Hex()),
		SquareLight: fmtHex(t.SquareLight.Hex()),
		SquareHigh:  fmtHex(t.SquareHigh.Hex()),
		SquareHint:  fmtHex(t.SquareHint.Hex()),
		SquareCheck: fmtHex(t.SquareCheck.Hex()),
		SquareSel:   fmtHex(t.SquareSel.Hex()),
		White:       fmtHex(t.White.Hex()),
		Black:       fmtHex(t.Black.Hex()),
		Msg:         fmtHex(t.Msg.Hex()),
		Rank:        fmtHex(t.Rank.Hex()),
		File:        fmtHex(t.File.Hex()),
	}
}

// Theme converts a ThemeHex to a Theme
func (t ThemeHex) Theme() Theme {
	return Theme{
		Name:        t.Name,
		MoveLabelBg: tcell.GetColor(t.MoveLabelBg),
		MoveLabelFg: tcell.GetColor(t.MoveLabelFg),
		SquareDark:  tcell.GetColor(t.SquareDark),
		SquareLight: tcell.GetColor(t.SquareLight),
		SquareHigh:  tcell.GetColor(t.SquareHigh),
		SquareHint:  tcell.GetColor(t.SquareHint),
		SquareCheck: tcell.GetColor(t.SquareCheck),
		SquareSel:   tcell.GetColor(t.SquareSel),
		White:       tcell.GetColor(t.White),
		Black:       tcell.GetColor(t.Black),
		Msg:         tcell.GetColor(t.Msg),
		Rank:        tcell.GetColor(t.Rank),
		File:        tcell.GetColor(t.File),
	}
}

var ErrNoTheme = errors.New("theme: no theme found")

// ImportThemes returns the theme named want, looking first in themes and
// then in the built in ones
func ImportThemes(want string, themes []ThemeHex) (Theme, error) {
	for _, t := range themes {
		if t.Name == want {
			return t.Theme(), nil
		}
	}
	for _, t := range Themes {
		if t.Name == want {
			return t, nil
		}
	}
	return Theme{}, ErrNoTheme
}

// ThemeBasic is the default theme
var ThemeBasic = Theme{
	Name:        "basic",
	MoveLabelBg: tcell.Color252,
	MoveLabelFg: tcell.ColorBlack,
	SquareDark:  tcell.Color188,
	SquareLight: tcell.Color230,
	SquareHigh:  tcell.Color226,
	SquareHint:  tcell.Color223,
	SquareCheck: tcell.Color218,
	SquareSel:   tcell.Color117,
	White:       tcell.Color232,
	Black:       tcell.Color232,
	Msg:         tcell.Color160,
	Rank:        tcell.Color247,
	File:        tcell.Color247,
}

// ThemeGreen mimics a tournament board
var ThemeGreen = Theme{
	Name:        "green",
	MoveLabelBg: tcell.Color22,
	MoveLabelFg: tcell.Color255,
	SquareDark:  tcell.Color65,
	SquareLight: tcell.Color187,
	SquareHigh:  tcell.Color185,
	SquareHint:  tcell.Color150,
	SquareCheck: tcell.Color167,
	SquareSel:   tcell.Color110,
	White:       tcell.Color255,
	Black:       tcell.Color232,
	Msg:         tcell.Color203,
	Rank:        tcell.Color108,
	File:        tcell.Color108,
}

var Themes = []Theme{ThemeBasic, ThemeGreen}
