package gui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/qnkhuat/termchess/pkg/chess"
)

var (
	textLightBg = color.BgYellow
	textDarkBg  = color.BgGreen
	textMarkBg  = map[Mark]color.Attribute{
		MarkLastMove: color.BgHiYellow,
		MarkHint:     color.BgHiCyan,
		MarkSelected: color.BgCyan,
	}
	textCheckBg = color.BgRed
	labelColor  = color.New(color.FgHiBlack)
)

func textStyle(sq chess.Square, marks Marks) *color.Color {
	bg := textDarkBg
	if lightSquare(sq.Coord) {
		bg = textLightBg
	}
	if m, ok := textMarkBg[marks[sq.Coord]]; ok {
		bg = m
	}
	if sq.Piece.Kind == chess.King && sq.Piece.Checked {
		bg = textCheckBg
	}

	fg := color.FgBlack
	if sq.Piece.Side == chess.White && !sq.Piece.Empty() {
		fg = color.FgHiWhite
	}
	return color.New(fg, bg, color.Bold)
}

// RenderText draws b for line mode terminals, from the perspective side.
// Pieces are shown by their FEN letters. Colors are dropped when
// color.NoColor is set.
func RenderText(b *chess.Board, marks Marks) string {
	var sb strings.Builder
	for row := 0; row < numrows; row++ {
		rf := b.RankFileOf(chess.Coordinate{Row: row})
		sb.WriteString(labelColor.Sprintf("%d ", rf.Rank))
		for col := 0; col < numcols; col++ {
			sq, _ := b.SquareAt(chess.Coordinate{Row: row, Col: col})
			sb.WriteString(textStyle(sq, marks).Sprintf(" %c ", sq.Piece.Letter()))
		}
		sb.WriteByte('\n')
	}

	sb.WriteString("  ")
	for col := 0; col < numcols; col++ {
		rf := b.RankFileOf(chess.Coordinate{Row: numrows - 1, Col: col})
		sb.WriteString(labelColor.Sprintf(" %c ", rf.File))
	}
	sb.WriteByte('\n')
	return sb.String()
}

// StatusLine describes whose turn it is, or how the game ended.
func StatusLine(turn chess.Side, status chess.Status, outcome chess.Outcome, over bool) string {
	if over {
		return fmt.Sprintf("Game over: %s", outcome)
	}
	if status == chess.StatusCheck {
		return fmt.Sprintf("%s to move, in check", turn)
	}
	return fmt.Sprintf("%s to move", turn)
}
