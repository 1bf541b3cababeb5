package gui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/qnkhuat/termchess/pkg/chess"
	"github.com/rivo/tview"
)

const (
	numrows = 8
	numcols = 8
)

// Mark is an extra highlight on a square.
type Mark int

const (
	MarkNone Mark = iota
	MarkLastMove
	MarkHint
	MarkSelected
)

type Marks map[chess.Coordinate]Mark

var (
	whiteGlyphs = map[chess.PieceKind]string{
		chess.King: "♔", chess.Queen: "♕", chess.Rook: "♖",
		chess.Bishop: "♗", chess.Knight: "♘", chess.Pawn: "♙",
	}
	blackGlyphs = map[chess.PieceKind]string{
		chess.King: "♚", chess.Queen: "♛", chess.Rook: "♜",
		chess.Bishop: "♝", chess.Knight: "♞", chess.Pawn: "♟",
	}
)

// pieceGlyph returns the unicode symbol of p
func pieceGlyph(p chess.Piece) string {
	if p.Empty() {
		return " "
	}
	if p.Side == chess.White {
		return whiteGlyphs[p.Kind]
	}
	return blackGlyphs[p.Kind]
}

// lightSquare reports whether c is a light square. The top left corner is
// a8 or h1, both light.
func lightSquare(c chess.Coordinate) bool {
	return (c.Row+c.Col)%2 == 0
}

// squareBg returns the theme's color for the square, highlights included
func squareBg(sq chess.Square, marks Marks, t Theme) tcell.Color {
	if sq.Piece.Kind == chess.King && sq.Piece.Checked {
		return t.SquareCheck
	}
	switch marks[sq.Coord] {
	case MarkSelected:
		return t.SquareSel
	case MarkHint:
		return t.SquareHint
	case MarkLastMove:
		return t.SquareHigh
	}
	if lightSquare(sq.Coord) {
		return t.SquareLight
	}
	return t.SquareDark
}

// stylePiece applies the theme's color to a piece based upon its side
func stylePiece(p chess.Piece, t Theme) tcell.Color {
	if p.Side == chess.White {
		return t.White
	}
	return t.Black
}

// CellToCoord maps a table cell to a board coordinate. The first column
// holds the ranks and the last row the files.
func CellToCoord(row, col int) (chess.Coordinate, bool) {
	c := chess.Coordinate{Row: row, Col: col - 1}
	return c, c.Valid()
}

func CoordToCell(c chess.Coordinate) (row, col int) {
	return c.Row, c.Col + 1
}

// RenderTable draws b into table as seen by the board's perspective side.
func RenderTable(table *tview.Table, b *chess.Board, marks Marks, t Theme) {
	for row := 0; row < numrows; row++ {
		rf := b.RankFileOf(chess.Coordinate{Row: row})
		table.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf("%d ", rf.Rank)).
			SetTextColor(t.Rank).
			SetAlign(tview.AlignCenter).
			SetSelectable(false))
	}
	table.SetCell(numrows, 0, tview.NewTableCell("").SetSelectable(false))
	for col := 0; col < numcols; col++ {
		rf := b.RankFileOf(chess.Coordinate{Row: numrows - 1, Col: col})
		table.SetCell(numrows, col+1, tview.NewTableCell(string(rf.File)).
			SetTextColor(t.File).
			SetAlign(tview.AlignCenter).
			SetSelectable(false))
	}

	for _, sq := range b.Squares() {
		row, col := CoordToCell(sq.Coord)
		cell := tview.NewTableCell(fmt.Sprintf(" %s ", pieceGlyph(sq.Piece))).
			SetAlign(tview.AlignCenter).
			SetBackgroundColor(squareBg(sq, marks, t)).
			SetTextColor(stylePiece(sq.Piece, t))
		table.SetCell(row, col, cell)
	}
}

// LastMoveMarks highlights both squares of the last move.
func LastMoveMarks(b *chess.Board, info *chess.MoveInfo) Marks {
	marks := make(Marks)
	if info == nil {
		return marks
	}
	marks[b.CoordOf(info.Move.From)] = MarkLastMove
	marks[b.CoordOf(info.Move.To)] = MarkLastMove
	return marks
}
