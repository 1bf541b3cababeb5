package chess

import (
	"strings"
)

type Piece struct {
	Kind PieceKind `json:"kind"`
	Side Side      `json:"side"`
	// Moved is set on the first successful move and never cleared.
	Moved bool `json:"moved"`
	// Checked is recomputed on every check detection pass.
	Checked bool `json:"checked"`
	// At mirrors the coordinate of the square holding the piece.
	At Coordinate `json:"at"`
}

func NewPiece(kind PieceKind, side Side) Piece {
	return Piece{Kind: kind, Side: side}
}

func (p Piece) Empty() bool {
	return p.Kind == NoKind
}

// Letter is the FEN letter of the piece: upper case for White.
func (p Piece) Letter() byte {
	if p.Empty() {
		return '.'
	}
	c := p.Kind.Letter()
	if p.Side == Black {
		c = lower(c)
	}
	return c
}

func (p Piece) String() string {
	if p.Empty() {
		return "-"
	}
	return p.Side.String() + " " + p.Kind.String()
}

type Square struct {
	Coord    Coordinate `json:"coord"`
	RankFile RankFile   `json:"rankfile"`
	Piece    Piece      `json:"piece"`
}

func (s Square) Empty() bool {
	return s.Piece.Empty()
}

// EnPassant records the pawn that just advanced two squares and the square
// it passed over. It lives for exactly one half-move.
type EnPassant struct {
	Active bool
	Pawn   Coordinate
	Target Coordinate
}

// Board is an 8x8 arena of squares. It holds no pointers, so copying the
// value yields a fully independent board.
type Board struct {
	perspective Side
	squares     [numOfSquaresInBoard]Square
	enPassant   EnPassant
}

// NewBoard returns an empty board. The perspective side is drawn at the
// bottom: row 7 is its first rank.
func NewBoard(perspective Side) *Board {
	b := &Board{perspective: perspective}
	for row := 0; row < numrows; row++ {
		for col := 0; col < numcols; col++ {
			c := Coordinate{Row: row, Col: col}
			b.squares[c.index()] = Square{Coord: c, RankFile: b.RankFileOf(c)}
		}
	}
	return b
}

var backRank = [numcols]PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewStandardBoard returns a board in the initial position.
func NewStandardBoard(perspective Side) *Board {
	b := NewBoard(perspective)
	for i, kind := range backRank {
		file := byte('a' + i)
		b.placeAt(NewPiece(kind, White), RankFile{File: file, Rank: 1})
		b.placeAt(NewPiece(Pawn, White), RankFile{File: file, Rank: 2})
		b.placeAt(NewPiece(Pawn, Black), RankFile{File: file, Rank: 7})
		b.placeAt(NewPiece(kind, Black), RankFile{File: file, Rank: 8})
	}
	return b
}

func (b *Board) placeAt(p Piece, rf RankFile) {
	b.Place(p, b.CoordOf(rf))
}

func (b *Board) Perspective() Side {
	return b.perspective
}

// CoordOf maps a rank/file to the grid coordinate for this board's
// perspective.
func (b *Board) CoordOf(rf RankFile) Coordinate {
	if b.perspective == Black {
		return Coordinate{Row: rf.Rank - 1, Col: numcols - 1 - rf.fileIndex()}
	}
	return Coordinate{Row: numrows - rf.Rank, Col: rf.fileIndex()}
}

// RankFileOf is the inverse of CoordOf.
func (b *Board) RankFileOf(c Coordinate) RankFile {
	if b.perspective == Black {
		return RankFile{File: byte('a' + numcols - 1 - c.Col), Rank: c.Row + 1}
	}
	return RankFile{File: byte('a' + c.Col), Rank: numrows - c.Row}
}

func (b *Board) SquareAt(c Coordinate) (Square, bool) {
	if !c.Valid() {
		return Square{}, false
	}
	return b.squares[c.index()], true
}

func (b *Board) SquareAtRankFile(rf RankFile) (Square, bool) {
	if !rf.Valid() {
		return Square{}, false
	}
	return b.SquareAt(b.CoordOf(rf))
}

// PieceAt returns the occupant of c; the zero Piece when empty or off-board.
func (b *Board) PieceAt(c Coordinate) Piece {
	if !c.Valid() {
		return Piece{}
	}
	return b.squares[c.index()].Piece
}

// Place puts p on c and updates its back-reference. The previous square
// of the piece is left untouched; callers clear it with Remove.
func (b *Board) Place(p Piece, c Coordinate) {
	if !c.Valid() {
		return
	}
	p.At = c
	b.squares[c.index()].Piece = p
}

func (b *Board) Remove(c Coordinate) Piece {
	if !c.Valid() {
		return Piece{}
	}
	p := b.squares[c.index()].Piece
	b.squares[c.index()].Piece = Piece{}
	return p
}

// PiecesOf lists the pieces of side in row-major order.
func (b *Board) PiecesOf(side Side) []Piece {
	pieces := make([]Piece, 0, 16)
	for _, sq := range b.squares {
		if !sq.Empty() && sq.Piece.Side == side {
			pieces = append(pieces, sq.Piece)
		}
	}
	return pieces
}

// Squares returns a copy of the grid in row-major order.
func (b *Board) Squares() []Square {
	out := make([]Square, numOfSquaresInBoard)
	copy(out, b.squares[:])
	return out
}

func (b *Board) EnPassant() EnPassant {
	return b.enPassant
}

// Clone returns a deep copy sharing no mutable state with b.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// String draws the board as it would be seen by the perspective side.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < numrows; row++ {
		sb.WriteByte(byte('0' + b.RankFileOf(Coordinate{Row: row}).Rank))
		for col := 0; col < numcols; col++ {
			sb.WriteByte(' ')
			sb.WriteByte(b.squares[Coordinate{Row: row, Col: col}.index()].Piece.Letter())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(" ")
	for col := 0; col < numcols; col++ {
		sb.WriteByte(' ')
		sb.WriteByte(b.RankFileOf(Coordinate{Row: numrows - 1, Col: col}).File)
	}
	sb.WriteByte('\n')
	return sb.String()
}
