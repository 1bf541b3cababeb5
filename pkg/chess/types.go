package chess

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	numrows             = 8
	numcols             = 8
	numOfSquaresInBoard = numrows * numcols
)

type Side int8

const (
	White Side = iota
	Black
)

func (s Side) Opponent() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) String() string {
	switch s {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "Unknown"
	}
}

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToLower(s.String()))
}

func (s *Side) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch strings.ToLower(name) {
	case "white", "w":
		*s = White
	case "black", "b":
		*s = Black
	default:
		return fmt.Errorf("unknown side %q", name)
	}
	return nil
}

// PieceKind is the type of a piece. NoKind marks an empty square.
type PieceKind int8

const (
	NoKind PieceKind = iota
	King
	Queen
	Bishop
	Knight
	Rook
	Pawn
)

func (k PieceKind) String() string {
	switch k {
	case King:
		return "King"
	case Queen:
		return "Queen"
	case Bishop:
		return "Bishop"
	case Knight:
		return "Knight"
	case Rook:
		return "Rook"
	case Pawn:
		return "Pawn"
	default:
		return "None"
	}
}

// Letter is the upper case FEN letter of the kind.
func (k PieceKind) Letter() byte {
	switch k {
	case King:
		return 'K'
	case Queen:
		return 'Q'
	case Bishop:
		return 'B'
	case Knight:
		return 'N'
	case Rook:
		return 'R'
	case Pawn:
		return 'P'
	default:
		return ' '
	}
}

func kindFromLetter(c byte) PieceKind {
	switch c {
	case 'k', 'K':
		return King
	case 'q', 'Q':
		return Queen
	case 'b', 'B':
		return Bishop
	case 'n', 'N':
		return Knight
	case 'r', 'R':
		return Rook
	case 'p', 'P':
		return Pawn
	default:
		return NoKind
	}
}

// Coordinate is a grid position on a board, independent of the rank/file
// naming, which depends on the board's perspective.
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coordinate) Valid() bool {
	return c.Row >= 0 && c.Row < numrows && c.Col >= 0 && c.Col < numcols
}

func (c Coordinate) Offset(dr, dc int) Coordinate {
	return Coordinate{Row: c.Row + dr, Col: c.Col + dc}
}

func (c Coordinate) index() int {
	return c.Row*numcols + c.Col
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// RankFile is a square in chess notation, e.g. e4.
type RankFile struct {
	File byte
	Rank int
}

func ParseRankFile(s string) (RankFile, error) {
	s = strings.TrimSpace(s)
	if len(s) != 2 {
		return RankFile{}, fmt.Errorf("invalid square %q", s)
	}
	rf := RankFile{File: lower(s[0]), Rank: int(s[1] - '0')}
	if !rf.Valid() {
		return RankFile{}, fmt.Errorf("invalid square %q", s)
	}
	return rf, nil
}

// MustRankFile is ParseRankFile for constant squares.
func MustRankFile(s string) RankFile {
	rf, err := ParseRankFile(s)
	if err != nil {
		panic(err)
	}
	return rf
}

func (rf RankFile) Valid() bool {
	f := lower(rf.File)
	return f >= 'a' && f <= 'h' && rf.Rank >= 1 && rf.Rank <= 8
}

// Equal compares two squares, ignoring the case of the file.
func (rf RankFile) Equal(o RankFile) bool {
	return rf.Rank == o.Rank && lower(rf.File) == lower(o.File)
}

func (rf RankFile) String() string {
	if !rf.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%d", lower(rf.File), rf.Rank)
}

func (rf RankFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(rf.String())
}

func (rf *RankFile) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRankFile(s)
	if err != nil {
		return err
	}
	*rf = parsed
	return nil
}

// fileIndex is 0 for file a.
func (rf RankFile) fileIndex() int {
	return int(lower(rf.File) - 'a')
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

// Move is both the wire record of a move and the unit the engine applies.
type Move struct {
	From RankFile `json:"from"`
	To   RankFile `json:"to"`
	Turn Side     `json:"turn"`
}

func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// ParseMove reads a move in coordinate notation such as "e2e4" or "e2-e4".
func ParseMove(s string, turn Side) (Move, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "-", "")
	if len(s) != 4 {
		return Move{}, fmt.Errorf("invalid move %q", s)
	}
	from, err := ParseRankFile(s[:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseRankFile(s[2:])
	if err != nil {
		return Move{}, err
	}
	return Move{From: from, To: to, Turn: turn}, nil
}
