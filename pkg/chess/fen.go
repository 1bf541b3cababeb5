package chess

import (
	"fmt"
	"strings"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN builds a board from a FEN record. Only placement and side to
// move are required. Moved flags are derived: kings and rooks keep them
// clear only where a castling right names them, pawns only on their
// starting rank.
func ParseFEN(fen string, perspective Side) (*Board, Side, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return nil, White, fmt.Errorf("%w: %q", ErrInvalidFEN, fen)
	}

	b := NewBoard(perspective)
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != numrows {
		return nil, White, fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	for i, row := range ranks {
		rank := numrows - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			kind := kindFromLetter(c)
			if kind == NoKind || file >= numcols {
				return nil, White, fmt.Errorf("%w: bad rank %q", ErrInvalidFEN, row)
			}
			side := White
			if c >= 'a' && c <= 'z' {
				side = Black
			}
			p := NewPiece(kind, side)
			p.Moved = kind == King || kind == Rook ||
				(kind == Pawn && rank != pawnRank(side))
			b.placeAt(p, RankFile{File: byte('a' + file), Rank: rank})
			file++
		}
		if file != numcols {
			return nil, White, fmt.Errorf("%w: bad rank %q", ErrInvalidFEN, row)
		}
	}

	var turn Side
	switch fields[1] {
	case "w":
		turn = White
	case "b":
		turn = Black
	default:
		return nil, White, fmt.Errorf("%w: bad side to move %q", ErrInvalidFEN, fields[1])
	}

	if len(fields) > 2 && fields[2] != "-" {
		for _, c := range fields[2] {
			if err := b.grantCastling(byte(c)); err != nil {
				return nil, White, err
			}
		}
	}

	if len(fields) > 3 && fields[3] != "-" {
		target, err := ParseRankFile(fields[3])
		if err != nil {
			return nil, White, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
		}
		pawnRF := RankFile{File: target.File, Rank: 4}
		if target.Rank == 6 {
			pawnRF.Rank = 5
		}
		if p := b.PieceAt(b.CoordOf(pawnRF)); p.Kind == Pawn {
			b.enPassant = EnPassant{Active: true, Pawn: b.CoordOf(pawnRF), Target: b.CoordOf(target)}
		}
	}

	for _, k := range []Side{White, Black} {
		if n := len(b.kings(k)); n > 1 {
			return nil, White, fmt.Errorf("%w: %d %s kings", ErrInvalidFEN, n, k)
		}
	}
	return b, turn, nil
}

func pawnRank(side Side) int {
	if side == White {
		return 2
	}
	return 7
}

func (b *Board) grantCastling(c byte) error {
	var (
		side     Side
		rookFile byte
	)
	switch c {
	case 'K':
		side, rookFile = White, 'h'
	case 'Q':
		side, rookFile = White, 'a'
	case 'k':
		side, rookFile = Black, 'h'
	case 'q':
		side, rookFile = Black, 'a'
	default:
		return fmt.Errorf("%w: bad castling right %q", ErrInvalidFEN, c)
	}
	rank := homeRank(side)
	kingAt := b.CoordOf(RankFile{File: 'e', Rank: rank})
	rookAt := b.CoordOf(RankFile{File: rookFile, Rank: rank})
	king, rook := b.PieceAt(kingAt), b.PieceAt(rookAt)
	if king.Kind != King || king.Side != side || rook.Kind != Rook || rook.Side != side {
		return nil
	}
	b.squares[kingAt.index()].Piece.Moved = false
	b.squares[rookAt.index()].Piece.Moved = false
	return nil
}

func (b *Board) kings(side Side) []Coordinate {
	var out []Coordinate
	for _, sq := range b.squares {
		if sq.Piece.Kind == King && sq.Piece.Side == side {
			out = append(out, sq.Coord)
		}
	}
	return out
}

// FEN encodes the board with turn to move. Move counters are not tracked
// and are always written as "0 1".
func (b *Board) FEN(turn Side) string {
	var sb strings.Builder
	for rank := numrows; rank >= 1; rank-- {
		empty := 0
		for file := 0; file < numcols; file++ {
			p := b.PieceAt(b.CoordOf(RankFile{File: byte('a' + file), Rank: rank}))
			if p.Empty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 1 {
			sb.WriteByte('/')
		}
	}

	if turn == White {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}

	rights := ""
	for _, r := range []struct {
		letter   byte
		side     Side
		rookFile byte
	}{{'K', White, 'h'}, {'Q', White, 'a'}, {'k', Black, 'h'}, {'q', Black, 'a'}} {
		if b.castlingRight(r.side, r.rookFile) {
			rights += string(r.letter)
		}
	}
	if rights == "" {
		rights = "-"
	}
	sb.WriteString(rights)

	if b.enPassant.Active {
		sb.WriteString(" " + b.RankFileOf(b.enPassant.Target).String())
	} else {
		sb.WriteString(" -")
	}
	sb.WriteString(" 0 1")
	return sb.String()
}

func (b *Board) castlingRight(side Side, rookFile byte) bool {
	rank := homeRank(side)
	king := b.PieceAt(b.CoordOf(RankFile{File: 'e', Rank: rank}))
	rook := b.PieceAt(b.CoordOf(RankFile{File: rookFile, Rank: rank}))
	return king.Kind == King && king.Side == side && !king.Moved &&
		rook.Kind == Rook && rook.Side == side && !rook.Moved
}
