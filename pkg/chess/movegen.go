package chess

import (
	"golang.org/x/exp/slices"
)

type direction struct {
	dr, dc int
}

var (
	straightDirections = []direction{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	diagonalDirections = []direction{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	royalDirections    = append(append([]direction{}, straightDirections...), diagonalDirections...)
	knightOffsets      = []direction{
		{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2},
		{1, -2}, {1, 2}, {2, -1}, {2, 1},
	}
)

// MoveSet is the result of pseudo-legal generation for one piece. Captures
// holds the generated squares that contain an enemy piece; check detection
// scans it.
type MoveSet struct {
	Moves    []Coordinate
	Captures []Coordinate
}

func (ms MoveSet) Has(c Coordinate) bool {
	return slices.Contains(ms.Moves, c)
}

func (ms *MoveSet) add(c Coordinate, capture bool) {
	ms.Moves = append(ms.Moves, c)
	if capture {
		ms.Captures = append(ms.Captures, c)
	}
}

// Candidates generates the pseudo-legal destinations of the piece on c.
func (b *Board) Candidates(c Coordinate) MoveSet {
	return b.generate(c, true)
}

func (b *Board) generate(c Coordinate, withCastle bool) MoveSet {
	var ms MoveSet
	p := b.PieceAt(c)
	if p.Empty() {
		return ms
	}

	switch p.Kind {
	case Queen:
		b.slide(&ms, p, royalDirections)
	case Bishop:
		b.slide(&ms, p, diagonalDirections)
	case Rook:
		b.slide(&ms, p, straightDirections)
	case Knight:
		b.step(&ms, p, knightOffsets)
	case King:
		b.step(&ms, p, royalDirections)
		if withCastle {
			for _, dest := range b.castleDestinations(p) {
				ms.add(dest, false)
			}
		}
	case Pawn:
		b.pawnMoves(&ms, p)
	}
	return ms
}

func (b *Board) slide(ms *MoveSet, p Piece, dirs []direction) {
	for _, d := range dirs {
		for to := p.At.Offset(d.dr, d.dc); to.Valid(); to = to.Offset(d.dr, d.dc) {
			occupant := b.PieceAt(to)
			if occupant.Empty() {
				ms.add(to, false)
				continue
			}
			if occupant.Side != p.Side {
				ms.add(to, true)
			}
			break
		}
	}
}

func (b *Board) step(ms *MoveSet, p Piece, offsets []direction) {
	for _, d := range offsets {
		to := p.At.Offset(d.dr, d.dc)
		if !to.Valid() {
			continue
		}
		occupant := b.PieceAt(to)
		if occupant.Empty() {
			ms.add(to, false)
		} else if occupant.Side != p.Side {
			ms.add(to, true)
		}
	}
}

// forward is the row delta of one step towards the opponent's back rank.
func (b *Board) forward(side Side) int {
	if side == b.perspective {
		return -1
	}
	return 1
}

func (b *Board) pawnMoves(ms *MoveSet, p Piece) {
	fwd := b.forward(p.Side)

	one := p.At.Offset(fwd, 0)
	if one.Valid() && b.PieceAt(one).Empty() {
		ms.add(one, false)
		two := one.Offset(fwd, 0)
		if !p.Moved && two.Valid() && b.PieceAt(two).Empty() {
			ms.add(two, false)
		}
	}

	for _, dc := range []int{-1, 1} {
		to := p.At.Offset(fwd, dc)
		if !to.Valid() {
			continue
		}
		occupant := b.PieceAt(to)
		if !occupant.Empty() {
			if occupant.Side != p.Side {
				ms.add(to, true)
			}
			continue
		}
		if b.enPassantTarget(p, to) {
			ms.add(to, false)
		}
	}
}

// enPassantTarget reports whether pawn p may capture en passant onto to.
func (b *Board) enPassantTarget(p Piece, to Coordinate) bool {
	ep := b.enPassant
	if !ep.Active || ep.Target != to {
		return false
	}
	victim := b.PieceAt(ep.Pawn)
	return victim.Kind == Pawn && victim.Side != p.Side
}

// pawnAttacks lists the diagonal squares threatened by pawn p.
func (b *Board) pawnAttacks(p Piece) []Coordinate {
	fwd := b.forward(p.Side)
	out := make([]Coordinate, 0, 2)
	for _, dc := range []int{-1, 1} {
		if to := p.At.Offset(fwd, dc); to.Valid() {
			out = append(out, to)
		}
	}
	return out
}

// attackedBy reports whether any piece of side by attacks target. Castling
// is never an attack, so this does not recurse into castle generation.
func (b *Board) attackedBy(target Coordinate, by Side) bool {
	for _, p := range b.PiecesOf(by) {
		if p.Kind == Pawn {
			if slices.Contains(b.pawnAttacks(p), target) {
				return true
			}
			continue
		}
		if b.generate(p.At, false).Has(target) {
			return true
		}
	}
	return false
}

type castleSide struct {
	rookFile     byte
	kingFile     byte
	rookDestFile byte
	between      []byte
	kingPath     []byte
}

var castleSides = []castleSide{
	{rookFile: 'h', kingFile: 'g', rookDestFile: 'f', between: []byte{'f', 'g'}, kingPath: []byte{'f', 'g'}},
	{rookFile: 'a', kingFile: 'c', rookDestFile: 'd', between: []byte{'b', 'c', 'd'}, kingPath: []byte{'d', 'c'}},
}

func homeRank(side Side) int {
	if side == White {
		return 1
	}
	return 8
}

func (b *Board) castleDestinations(king Piece) []Coordinate {
	var out []Coordinate
	for _, cs := range castleSides {
		if b.canCastle(king, cs) {
			out = append(out, b.CoordOf(RankFile{File: cs.kingFile, Rank: homeRank(king.Side)}))
		}
	}
	return out
}

func (b *Board) canCastle(king Piece, cs castleSide) bool {
	rank := homeRank(king.Side)
	if king.Moved {
		return false
	}
	if king.At != b.CoordOf(RankFile{File: 'e', Rank: rank}) {
		return false
	}
	rook := b.PieceAt(b.CoordOf(RankFile{File: cs.rookFile, Rank: rank}))
	if rook.Kind != Rook || rook.Side != king.Side || rook.Moved {
		return false
	}
	for _, f := range cs.between {
		if !b.PieceAt(b.CoordOf(RankFile{File: f, Rank: rank})).Empty() {
			return false
		}
	}

	// A king in check may not castle, nor pass through or land on an
	// attacked square.
	enemy := king.Side.Opponent()
	if b.attackedBy(king.At, enemy) {
		return false
	}
	for _, f := range cs.kingPath {
		if b.attackedBy(b.CoordOf(RankFile{File: f, Rank: rank}), enemy) {
			return false
		}
	}
	return true
}

// castleFor returns the castle side matched by a king move from -> to.
func (b *Board) castleFor(king Piece, from, to Coordinate) (castleSide, bool) {
	if king.Kind != King || king.Moved {
		return castleSide{}, false
	}
	rank := homeRank(king.Side)
	if from != b.CoordOf(RankFile{File: 'e', Rank: rank}) {
		return castleSide{}, false
	}
	for _, cs := range castleSides {
		if to == b.CoordOf(RankFile{File: cs.kingFile, Rank: rank}) {
			return cs, true
		}
	}
	return castleSide{}, false
}
