package chess

// Status is the state of one side after a ply.
type Status int

const (
	StatusNormal Status = iota
	StatusCheck
	StatusCheckmate
	StatusStalemate
)

func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusCheck:
		return "check"
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	default:
		return "unknown"
	}
}

// MoveInfo describes what an applied move did to the board.
type MoveInfo struct {
	Move      Move
	Piece     Piece
	Captured  Piece
	Castled   bool
	EnPassant bool
	Promoted  bool
}

// apply executes the move mechanics from -> to without any legality check.
// Callers validate first.
func (b *Board) apply(from, to Coordinate) MoveInfo {
	p := b.PieceAt(from)
	res := MoveInfo{
		Move:     Move{From: b.RankFileOf(from), To: b.RankFileOf(to), Turn: p.Side},
		Piece:    p,
		Captured: b.PieceAt(to),
	}

	ep := b.enPassant
	b.enPassant = EnPassant{}

	b.Remove(from)
	if p.Kind == Pawn && ep.Active && to == ep.Target {
		res.Captured = b.Remove(ep.Pawn)
		res.EnPassant = true
	}

	if cs, ok := b.castleFor(p, from, to); ok {
		rank := homeRank(p.Side)
		rookFrom := b.CoordOf(RankFile{File: cs.rookFile, Rank: rank})
		rook := b.Remove(rookFrom)
		rook.Moved = true
		b.Place(rook, b.CoordOf(RankFile{File: cs.rookDestFile, Rank: rank}))
		res.Castled = true
	}

	if p.Kind == Pawn {
		if b.RankFileOf(to).Rank == homeRank(p.Side.Opponent()) {
			p.Kind = Queen
			res.Promoted = true
		} else if abs(to.Row-from.Row) == 2 {
			b.enPassant = EnPassant{
				Active: true,
				Pawn:   to,
				Target: Coordinate{Row: (from.Row + to.Row) / 2, Col: from.Col},
			}
		}
	}

	p.Moved = true
	b.Place(p, to)
	return res
}

// IsLegal reports whether the piece on from may move to to: the destination
// must be a candidate and the move must not leave the mover's king in
// check. The receiver is never modified.
func (b *Board) IsLegal(from, to Coordinate) bool {
	p := b.PieceAt(from)
	if p.Empty() || !b.Candidates(from).Has(to) {
		return false
	}
	return !b.leavesKingInCheck(from, to)
}

func (b *Board) leavesKingInCheck(from, to Coordinate) bool {
	mover := b.PieceAt(from).Side
	probe := b.Clone()
	probe.apply(from, to)
	return probe.InCheck(mover)
}

// LegalMoves lists the legal destinations of the piece on c.
func (b *Board) LegalMoves(c Coordinate) []Coordinate {
	var out []Coordinate
	for _, to := range b.Candidates(c).Moves {
		if !b.leavesKingInCheck(c, to) {
			out = append(out, to)
		}
	}
	return out
}

// HasLegalMove scans every piece of side for at least one legal move.
func (b *Board) HasLegalMove(side Side) bool {
	for _, p := range b.PiecesOf(side) {
		for _, to := range b.Candidates(p.At).Moves {
			if !b.leavesKingInCheck(p.At, to) {
				return true
			}
		}
	}
	return false
}

// Checks runs generation for every piece on the board and returns the
// kings found among the attacked enemies.
func (b *Board) Checks() []Piece {
	var kings []Piece
	for _, sq := range b.squares {
		if sq.Empty() {
			continue
		}
		for _, c := range b.generate(sq.Coord, false).Captures {
			if target := b.PieceAt(c); target.Kind == King {
				kings = append(kings, target)
			}
		}
	}
	return kings
}

func (b *Board) InCheck(side Side) bool {
	for _, k := range b.Checks() {
		if k.Side == side {
			return true
		}
	}
	return false
}

// MarkChecks refreshes the transient Checked flag of every piece.
func (b *Board) MarkChecks() {
	for i := range b.squares {
		b.squares[i].Piece.Checked = false
	}
	for _, k := range b.Checks() {
		b.squares[k.At.index()].Piece.Checked = true
	}
}

// Status evaluates side, which is about to move.
func (b *Board) Status(side Side) Status {
	inCheck := b.InCheck(side)
	hasMove := b.HasLegalMove(side)
	switch {
	case inCheck && !hasMove:
		return StatusCheckmate
	case inCheck:
		return StatusCheck
	case !hasMove:
		return StatusStalemate
	default:
		return StatusNormal
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
