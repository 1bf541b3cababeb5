package chess

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustBoard(t *testing.T, fen string, perspective Side) *Board {
	t.Helper()
	b, _, err := ParseFEN(fen, perspective)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %s", fen, err)
	}
	return b
}

// destinations returns the sorted candidate squares of the piece on sq.
func destinations(b *Board, sq string) []string {
	var out []string
	for _, c := range b.Candidates(b.CoordOf(MustRankFile(sq))).Moves {
		out = append(out, b.RankFileOf(c).String())
	}
	sort.Strings(out)
	return out
}

func TestCandidatesStayOnBoard(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}

	for _, fen := range fens {
		for _, perspective := range []Side{White, Black} {
			b := mustBoard(t, fen, perspective)
			for _, sq := range b.Squares() {
				if sq.Empty() {
					continue
				}
				ms := b.Candidates(sq.Coord)
				for _, to := range ms.Moves {
					if !to.Valid() {
						t.Errorf("%s: %s generated off-board %s", fen, sq.RankFile, to)
						continue
					}
					if occ := b.PieceAt(to); !occ.Empty() && occ.Side == sq.Piece.Side {
						t.Errorf("%s: %s may land on friendly %s", fen, sq.RankFile, b.RankFileOf(to))
					}
				}
				for _, c := range ms.Captures {
					if occ := b.PieceAt(c); occ.Empty() || occ.Side == sq.Piece.Side {
						t.Errorf("%s: %s lists %s as a capture", fen, sq.RankFile, b.RankFileOf(c))
					}
				}
			}
		}
	}
}

func TestPieceCandidates(t *testing.T) {
	var tests = []struct {
		name string
		fen  string
		sq   string
		want []string
	}{
		{"knight in corner", "7k/8/8/8/8/8/8/N6K w - - 0 1", "a1", []string{"b3", "c2"}},
		{"rook blocked by own pawn", "7k/8/8/8/8/8/P7/R6K w - - 0 1", "a1", []string{"b1", "c1", "d1", "e1", "f1", "g1"}},
		{"bishop stops on capture", "7k/8/8/3p4/8/1B6/8/7K w - - 0 1", "b3", []string{"a2", "a4", "c2", "c4", "d1", "d5"}},
		{"pawn double step", StartFEN, "e2", []string{"e3", "e4"}},
		{"pawn blocked", "7k/8/8/8/8/4n3/4P3/7K w - - 0 1", "e2", nil},
		{"moved pawn single step", "7k/8/8/8/8/4P3/8/7K w - - 0 1", "e3", []string{"e4"}},
		{"pawn captures", "7k/8/8/8/8/3p1p2/4P3/7K w - - 0 1", "e2", []string{"d3", "e3", "e4", "f3"}},
		{"black pawn moves down", "7k/4p3/8/8/8/8/8/7K b - - 0 1", "e7", []string{"e5", "e6"}},
		{"king steps", "7k/8/8/8/8/8/8/K7 w - - 0 1", "a1", []string{"a2", "b1", "b2"}},
	}

	for _, tt := range tests {
		for _, perspective := range []Side{White, Black} {
			b := mustBoard(t, tt.fen, perspective)
			if diff := cmp.Diff(tt.want, destinations(b, tt.sq)); diff != "" {
				t.Errorf("%s (%s board) mismatch (-want +got):\n%s", tt.name, perspective, diff)
			}
		}
	}
}

func TestCastlingCandidates(t *testing.T) {
	var tests = []struct {
		name string
		fen  string
		sq   string
		want []string
	}{
		{"both sides open", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1", []string{"c1", "d1", "d2", "e2", "f1", "f2", "g1"}},
		{"no rights", "r3k2r/8/8/8/8/8/8/R3K2R w - - 0 1", "e1", []string{"d1", "d2", "e2", "f1", "f2"}},
		{"blocked queenside", "r3k2r/8/8/8/8/8/8/RN2K2R w KQkq - 0 1", "e1", []string{"d1", "d2", "e2", "f1", "f2", "g1"}},
		{"through check", "r3k2r/8/8/8/8/8/5r2/R3K2R w KQ - 0 1", "e1", []string{"c1", "d1", "d2", "e2", "f1", "f2"}},
		{"into check", "r3k2r/8/8/8/8/8/6r1/R3K2R w KQ - 0 1", "e1", []string{"c1", "d1", "d2", "e2", "f1", "f2"}},
		{"out of check", "r3k2r/8/8/8/8/8/4r3/R3K2R w KQ - 0 1", "e1", []string{"d1", "d2", "e2", "f1", "f2"}},
		{"b1 attacked is fine", "r3k2r/8/8/8/8/8/1r6/R3K2R w KQ - 0 1", "e1", []string{"c1", "d1", "d2", "e2", "f1", "f2", "g1"}},
		{"black kingside", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "e8", []string{"c8", "d7", "d8", "e7", "f7", "f8", "g8"}},
	}

	for _, tt := range tests {
		for _, perspective := range []Side{White, Black} {
			b := mustBoard(t, tt.fen, perspective)
			if diff := cmp.Diff(tt.want, destinations(b, tt.sq)); diff != "" {
				t.Errorf("%s (%s board) mismatch (-want +got):\n%s", tt.name, perspective, diff)
			}
		}
	}
}

func TestChecksFindsAttackedKing(t *testing.T) {
	b := mustBoard(t, "4k3/8/8/8/8/8/8/4K2r w - - 0 1", White)
	kings := b.Checks()
	if len(kings) != 1 || kings[0].Side != White {
		t.Fatalf("Checks() = %v, want the White King", kings)
	}
	if !b.InCheck(White) || b.InCheck(Black) {
		t.Error("InCheck disagrees with Checks")
	}

	b.MarkChecks()
	if !b.PieceAt(b.CoordOf(MustRankFile("e1"))).Checked {
		t.Error("White King not flagged as checked")
	}
	if b.PieceAt(b.CoordOf(MustRankFile("e8"))).Checked {
		t.Error("Black King flagged as checked")
	}
}
