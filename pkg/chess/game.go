package chess

import (
	"encoding/json"
	"fmt"
)

type Reason int

const (
	ReasonNone Reason = iota
	ReasonCheckmate
	ReasonResigned
	ReasonTimeout
	ReasonDraw
	ReasonAgreement
	ReasonAbandoned
	ReasonDesync
)

func (r Reason) String() string {
	switch r {
	case ReasonCheckmate:
		return "Checkmate"
	case ReasonResigned:
		return "Resigned"
	case ReasonTimeout:
		return "Timeout"
	case ReasonDraw:
		return "Draw"
	case ReasonAgreement:
		return "Agreement"
	case ReasonAbandoned:
		return "Abandoned"
	case ReasonDesync:
		return "Desync"
	default:
		return "None"
	}
}

func (r Reason) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// Outcome is how a finished game ended. Winner is meaningless when Draw is
// set.
type Outcome struct {
	Winner Side   `json:"winner"`
	Draw   bool   `json:"draw"`
	Reason Reason `json:"reason"`
}

func (o Outcome) String() string {
	switch o.Reason {
	case ReasonNone:
		return "*"
	case ReasonDesync:
		return "Aborted (Desync)"
	}
	if o.Draw {
		return fmt.Sprintf("Draw (%s)", o.Reason)
	}
	return fmt.Sprintf("%s wins (%s)", o.Winner, o.Reason)
}

// Game is the engine's game state: one board, the side to move and the
// terminal state.
type Game struct {
	board   *Board
	turn    Side
	status  Status
	over    bool
	outcome Outcome
	plies   int
	last    *MoveInfo
}

func NewGame(perspective Side) *Game {
	g := &Game{board: NewStandardBoard(perspective), turn: White}
	g.board.MarkChecks()
	return g
}

func NewGameFromFEN(fen string, perspective Side) (*Game, error) {
	b, turn, err := ParseFEN(fen, perspective)
	if err != nil {
		return nil, err
	}
	g := &Game{board: b, turn: turn}
	g.evaluate()
	return g, nil
}

// Board returns a copy of the current board.
func (g *Game) Board() *Board {
	return g.board.Clone()
}

func (g *Game) Turn() Side {
	return g.turn
}

func (g *Game) Plies() int {
	return g.plies
}

func (g *Game) Status() Status {
	return g.status
}

func (g *Game) Over() bool {
	return g.over
}

func (g *Game) Outcome() Outcome {
	return g.outcome
}

// LastMove reports the most recently applied move.
func (g *Game) LastMove() (MoveInfo, bool) {
	if g.last == nil {
		return MoveInfo{}, false
	}
	return *g.last, true
}

func (g *Game) FEN() string {
	return g.board.FEN(g.turn)
}

// Move validates m against the current position and applies it. Rejected
// moves leave the game untouched.
func (g *Game) Move(m Move) error {
	if g.over {
		return ErrGameOver
	}
	if m.Turn != g.turn {
		return fmt.Errorf("%w: %w", ErrInvalidMove, ErrNotYourTurn)
	}
	from, ok := g.board.SquareAtRankFile(m.From)
	if !ok || from.Empty() {
		return fmt.Errorf("%w: %w at %s", ErrInvalidMove, ErrNoPiece, m.From)
	}
	if from.Piece.Side != g.turn {
		return fmt.Errorf("%w: %w", ErrInvalidMove, ErrNotYourTurn)
	}
	to, ok := g.board.SquareAtRankFile(m.To)
	if !ok || !g.board.Candidates(from.Coord).Has(to.Coord) {
		return fmt.Errorf("%w: %w: %s", ErrInvalidMove, ErrIllegalDestination, m)
	}
	if g.board.leavesKingInCheck(from.Coord, to.Coord) {
		return fmt.Errorf("%w: %w: %s", ErrInvalidMove, ErrSelfCheck, m)
	}

	info := g.board.apply(from.Coord, to.Coord)
	g.last = &info
	g.plies++
	g.turn = g.turn.Opponent()
	g.evaluate()
	return nil
}

func (g *Game) evaluate() {
	g.board.MarkChecks()
	g.status = g.board.Status(g.turn)
	switch g.status {
	case StatusCheckmate:
		g.End(Outcome{Winner: g.turn.Opponent(), Reason: ReasonCheckmate})
	case StatusStalemate:
		g.End(Outcome{Draw: true, Reason: ReasonDraw})
	}
}

// End terminates the game with o. Only the first call has an effect.
func (g *Game) End(o Outcome) {
	if g.over {
		return
	}
	g.over = true
	g.outcome = o
}

// LegalDestinations is used to preview moves of the piece on rf.
func (g *Game) LegalDestinations(rf RankFile) []RankFile {
	sq, ok := g.board.SquareAtRankFile(rf)
	if !ok || sq.Empty() {
		return nil
	}
	var out []RankFile
	for _, c := range g.board.LegalMoves(sq.Coord) {
		out = append(out, g.board.RankFileOf(c))
	}
	return out
}

// LegalMoves lists every legal move of the side to move.
func (g *Game) LegalMoves() []Move {
	return legalMoves(g.board, g.turn)
}

func legalMoves(b *Board, side Side) []Move {
	var out []Move
	for _, p := range b.PiecesOf(side) {
		from := b.RankFileOf(p.At)
		for _, to := range b.LegalMoves(p.At) {
			out = append(out, Move{From: from, To: b.RankFileOf(to), Turn: side})
		}
	}
	return out
}

// Perft counts the leaf nodes of the legal move tree to depth.
func (g *Game) Perft(depth int) int {
	return perft(g.board, g.turn, depth)
}

func perft(b *Board, side Side, depth int) int {
	if depth == 0 {
		return 1
	}
	nodes := 0
	for _, p := range b.PiecesOf(side) {
		for _, to := range b.LegalMoves(p.At) {
			if depth == 1 {
				nodes++
				continue
			}
			next := b.Clone()
			next.apply(p.At, to)
			nodes += perft(next, side.Opponent(), depth-1)
		}
	}
	return nodes
}
