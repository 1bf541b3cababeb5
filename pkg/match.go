package pkg

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/qnkhuat/termchess/pkg/chess"
)

var (
	ErrDesync          = errors.New("desync detected")
	ErrMatchOver       = errors.New("match is over")
	ErrNotInProgress   = errors.New("match is not in progress")
	ErrMatchInProgress = errors.New("match is still in progress")
	ErrUnknownMatch    = errors.New("unknown match")
	ErrNoOffer         = errors.New("no pending offer")
	ErrOpponentLeft    = errors.New("opponent left")
)

type MatchState int

const (
	StateWaitingToStart MatchState = iota
	StateInProgress
	StateCheckmate
	StateResigned
	StateTimeout
	StateDraw
	StateDrawAgreed
	StateAbandoned
	StateDesync
)

func (s MatchState) String() string {
	switch s {
	case StateWaitingToStart:
		return "Waiting"
	case StateInProgress:
		return "In progress"
	case StateCheckmate:
		return "Checkmate"
	case StateResigned:
		return "Resigned"
	case StateTimeout:
		return "Timeout"
	case StateDraw:
		return "Stalemate"
	case StateDrawAgreed:
		return "Draw agreed"
	case StateAbandoned:
		return "Abandoned"
	case StateDesync:
		return "Desync"
	default:
		return "Unknown"
	}
}

func (s MatchState) Terminal() bool {
	return s > StateInProgress
}

// Offer tracks a pending draw or rematch proposal from the local point of
// view.
type Offer int

const (
	OfferNone Offer = iota
	OfferSent
	OfferReceived
)

// MatchSnapshot is a read-only view of a match for rendering.
type MatchSnapshot struct {
	Id           string
	Local        chess.Side
	Players      [2]string
	Board        *chess.Board
	Turn         chess.Side
	State        MatchState
	Status       chess.Status
	Outcome      chess.Outcome
	LastMove     *chess.MoveInfo
	DrawOffer    Offer
	RematchOffer Offer
	OpponentLeft bool
	Timed        bool
	Clock        [2]time.Duration
}

func (s MatchSnapshot) IsTurn() bool {
	return s.State == StateInProgress && s.Turn == s.Local
}

// Match is one side's view of an online game. Every trigger, local or
// remote, runs under the match lock, so moves are applied one at a time.
type Match struct {
	Id string

	local        chess.Side
	players      [2]string
	game         *chess.Game
	state        MatchState
	clock        *Clock
	drawOffer    Offer
	rematchOffer Offer
	opponentGone bool

	// out is called with the match locked and must not call back into it.
	out      func(MessageInterface)
	onOver   func(chess.Outcome)
	onChange func()

	sync.Mutex
}

// notice holds the callbacks to run once the lock is released.
type notice struct {
	over    *chess.Outcome
	changed bool
}

// NewMatch creates a match in which the local player plays local. players
// holds the names indexed by side.
func NewMatch(id string, local chess.Side, players [2]string, out func(MessageInterface)) *Match {
	return &Match{
		Id:      id,
		local:   local,
		players: players,
		game:    chess.NewGame(local),
		out:     out,
	}
}

// UseClock attaches a clock for setting whose expiry ends the match.
func (m *Match) UseClock(setting ClockSetting) *Clock {
	cl := NewClock(setting, m.Expire)
	m.Lock()
	m.clock = cl
	m.Unlock()
	return cl
}

// Close stops the match clock. The match can still be inspected.
func (m *Match) Close() {
	m.Lock()
	cl := m.clock
	m.Unlock()
	cl.Stop()
}

func (m *Match) OnOver(f func(chess.Outcome)) {
	m.Lock()
	m.onOver = f
	m.Unlock()
}

func (m *Match) OnChange(f func()) {
	m.Lock()
	m.onChange = f
	m.Unlock()
}

func (m *Match) Local() chess.Side {
	m.Lock()
	defer m.Unlock()
	return m.local
}

func (m *Match) State() MatchState {
	m.Lock()
	defer m.Unlock()
	return m.state
}

func (m *Match) Outcome() chess.Outcome {
	m.Lock()
	defer m.Unlock()
	return m.game.Outcome()
}

func (m *Match) FEN() string {
	m.Lock()
	defer m.Unlock()
	return m.game.FEN()
}

func (m *Match) Start() error {
	m.Lock()
	if m.state != StateWaitingToStart {
		m.Unlock()
		return fmt.Errorf("match %s already started", m.Id)
	}
	m.state = StateInProgress
	m.clock.Start(chess.White)
	m.Unlock()

	log.Printf("Match %s started, playing %s", m.Id, m.local)
	m.notify(notice{changed: true})
	return nil
}

// ProposeMove plays a local move and relays it. Rejected moves change
// nothing and send nothing.
func (m *Match) ProposeMove(from, to chess.RankFile) error {
	m.Lock()
	if err := m.playableL(); err != nil {
		m.Unlock()
		return err
	}
	mv := chess.Move{From: from, To: to, Turn: m.local}
	if err := m.game.Move(mv); err != nil {
		m.Unlock()
		return err
	}
	m.sendL(MessageMove{MatchId: m.Id, Move: mv})
	n := m.afterMoveL()
	m.Unlock()

	m.notify(n)
	return nil
}

// HandleTransport applies a message received from the opponent.
func (m *Match) HandleTransport(t MessageTransport) error {
	msg, err := DecodeMessage(t)
	if err != nil {
		log.Printf("Match %s dropped %s: %s", m.Id, t.MsgType, err)
		return err
	}
	return m.Handle(msg)
}

func (m *Match) Handle(msg MessageInterface) error {
	m.Lock()
	n, err := m.handleL(msg)
	m.Unlock()

	m.notify(n)
	return err
}

func (m *Match) handleL(msg MessageInterface) (notice, error) {
	switch p := msg.(type) {
	case MessageMove:
		if p.MatchId != "" && p.MatchId != m.Id {
			return notice{}, fmt.Errorf("%w: %s", ErrUnknownMatch, p.MatchId)
		}
		if err := m.playableL(); err != nil {
			return notice{}, err
		}
		// Off-turn moves are refused and leave the match untouched.
		if p.Turn != m.local.Opponent() || p.Turn != m.game.Turn() {
			return notice{}, fmt.Errorf("%w: %w", chess.ErrInvalidMove, chess.ErrNotYourTurn)
		}
		if err := m.game.Move(p.Move); err != nil {
			if errors.Is(err, chess.ErrNotYourTurn) {
				return notice{}, err
			}
			return m.desyncL(fmt.Errorf("remote move %s: %w", p.Move, err))
		}
		return m.afterMoveL(), nil

	case MessageResign:
		if err := m.playableL(); err != nil {
			return notice{}, err
		}
		return m.endL(StateResigned, chess.Outcome{Winner: m.local, Reason: chess.ReasonResigned}), nil

	case MessageDrawOffer:
		if err := m.playableL(); err != nil {
			return notice{}, err
		}
		if m.drawOffer == OfferSent {
			m.sendL(MessageDrawRespond{MatchId: m.Id, Accept: true})
			return m.endL(StateDrawAgreed, chess.Outcome{Draw: true, Reason: chess.ReasonAgreement}), nil
		}
		m.drawOffer = OfferReceived
		return notice{changed: true}, nil

	case MessageDrawRespond:
		if err := m.playableL(); err != nil {
			return notice{}, err
		}
		if m.drawOffer != OfferSent {
			return notice{}, ErrNoOffer
		}
		if p.Accept {
			return m.endL(StateDrawAgreed, chess.Outcome{Draw: true, Reason: chess.ReasonAgreement}), nil
		}
		m.drawOffer = OfferNone
		return notice{changed: true}, nil

	case MessageRematch:
		if !m.state.Terminal() {
			return notice{}, ErrMatchInProgress
		}
		if m.rematchOffer == OfferSent {
			m.sendL(MessageRematchRespond{MatchId: m.Id, Accept: true})
			return m.resetL(), nil
		}
		m.rematchOffer = OfferReceived
		return notice{changed: true}, nil

	case MessageRematchRespond:
		if m.rematchOffer != OfferSent {
			return notice{}, ErrNoOffer
		}
		if p.Accept {
			return m.resetL(), nil
		}
		m.rematchOffer = OfferNone
		return notice{changed: true}, nil

	case MessageOpponentLeft:
		m.opponentGone = true
		m.rematchOffer = OfferNone
		if m.state == StateInProgress || m.state == StateWaitingToStart {
			return m.endL(StateAbandoned, chess.Outcome{Winner: m.local, Reason: chess.ReasonAbandoned}), nil
		}
		return notice{changed: true}, nil

	case MessageGame:
		if m.state != StateInProgress {
			return notice{}, nil
		}
		if p.Fen != m.game.FEN() || p.IsTurn != (m.game.Turn() == m.local) {
			return m.desyncL(fmt.Errorf("snapshot %q differs from %q", p.Fen, m.game.FEN()))
		}
		return notice{}, nil

	default:
		return notice{}, fmt.Errorf("%w: unexpected %s", ErrMalformedMessage, msg.Type())
	}
}

func (m *Match) Resign() error {
	m.Lock()
	if err := m.playableL(); err != nil {
		m.Unlock()
		return err
	}
	m.sendL(MessageResign{MatchId: m.Id})
	n := m.endL(StateResigned, chess.Outcome{Winner: m.local.Opponent(), Reason: chess.ReasonResigned})
	m.Unlock()

	m.notify(n)
	return nil
}

// Expire ends the match when side's time ran out.
func (m *Match) Expire(side chess.Side) {
	m.Lock()
	if m.state != StateInProgress {
		m.Unlock()
		return
	}
	n := m.endL(StateTimeout, chess.Outcome{Winner: side.Opponent(), Reason: chess.ReasonTimeout})
	m.Unlock()

	m.notify(n)
}

// OfferDraw proposes a draw, or accepts the opponent's pending offer.
func (m *Match) OfferDraw() error {
	m.Lock()
	if err := m.playableL(); err != nil {
		m.Unlock()
		return err
	}
	var n notice
	switch m.drawOffer {
	case OfferReceived:
		n = m.respondDrawL(true)
	case OfferNone:
		m.sendL(MessageDrawOffer{MatchId: m.Id})
		m.drawOffer = OfferSent
		n = notice{changed: true}
	}
	m.Unlock()

	m.notify(n)
	return nil
}

func (m *Match) RespondDraw(accept bool) error {
	m.Lock()
	if err := m.playableL(); err != nil {
		m.Unlock()
		return err
	}
	if m.drawOffer != OfferReceived {
		m.Unlock()
		return ErrNoOffer
	}
	n := m.respondDrawL(accept)
	m.Unlock()

	m.notify(n)
	return nil
}

func (m *Match) respondDrawL(accept bool) notice {
	m.sendL(MessageDrawRespond{MatchId: m.Id, Accept: accept})
	if accept {
		return m.endL(StateDrawAgreed, chess.Outcome{Draw: true, Reason: chess.ReasonAgreement})
	}
	m.drawOffer = OfferNone
	return notice{changed: true}
}

// RequestRematch asks for a new game once this one is over, or accepts the
// opponent's pending request.
func (m *Match) RequestRematch() error {
	m.Lock()
	if err := m.rematchableL(); err != nil {
		m.Unlock()
		return err
	}
	var n notice
	switch m.rematchOffer {
	case OfferReceived:
		n = m.respondRematchL(true)
	case OfferNone:
		m.sendL(MessageRematch{MatchId: m.Id})
		m.rematchOffer = OfferSent
		n = notice{changed: true}
	}
	m.Unlock()

	m.notify(n)
	return nil
}

func (m *Match) RespondRematch(accept bool) error {
	m.Lock()
	if err := m.rematchableL(); err != nil {
		m.Unlock()
		return err
	}
	if m.rematchOffer != OfferReceived {
		m.Unlock()
		return ErrNoOffer
	}
	n := m.respondRematchL(accept)
	m.Unlock()

	m.notify(n)
	return nil
}

func (m *Match) respondRematchL(accept bool) notice {
	m.sendL(MessageRematchRespond{MatchId: m.Id, Accept: accept})
	if accept {
		return m.resetL()
	}
	m.rematchOffer = OfferNone
	return notice{changed: true}
}

// LegalDestinations lists where the local piece on rf may move. It is empty
// for enemy pieces and outside of play.
func (m *Match) LegalDestinations(rf chess.RankFile) []chess.RankFile {
	m.Lock()
	defer m.Unlock()
	if m.state != StateInProgress {
		return nil
	}
	b := m.game.Board()
	sq, ok := b.SquareAtRankFile(rf)
	if !ok || sq.Empty() || sq.Piece.Side != m.local {
		return nil
	}
	return m.game.LegalDestinations(rf)
}

func (m *Match) Snapshot() MatchSnapshot {
	m.Lock()
	defer m.Unlock()

	s := MatchSnapshot{
		Id:           m.Id,
		Local:        m.local,
		Players:      m.players,
		Board:        m.game.Board(),
		Turn:         m.game.Turn(),
		State:        m.state,
		Status:       m.game.Status(),
		Outcome:      m.game.Outcome(),
		DrawOffer:    m.drawOffer,
		RematchOffer: m.rematchOffer,
		OpponentLeft: m.opponentGone,
		Timed:        !m.clock.Untimed(),
	}
	if info, ok := m.game.LastMove(); ok {
		s.LastMove = &info
	}
	for _, side := range []chess.Side{chess.White, chess.Black} {
		s.Clock[side] = m.clock.Remaining(side)
	}
	return s
}

func (m *Match) playableL() error {
	switch {
	case m.state == StateInProgress:
		return nil
	case m.state.Terminal():
		return ErrMatchOver
	default:
		return ErrNotInProgress
	}
}

func (m *Match) rematchableL() error {
	switch {
	case !m.state.Terminal():
		return ErrMatchInProgress
	case m.opponentGone:
		return ErrOpponentLeft
	default:
		return nil
	}
}

func (m *Match) sendL(msg MessageInterface) {
	if m.out != nil {
		m.out(msg)
	}
}

func (m *Match) afterMoveL() notice {
	m.drawOffer = OfferNone
	m.clock.Switch()
	if !m.game.Over() {
		return notice{changed: true}
	}

	o := m.game.Outcome()
	state := StateCheckmate
	if o.Draw {
		state = StateDraw
	}
	return m.endL(state, o)
}

func (m *Match) endL(state MatchState, o chess.Outcome) notice {
	m.game.End(o)
	m.state = state
	m.drawOffer = OfferNone
	m.clock.Pause()

	o = m.game.Outcome()
	log.Printf("Match %s over: %s", m.Id, o)
	return notice{over: &o, changed: true}
}

func (m *Match) desyncL(cause error) (notice, error) {
	n := m.endL(StateDesync, chess.Outcome{Draw: true, Reason: chess.ReasonDesync})
	return n, fmt.Errorf("%w: %s", ErrDesync, cause)
}

// resetL starts the rematch: colours swap and the board is set up again.
func (m *Match) resetL() notice {
	m.local = m.local.Opponent()
	m.players[chess.White], m.players[chess.Black] = m.players[chess.Black], m.players[chess.White]
	m.game = chess.NewGame(m.local)
	m.state = StateInProgress
	m.drawOffer = OfferNone
	m.rematchOffer = OfferNone
	m.clock.Reset()
	m.clock.Start(chess.White)

	log.Printf("Match %s rematch started, playing %s", m.Id, m.local)
	return notice{changed: true}
}

func (m *Match) notify(n notice) {
	m.Lock()
	onOver, onChange := m.onOver, m.onChange
	m.Unlock()

	if n.over != nil && onOver != nil {
		onOver(*n.over)
	}
	if n.changed && onChange != nil {
		onChange()
	}
}
