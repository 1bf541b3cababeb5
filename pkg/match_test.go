package pkg

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/qnkhuat/termchess/pkg/chess"
)

// outbox queues what a match sends so the test decides when it arrives.
type outbox struct {
	msgs []MessageInterface
}

func (o *outbox) send(m MessageInterface) {
	o.msgs = append(o.msgs, m)
}

// flush delivers everything queued to m and returns the errors it raised.
func (o *outbox) flush(m *Match) []error {
	var errs []error
	for len(o.msgs) > 0 {
		msg := o.msgs[0]
		o.msgs = o.msgs[1:]
		if err := m.Handle(msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

type matchPair struct {
	white, black       *Match
	whiteOut, blackOut *outbox
}

func newMatchPair(t *testing.T) *matchPair {
	t.Helper()
	p := &matchPair{whiteOut: &outbox{}, blackOut: &outbox{}}
	players := [2]string{"alice", "bob"}
	p.white = NewMatch("m1", chess.White, players, p.whiteOut.send)
	p.black = NewMatch("m1", chess.Black, players, p.blackOut.send)
	for _, m := range []*Match{p.white, p.black} {
		if err := m.Start(); err != nil {
			t.Fatal(err)
		}
	}
	return p
}

// sync delivers messages both ways until nothing is in flight.
func (p *matchPair) sync() []error {
	var errs []error
	for len(p.whiteOut.msgs) > 0 || len(p.blackOut.msgs) > 0 {
		errs = append(errs, p.whiteOut.flush(p.black)...)
		errs = append(errs, p.blackOut.flush(p.white)...)
	}
	return errs
}

func (p *matchPair) mustSync(t *testing.T) {
	t.Helper()
	for _, err := range p.sync() {
		t.Errorf("unexpected error: %s", err)
	}
}

func (p *matchPair) play(t *testing.T, moves ...string) {
	t.Helper()
	for i, s := range moves {
		m := p.white
		if i%2 == 1 {
			m = p.black
		}
		mv, err := chess.ParseMove(s, m.Local())
		if err != nil {
			t.Fatal(err)
		}
		if err := m.ProposeMove(mv.From, mv.To); err != nil {
			t.Fatalf("move %s: %s", s, err)
		}
		p.mustSync(t)
	}
}

func rf(s string) chess.RankFile {
	return chess.MustRankFile(s)
}

func TestMatchMoveIsRelayed(t *testing.T) {
	p := newMatchPair(t)

	if err := p.white.ProposeMove(rf("e2"), rf("e4")); err != nil {
		t.Fatal(err)
	}
	if len(p.whiteOut.msgs) != 1 {
		t.Fatalf("expected 1 message sent, got %d", len(p.whiteOut.msgs))
	}
	sent, ok := p.whiteOut.msgs[0].(MessageMove)
	if !ok {
		t.Fatalf("expected MessageMove, got %T", p.whiteOut.msgs[0])
	}
	if sent.MatchId != "m1" || sent.Move.String() != "e2e4" || sent.Turn != chess.White {
		t.Errorf("unexpected move message %+v", sent)
	}

	p.mustSync(t)
	if p.white.FEN() != p.black.FEN() {
		t.Errorf("boards differ: %q vs %q", p.white.FEN(), p.black.FEN())
	}
	if p.white.Snapshot().IsTurn() {
		t.Error("white should wait for black")
	}
	if !p.black.Snapshot().IsTurn() {
		t.Error("black should be on move")
	}
	if last := p.black.Snapshot().LastMove; last == nil || last.Move.String() != "e2e4" {
		t.Errorf("last move not recorded: %+v", last)
	}
}

func TestMatchRejectedMoveSendsNothing(t *testing.T) {
	p := newMatchPair(t)
	before := p.white.FEN()

	err := p.black.ProposeMove(rf("e7"), rf("e5"))
	if !errors.Is(err, chess.ErrNotYourTurn) {
		t.Errorf("expected ErrNotYourTurn, got %v", err)
	}
	err = p.white.ProposeMove(rf("e2"), rf("e5"))
	if !errors.Is(err, chess.ErrInvalidMove) {
		t.Errorf("expected ErrInvalidMove, got %v", err)
	}
	err = p.white.ProposeMove(rf("e7"), rf("e5"))
	if !errors.Is(err, chess.ErrInvalidMove) {
		t.Errorf("moving an enemy piece should fail, got %v", err)
	}

	if len(p.whiteOut.msgs) != 0 || len(p.blackOut.msgs) != 0 {
		t.Error("rejected moves must not be sent")
	}
	if p.white.FEN() != before {
		t.Errorf("board changed after rejected moves: %s", p.white.FEN())
	}
}

func TestMatchRemoteMoveOutOfTurnIsRejected(t *testing.T) {
	tests := []struct {
		name string
		move chess.Move
	}{
		{"black before white", chess.Move{From: rf("e7"), To: rf("e5"), Turn: chess.Black}},
		{"claims white but moves black", chess.Move{From: rf("e7"), To: rf("e5"), Turn: chess.White}},
	}
	for _, tc := range tests {
		p := newMatchPair(t)
		before := p.white.FEN()

		err := p.white.Handle(MessageMove{MatchId: "m1", Move: tc.move})
		if !errors.Is(err, chess.ErrInvalidMove) || !errors.Is(err, chess.ErrNotYourTurn) {
			t.Errorf("%s: expected ErrNotYourTurn, got %v", tc.name, err)
		}
		if errors.Is(err, ErrDesync) {
			t.Errorf("%s: off-turn move should not desync", tc.name)
		}
		if p.white.State() != StateInProgress {
			t.Errorf("%s: expected %s, got %s", tc.name, StateInProgress, p.white.State())
		}
		if p.white.FEN() != before {
			t.Errorf("%s: board changed: %s", tc.name, p.white.FEN())
		}
		if len(p.whiteOut.msgs) != 0 {
			t.Errorf("%s: expected nothing sent, got %v", tc.name, p.whiteOut.msgs)
		}
		if err := p.white.ProposeMove(rf("e2"), rf("e4")); err != nil {
			t.Errorf("%s: match should still be playable: %s", tc.name, err)
		}
	}
}

func TestMatchIllegalRemoteMoveDesyncs(t *testing.T) {
	p := newMatchPair(t)

	err := p.black.Handle(MessageMove{MatchId: "m1", Move: chess.Move{From: rf("e2"), To: rf("e5"), Turn: chess.White}})
	if !errors.Is(err, ErrDesync) {
		t.Fatalf("expected ErrDesync, got %v", err)
	}
	if p.black.State() != StateDesync {
		t.Errorf("expected %s, got %s", StateDesync, p.black.State())
	}
}

func TestMatchIgnoresOtherMatchIds(t *testing.T) {
	p := newMatchPair(t)

	err := p.black.Handle(MessageMove{MatchId: "m2", Move: chess.Move{From: rf("e2"), To: rf("e4"), Turn: chess.White}})
	if !errors.Is(err, ErrUnknownMatch) {
		t.Errorf("expected ErrUnknownMatch, got %v", err)
	}
	if p.black.State() != StateInProgress {
		t.Errorf("state changed to %s", p.black.State())
	}
	if p.black.FEN() != chess.StartFEN {
		t.Errorf("board changed: %s", p.black.FEN())
	}
}

func TestMatchCheckmate(t *testing.T) {
	p := newMatchPair(t)

	overs := make(map[chess.Side]int)
	for _, m := range []*Match{p.white, p.black} {
		side := m.Local()
		m.OnOver(func(o chess.Outcome) { overs[side]++ })
	}

	p.play(t, "f2f3", "e7e5", "g2g4", "d8h4")

	for _, m := range []*Match{p.white, p.black} {
		if m.State() != StateCheckmate {
			t.Errorf("%s: expected %s, got %s", m.Local(), StateCheckmate, m.State())
		}
		o := m.Outcome()
		if o.Draw || o.Winner != chess.Black || o.Reason != chess.ReasonCheckmate {
			t.Errorf("%s: unexpected outcome %s", m.Local(), o)
		}
	}
	if overs[chess.White] != 1 || overs[chess.Black] != 1 {
		t.Errorf("game over should be reported once per side, got %v", overs)
	}
	if err := p.white.ProposeMove(rf("a2"), rf("a3")); !errors.Is(err, ErrMatchOver) {
		t.Errorf("expected ErrMatchOver, got %v", err)
	}
}

func TestMatchResign(t *testing.T) {
	p := newMatchPair(t)

	if err := p.white.Resign(); err != nil {
		t.Fatal(err)
	}
	p.mustSync(t)

	for _, m := range []*Match{p.white, p.black} {
		if m.State() != StateResigned {
			t.Errorf("%s: expected %s, got %s", m.Local(), StateResigned, m.State())
		}
		if o := m.Outcome(); o.Winner != chess.Black || o.Reason != chess.ReasonResigned {
			t.Errorf("%s: unexpected outcome %s", m.Local(), o)
		}
	}
	if err := p.white.Resign(); !errors.Is(err, ErrMatchOver) {
		t.Errorf("expected ErrMatchOver, got %v", err)
	}
}

func TestMatchDrawAccepted(t *testing.T) {
	p := newMatchPair(t)

	if err := p.white.OfferDraw(); err != nil {
		t.Fatal(err)
	}
	p.mustSync(t)
	if got := p.white.Snapshot().DrawOffer; got != OfferSent {
		t.Errorf("white: expected OfferSent, got %d", got)
	}
	if got := p.black.Snapshot().DrawOffer; got != OfferReceived {
		t.Errorf("black: expected OfferReceived, got %d", got)
	}

	if err := p.black.RespondDraw(true); err != nil {
		t.Fatal(err)
	}
	p.mustSync(t)
	for _, m := range []*Match{p.white, p.black} {
		if m.State() != StateDrawAgreed {
			t.Errorf("%s: expected %s, got %s", m.Local(), StateDrawAgreed, m.State())
		}
		if o := m.Outcome(); !o.Draw || o.Reason != chess.ReasonAgreement {
			t.Errorf("%s: unexpected outcome %s", m.Local(), o)
		}
	}
}

func TestMatchDrawDeclined(t *testing.T) {
	p := newMatchPair(t)

	if err := p.black.RespondDraw(true); !errors.Is(err, ErrNoOffer) {
		t.Errorf("expected ErrNoOffer, got %v", err)
	}

	p.white.OfferDraw()
	p.mustSync(t)
	if err := p.black.RespondDraw(false); err != nil {
		t.Fatal(err)
	}
	p.mustSync(t)

	for _, m := range []*Match{p.white, p.black} {
		snap := m.Snapshot()
		if snap.State != StateInProgress || snap.DrawOffer != OfferNone {
			t.Errorf("%s: expected play to go on, got %s with offer %d", m.Local(), snap.State, snap.DrawOffer)
		}
	}
}

func TestMatchMoveWithdrawsDrawOffer(t *testing.T) {
	p := newMatchPair(t)

	p.white.OfferDraw()
	p.play(t, "e2e4")

	for _, m := range []*Match{p.white, p.black} {
		if got := m.Snapshot().DrawOffer; got != OfferNone {
			t.Errorf("%s: expected no pending offer, got %d", m.Local(), got)
		}
	}
}

func TestMatchCrossingDrawOffers(t *testing.T) {
	p := newMatchPair(t)

	p.white.OfferDraw()
	p.black.OfferDraw()
	for _, err := range p.sync() {
		if !errors.Is(err, ErrMatchOver) {
			t.Errorf("unexpected error: %s", err)
		}
	}
	for _, m := range []*Match{p.white, p.black} {
		if m.State() != StateDrawAgreed {
			t.Errorf("%s: expected %s, got %s", m.Local(), StateDrawAgreed, m.State())
		}
	}
}

func TestMatchRematchSwapsColors(t *testing.T) {
	p := newMatchPair(t)

	if err := p.white.RequestRematch(); !errors.Is(err, ErrMatchInProgress) {
		t.Errorf("expected ErrMatchInProgress, got %v", err)
	}

	p.play(t, "e2e4")
	p.white.Resign()
	p.mustSync(t)

	if err := p.white.RequestRematch(); err != nil {
		t.Fatal(err)
	}
	p.mustSync(t)
	if got := p.black.Snapshot().RematchOffer; got != OfferReceived {
		t.Fatalf("expected OfferReceived, got %d", got)
	}
	if err := p.black.RespondRematch(true); err != nil {
		t.Fatal(err)
	}
	p.mustSync(t)

	if p.white.Local() != chess.Black || p.black.Local() != chess.White {
		t.Errorf("colors not swapped: %s and %s", p.white.Local(), p.black.Local())
	}
	for _, m := range []*Match{p.white, p.black} {
		snap := m.Snapshot()
		if snap.State != StateInProgress {
			t.Errorf("expected %s, got %s", StateInProgress, snap.State)
		}
		if m.FEN() != chess.StartFEN {
			t.Errorf("board not reset: %s", m.FEN())
		}
		if snap.Players != [2]string{"bob", "alice"} {
			t.Errorf("names not swapped: %v", snap.Players)
		}
		if snap.LastMove != nil {
			t.Errorf("last move should be cleared, got %+v", snap.LastMove)
		}
	}

	// The former black player now opens.
	if err := p.black.ProposeMove(rf("d2"), rf("d4")); err != nil {
		t.Fatal(err)
	}
	p.mustSync(t)
	if p.white.FEN() != p.black.FEN() {
		t.Errorf("boards differ after rematch: %q vs %q", p.white.FEN(), p.black.FEN())
	}
}

func TestMatchRematchDeclined(t *testing.T) {
	p := newMatchPair(t)
	p.black.Resign()
	p.mustSync(t)

	p.black.RequestRematch()
	p.mustSync(t)
	if err := p.white.RespondRematch(false); err != nil {
		t.Fatal(err)
	}
	p.mustSync(t)

	for _, m := range []*Match{p.white, p.black} {
		snap := m.Snapshot()
		if snap.State != StateResigned || snap.RematchOffer != OfferNone {
			t.Errorf("%s: got %s with offer %d", m.Local(), snap.State, snap.RematchOffer)
		}
	}
}

func TestMatchOpponentLeft(t *testing.T) {
	p := newMatchPair(t)

	if err := p.black.Handle(MessageOpponentLeft{MatchId: "m1"}); err != nil {
		t.Fatal(err)
	}
	if p.black.State() != StateAbandoned {
		t.Errorf("expected %s, got %s", StateAbandoned, p.black.State())
	}
	if o := p.black.Outcome(); o.Winner != chess.Black || o.Reason != chess.ReasonAbandoned {
		t.Errorf("unexpected outcome %s", o)
	}
	if err := p.black.RequestRematch(); !errors.Is(err, ErrOpponentLeft) {
		t.Errorf("expected ErrOpponentLeft, got %v", err)
	}
}

func TestMatchOpponentLeftAfterGameKeepsResult(t *testing.T) {
	p := newMatchPair(t)
	p.white.Resign()
	p.mustSync(t)

	p.black.Handle(MessageOpponentLeft{MatchId: "m1"})
	if p.black.State() != StateResigned {
		t.Errorf("expected %s, got %s", StateResigned, p.black.State())
	}
	if !p.black.Snapshot().OpponentLeft {
		t.Error("opponent should be marked as gone")
	}
}

func TestMatchClockExpires(t *testing.T) {
	players := [2]string{"alice", "bob"}
	m := NewMatch("m1", chess.White, players, nil)
	cl := m.UseClock(ClockSetting{Minutes: 1})
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}

	var over []chess.Outcome
	m.OnOver(func(o chess.Outcome) { over = append(over, o) })

	cl.Advance(30 * time.Second)
	if m.State() != StateInProgress {
		t.Fatalf("expired too early: %s", m.State())
	}
	cl.Advance(31 * time.Second)
	cl.Advance(time.Second)

	if m.State() != StateTimeout {
		t.Errorf("expected %s, got %s", StateTimeout, m.State())
	}
	if len(over) != 1 {
		t.Fatalf("expected one game over, got %d", len(over))
	}
	if over[0].Winner != chess.Black || over[0].Reason != chess.ReasonTimeout {
		t.Errorf("unexpected outcome %s", over[0])
	}
}

func TestMatchClockSwitchesOnMove(t *testing.T) {
	p := newMatchPair(t)
	setting := ClockSetting{Minutes: 1, Increment: 2}
	wClock := p.white.UseClock(setting)
	bClock := p.black.UseClock(setting)
	wClock.Start(chess.White)
	bClock.Start(chess.White)

	wClock.Advance(10 * time.Second)
	p.play(t, "e2e4")
	wClock.Advance(5 * time.Second)

	snap := p.white.Snapshot()
	if !snap.Timed {
		t.Fatal("match should be timed")
	}
	if snap.Clock[chess.White] != 52*time.Second {
		t.Errorf("white: expected 52s, got %s", snap.Clock[chess.White])
	}
	if snap.Clock[chess.Black] != 55*time.Second {
		t.Errorf("black: expected 55s, got %s", snap.Clock[chess.Black])
	}
}

func TestMatchLegalDestinations(t *testing.T) {
	players := [2]string{"alice", "bob"}
	m := NewMatch("m1", chess.White, players, nil)

	if got := m.LegalDestinations(rf("e2")); len(got) != 0 {
		t.Errorf("expected nothing before start, got %v", got)
	}
	m.Start()

	var got []string
	for _, d := range m.LegalDestinations(rf("e2")) {
		got = append(got, d.String())
	}
	sort.Strings(got)
	if len(got) != 2 || got[0] != "e3" || got[1] != "e4" {
		t.Errorf("expected [e3 e4], got %v", got)
	}
	if got := m.LegalDestinations(rf("e7")); len(got) != 0 {
		t.Errorf("enemy pieces have no hints, got %v", got)
	}
	if got := m.LegalDestinations(rf("e4")); len(got) != 0 {
		t.Errorf("empty squares have no hints, got %v", got)
	}
}

func TestMatchSnapshotMismatchDesyncs(t *testing.T) {
	p := newMatchPair(t)

	if err := p.white.Handle(MessageGame{Fen: chess.StartFEN, IsTurn: true}); err != nil {
		t.Errorf("matching snapshot should pass, got %v", err)
	}
	err := p.black.Handle(MessageGame{Fen: chess.StartFEN, IsTurn: true})
	if !errors.Is(err, ErrDesync) {
		t.Errorf("expected ErrDesync, got %v", err)
	}
}

func TestMatchHandleTransportMalformed(t *testing.T) {
	p := newMatchPair(t)

	tr := MessageTransport{MsgType: TypeMessageMove, Data: []byte(`{"from":"z9","to":"e4"}`)}
	if err := p.black.HandleTransport(tr); !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("expected ErrMalformedMessage, got %v", err)
	}
	if p.black.State() != StateInProgress {
		t.Errorf("state changed to %s", p.black.State())
	}

	tr = NewTransport(MessageMove{MatchId: "m1", Move: chess.Move{From: rf("e2"), To: rf("e4"), Turn: chess.White}})
	if err := p.black.HandleTransport(tr); err != nil {
		t.Fatal(err)
	}
	if !p.black.Snapshot().IsTurn() {
		t.Error("black should be on move")
	}
}

func TestMatchStartTwice(t *testing.T) {
	p := newMatchPair(t)
	if err := p.white.Start(); err == nil {
		t.Error("expected an error starting twice")
	}
}
