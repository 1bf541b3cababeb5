package pkg

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/qnkhuat/termchess/pkg/chess"
)

var ErrNoMatch = errors.New("no match yet")

// Session is the client side of a server connection. It asks for a match
// and routes the opponent's messages to the current one.
type Session struct {
	Name  string
	Clock ClockSetting

	conn    *ServerConn
	match   *Match
	onMatch func(*Match)

	sync.Mutex
}

func NewSession(conn *ServerConn, name string, clock ClockSetting) *Session {
	return &Session{Name: name, Clock: clock, conn: conn}
}

// OnMatch registers f to be called each time the server pairs us.
func (s *Session) OnMatch(f func(*Match)) {
	s.Lock()
	s.onMatch = f
	s.Unlock()
}

func (s *Session) Match() *Match {
	s.Lock()
	defer s.Unlock()
	return s.match
}

// FindMatch queues the player on the server.
func (s *Session) FindMatch() error {
	return s.conn.Send(MessageFindMatch{Name: s.Name, Clock: s.Clock})
}

// Run handles server messages until the connection closes.
func (s *Session) Run() {
	for t := range s.conn.In {
		if err := s.handle(t); err != nil {
			log.Printf("Failed to handle %s: %s", t.MsgType, err)
		}
	}
	log.Println("Disconnected from server")
}

func (s *Session) Done() <-chan struct{} {
	return s.conn.Done()
}

func (s *Session) Close() {
	if m := s.Match(); m != nil {
		m.Close()
	}
	s.conn.Close()
}

func (s *Session) handle(t MessageTransport) error {
	if t.MsgType == TypeMessageMatchFound {
		msg, err := DecodeMessage(t)
		if err != nil {
			return err
		}
		return s.startMatch(msg.(MessageMatchFound))
	}

	m := s.Match()
	if m == nil {
		return ErrNoMatch
	}
	return m.HandleTransport(t)
}

func (s *Session) startMatch(found MessageMatchFound) error {
	m := NewMatch(found.MatchId, found.Color, [2]string{found.White, found.Black}, s.send)
	cl := m.UseClock(found.Clock)
	go cl.Run()

	s.Lock()
	prev := s.match
	s.match = m
	onMatch := s.onMatch
	s.Unlock()

	if prev != nil {
		prev.Close()
	}
	if onMatch != nil {
		onMatch(m)
	}
	return m.Start()
}

func (s *Session) send(msg MessageInterface) {
	if err := s.conn.Send(msg); err != nil {
		log.Printf("Failed to send %s: %s", msg.Type(), err)
	}
}

// Do performs a player command on the current match. Accept and decline
// answer whichever offer is pending.
func (s *Session) Do(a Action, arg string) error {
	m := s.Match()
	if m == nil {
		return ErrNoMatch
	}

	switch a {
	case ActionMove:
		mv, err := chess.ParseMove(arg, m.Local())
		if err != nil {
			return err
		}
		return m.ProposeMove(mv.From, mv.To)
	case ActionResign:
		return m.Resign()
	case ActionDraw:
		return m.OfferDraw()
	case ActionRematch:
		return m.RequestRematch()
	case ActionAccept, ActionDecline:
		accept := a == ActionAccept
		snap := m.Snapshot()
		switch {
		case snap.DrawOffer == OfferReceived:
			return m.RespondDraw(accept)
		case snap.RematchOffer == OfferReceived:
			return m.RespondRematch(accept)
		default:
			return ErrNoOffer
		}
	default:
		return fmt.Errorf("unsupported action %q", a)
	}
}
