package pkg

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qnkhuat/termchess/pkg/chess"
	"golang.org/x/exp/slices"
)

const (
	ServerPort        = ":1998"
	SshPort           = ":2222"
	MessageQueueSize  = 20
	MatchIdleTimeout  = 30 * time.Minute
	CleanIdleInterval = time.Minute
)

// ServerInterface is an additional front door, such as SSH, hosted next to
// the TCP listener.
type ServerInterface interface {
	Host() error
	Shutdown(reason string)
}

// Pairing is the server's record of two players matched together. The
// server never interprets their moves.
type Pairing struct {
	Id           string
	Players      [2]*Player
	Clock        ClockSetting
	LastActivity time.Time
}

func (m *Pairing) Opponent(p *Player) *Player {
	if m.Players[chess.White] == p {
		return m.Players[chess.Black]
	}
	return m.Players[chess.White]
}

// Server pairs players and relays their messages. All of its state is owned
// by the goroutine started in NewServer.
type Server struct {
	I []ServerInterface

	In         chan MessageTransport
	NewPlayers chan *Player
	left       chan *Player

	Players     map[string]*Player
	Matches     map[string]*Pairing
	playerMatch map[string]*Pairing
	queue       map[ClockSetting][]*Player

	listeners []net.Listener
	done      chan struct{}
	closeOnce sync.Once
	sync.Mutex
}

func NewServer(si ...ServerInterface) (*Server, error) {
	s := newServer(si...)
	for _, serverInterface := range si {
		if err := serverInterface.Host(); err != nil {
			return nil, err
		}
	}

	go s.run()
	return s, nil
}

func newServer(si ...ServerInterface) *Server {
	return &Server{
		I:           si,
		In:          make(chan MessageTransport, MessageQueueSize),
		NewPlayers:  make(chan *Player, MessageQueueSize),
		left:        make(chan *Player, MessageQueueSize),
		Players:     make(map[string]*Player),
		Matches:     make(map[string]*Pairing),
		playerMatch: make(map[string]*Pairing),
		queue:       make(map[ClockSetting][]*Player),
		done:        make(chan struct{}),
	}
}

func (s *Server) run() {
	clean := time.NewTicker(CleanIdleInterval)
	defer clean.Stop()

	for {
		select {
		case <-s.done:
			return
		case p := <-s.NewPlayers:
			s.addPlayer(p)
		case t := <-s.In:
			s.handle(t)
		case p := <-s.left:
			s.removePlayer(p)
		case now := <-clean.C:
			if n := s.CleanIdleMatches(now); n > 0 {
				log.Printf("Cleaned %d idle matches", n)
			}
		}
	}
}

// Listen accepts TCP connections on address until StopListening is called.
func (s *Server) Listen(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	s.Lock()
	s.listeners = append(s.listeners, listener)
	s.Unlock()

	log.Printf("Listening on %s", listener.Addr())
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
		s.AddConn(conn)
	}
}

func (s *Server) AddConn(conn net.Conn) *Player {
	p := NewPlayer(conn)
	s.NewPlayers <- p
	return p
}

func (s *Server) StopListening() {
	s.Lock()
	defer s.Unlock()
	for _, l := range s.listeners {
		l.Close()
	}
	s.listeners = nil
}

func (s *Server) Shutdown(reason string) {
	s.closeOnce.Do(func() {
		log.Printf("Shutting down: %s", reason)
		close(s.done)
		s.StopListening()
		for _, serverInterface := range s.I {
			serverInterface.Shutdown(reason)
		}
	})
}

func (s *Server) addPlayer(p *Player) {
	s.Players[p.Id] = p
	log.Printf("Incoming connection %s from %s", p.Id, p.Conn.RemoteAddr())

	go func() {
		for t := range p.In {
			select {
			case s.In <- t:
			case <-s.done:
				return
			}
		}
		select {
		case s.left <- p:
		case <-s.done:
		}
	}()
}

func (s *Server) removePlayer(p *Player) {
	s.dequeue(p)
	if m := s.playerMatch[p.Id]; m != nil {
		s.leaveMatch(p, m)
	}
	delete(s.Players, p.Id)
	p.Close()
	log.Printf("Player %s (%s) disconnected", p.Id, p.Name)
}

func (s *Server) handle(t MessageTransport) {
	p, ok := s.Players[t.PlayerId]
	if !ok {
		return
	}

	if t.MsgType.Relayed() {
		s.relay(p, t)
		return
	}

	switch t.MsgType {
	case TypeMessageFindMatch:
		msg, err := DecodeMessage(t)
		if err != nil {
			log.Printf("Dropped find match from %s: %s", p.Id, err)
			return
		}
		s.findMatch(p, msg.(MessageFindMatch))
	default:
		log.Printf("Dropped unexpected %s from %s", t.MsgType, p.Id)
	}
}

func (s *Server) findMatch(p *Player, req MessageFindMatch) {
	if m := s.playerMatch[p.Id]; m != nil {
		s.leaveMatch(p, m)
	}
	s.dequeue(p)

	p.Name = Nickname(req.Name)
	p.Clock = req.Clock

	waiting := s.queue[req.Clock]
	if len(waiting) == 0 {
		s.queue[req.Clock] = append(waiting, p)
		log.Printf("%s is waiting for a %s match", p.Name, req.Clock)
		return
	}

	opponent := waiting[0]
	s.queue[req.Clock] = waiting[1:]
	if len(s.queue[req.Clock]) == 0 {
		delete(s.queue, req.Clock)
	}
	s.pair(opponent, p, req.Clock)
}

func (s *Server) pair(a, b *Player, clock ClockSetting) *Pairing {
	players := [2]*Player{a, b}
	if rand.Intn(2) == 1 {
		players[0], players[1] = players[1], players[0]
	}

	m := &Pairing{
		Id:           uuid.NewString(),
		Players:      players,
		Clock:        clock,
		LastActivity: time.Now(),
	}
	s.Matches[m.Id] = m

	for _, side := range []chess.Side{chess.White, chess.Black} {
		p := players[side]
		p.Color = side
		s.playerMatch[p.Id] = m
		s.deliver(p, NewTransport(MessageMatchFound{
			MatchId:  m.Id,
			PlayerId: p.Id,
			Color:    side,
			White:    players[chess.White].Name,
			Black:    players[chess.Black].Name,
			Clock:    clock,
		}))
	}
	log.Printf("Match %s: %s (White) vs %s (Black), %s", m.Id, players[chess.White].Name, players[chess.Black].Name, clock)
	return m
}

// relay forwards t to the sender's opponent as is. Messages naming another
// match are dropped.
func (s *Server) relay(p *Player, t MessageTransport) {
	m := s.playerMatch[p.Id]
	if m == nil {
		log.Printf("Dropped %s from %s: not in a match", t.MsgType, p.Id)
		return
	}
	id, err := t.MatchId()
	if err != nil {
		log.Printf("Dropped %s from %s: %s", t.MsgType, p.Id, err)
		return
	}
	if id != m.Id {
		log.Printf("Dropped %s from %s: match %q is not %s", t.MsgType, p.Id, id, m.Id)
		return
	}
	m.LastActivity = time.Now()

	t.PlayerId = p.Id
	s.deliver(m.Opponent(p), t)
}

// deliver queues t for p without blocking the server loop. A player whose
// queue is full is disconnected.
func (s *Server) deliver(p *Player, t MessageTransport) {
	err := p.TryWrite(t)
	switch {
	case err == nil:
	case errors.Is(err, ErrQueueFull):
		log.Printf("Dropping %s (%s): %s", p.Id, p.Name, err)
		p.Close()
	default:
		log.Printf("Failed to send %s to %s: %s", t.MsgType, p.Id, err)
	}
}

func (s *Server) leaveMatch(p *Player, m *Pairing) {
	opponent := m.Opponent(p)
	delete(s.playerMatch, p.Id)
	delete(s.playerMatch, opponent.Id)
	delete(s.Matches, m.Id)

	s.deliver(opponent, NewTransport(MessageOpponentLeft{MatchId: m.Id}))
	log.Printf("Match %s: %s left", m.Id, p.Name)
}

func (s *Server) dequeue(p *Player) {
	waiting := s.queue[p.Clock]
	i := slices.IndexFunc(waiting, func(q *Player) bool { return q == p })
	if i < 0 {
		return
	}
	waiting = slices.Delete(waiting, i, i+1)
	if len(waiting) == 0 {
		delete(s.queue, p.Clock)
	} else {
		s.queue[p.Clock] = waiting
	}
}

// CleanIdleMatches forgets matches without traffic since MatchIdleTimeout.
// Both players are told their opponent left.
func (s *Server) CleanIdleMatches(now time.Time) int {
	cleaned := 0
	for id, m := range s.Matches {
		if now.Sub(m.LastActivity) < MatchIdleTimeout {
			continue
		}
		for _, p := range m.Players {
			delete(s.playerMatch, p.Id)
			s.deliver(p, NewTransport(MessageOpponentLeft{MatchId: id}))
		}
		delete(s.Matches, id)
		cleaned++
	}
	return cleaned
}
