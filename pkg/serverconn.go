package pkg

import (
	"bufio"
	"encoding/json"
	"errors"
	"log"
	"net"
	"sync"
	"time"
)

const (
	ConnTimeout       = 30 * time.Second
	KeepAliveInterval = 7 * time.Second
	ConnQueueSize     = 10
)

var (
	ErrConnClosed = errors.New("connection closed")
	ErrQueueFull  = errors.New("outgoing queue full")
)

// ServerConn moves newline delimited MessageTransport envelopes over a
// net.Conn. Both the server and the client use it.
type ServerConn struct {
	Conn net.Conn
	// PlayerId is stamped on every received envelope when set.
	PlayerId string

	In  chan MessageTransport
	out chan MessageTransport

	lastTransfer time.Time

	done      chan struct{}
	closeOnce sync.Once
	sync.Mutex
}

func NewServerConn(conn net.Conn, playerId string) *ServerConn {
	s := &ServerConn{
		Conn:         conn,
		PlayerId:     playerId,
		In:           make(chan MessageTransport, ConnQueueSize),
		out:          make(chan MessageTransport, ConnQueueSize),
		lastTransfer: time.Now(),
		done:         make(chan struct{}),
	}

	go s.handleRead()
	go s.handleWrite()
	go s.handleSendKeepAlive()
	return s
}

// Connect dials the server, retrying for a few seconds while it comes up.
func Connect(address string) (*ServerConn, error) {
	var (
		conn  net.Conn
		err   error
		tries int
	)
	for {
		conn, err = net.DialTimeout("tcp", address, ConnTimeout)
		if err == nil {
			return NewServerConn(conn, ""), nil
		}
		if tries > 25 {
			return nil, err
		}
		time.Sleep(250 * time.Millisecond)
		tries++
	}
}

// Write queues t for sending. It never blocks on a closed connection.
func (s *ServerConn) Write(t MessageTransport) error {
	select {
	case <-s.done:
		return ErrConnClosed
	default:
	}
	select {
	case s.out <- t:
		return nil
	case <-s.done:
		return ErrConnClosed
	}
}

// TryWrite queues t without blocking. It fails with ErrQueueFull when the
// queue has no room.
func (s *ServerConn) TryWrite(t MessageTransport) error {
	select {
	case <-s.done:
		return ErrConnClosed
	default:
	}
	select {
	case s.out <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Send wraps m in an envelope and queues it.
func (s *ServerConn) Send(m MessageInterface) error {
	return s.Write(NewTransport(m))
}

func (s *ServerConn) LastTransfer() time.Time {
	s.Lock()
	defer s.Unlock()
	return s.lastTransfer
}

func (s *ServerConn) touch() {
	s.Lock()
	s.lastTransfer = time.Now()
	s.Unlock()
}

// Done is closed once the connection terminates.
func (s *ServerConn) Done() <-chan struct{} {
	return s.done
}

func (s *ServerConn) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.Conn.Close()
	})
}

func (s *ServerConn) handleSendKeepAlive() {
	t := time.NewTicker(KeepAliveInterval)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			s.Send(MessagePing{})
		}
	}
}

func (s *ServerConn) handleRead() {
	defer close(s.In)
	defer s.Close()

	if err := s.Conn.SetReadDeadline(time.Now().Add(ConnTimeout)); err != nil {
		return
	}

	scanner := bufio.NewScanner(s.Conn)
	for scanner.Scan() {
		if err := s.Conn.SetReadDeadline(time.Now().Add(ConnTimeout)); err != nil {
			return
		}
		s.touch()

		var t MessageTransport
		if err := json.Unmarshal(scanner.Bytes(), &t); err != nil {
			log.Printf("Dropped malformed envelope: %s", err)
			continue
		}
		if t.MsgType == TypeMessagePing {
			continue
		}
		if s.PlayerId != "" {
			t.PlayerId = s.PlayerId
		}

		select {
		case s.In <- t:
		case <-s.done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Read failed: %s", err)
	}
}

func (s *ServerConn) handleWrite() {
	for {
		var t MessageTransport
		select {
		case <-s.done:
			return
		case t = <-s.out:
		}

		b, err := json.Marshal(t)
		if err != nil {
			log.Printf("Failed to encode %s: %s", t.MsgType, err)
			continue
		}
		b = append(b, '\n')

		if err := s.Conn.SetWriteDeadline(time.Now().Add(ConnTimeout)); err != nil {
			s.Close()
			return
		}
		if _, err := s.Conn.Write(b); err != nil {
			log.Printf("Failed to write %s: %s", t.MsgType, err)
			s.Close()
			return
		}
		s.touch()
	}
}
