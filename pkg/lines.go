package pkg

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/qnkhuat/termchess/pkg/chess"
	"github.com/qnkhuat/termchess/pkg/gui"
)

// LineClient plays over plain text streams, for pipes and dumb terminals.
type LineClient struct {
	*Session

	out io.Writer
	mu  sync.Mutex
}

func NewLineClient(s *Session, out io.Writer) *LineClient {
	lc := &LineClient{Session: s, out: out}
	s.OnMatch(lc.watch)
	return lc
}

func (lc *LineClient) printf(format string, a ...interface{}) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	fmt.Fprintf(lc.out, format, a...)
}

func (lc *LineClient) watch(m *Match) {
	m.OnChange(func() {
		lc.printBoard(m)
	})
	m.OnOver(func(o chess.Outcome) {
		lc.printf("Game over: %s\n", o)
	})
	lc.printf("Match found\n")
}

func (lc *LineClient) printBoard(m *Match) {
	snap := m.Snapshot()
	board := gui.RenderText(snap.Board, gui.LastMoveMarks(snap.Board, snap.LastMove))

	status := gui.StatusLine(snap.Turn, snap.Status, snap.Outcome, snap.State.Terminal())
	switch {
	case snap.DrawOffer == OfferReceived:
		status += ". Draw offered, accept or decline?"
	case snap.RematchOffer == OfferReceived:
		status += ". Rematch requested, accept or decline?"
	case snap.OpponentLeft:
		status += ". Opponent left"
	}
	lc.printf("\n%s vs %s\n%s%s\n", snap.Players[chess.White], snap.Players[chess.Black], board, status)
}

// Play reads commands from in until it is exhausted, the player quits or
// the connection drops.
func (lc *LineClient) Play(in io.Reader) error {
	go lc.Session.Run()
	if err := lc.FindMatch(); err != nil {
		return err
	}
	lc.printf("Waiting for an opponent... type help for commands\n")

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-lc.Done():
			lc.printf("Disconnected from server\n")
			return nil
		case err := <-errc:
			return err
		case line := <-lines:
			if quit := lc.exec(line); quit {
				return nil
			}
		}
	}
}

func (lc *LineClient) exec(line string) bool {
	a, arg := ParseAction(line)
	switch a {
	case ActionNone:
		return false
	case ActionExit:
		return true
	case ActionHelp:
		lc.printf("%s", actionHelp)
		return false
	case ActionBoard:
		if m := lc.Match(); m != nil {
			lc.printBoard(m)
		} else {
			lc.printf("%s\n", ErrNoMatch)
		}
		return false
	}

	if err := lc.Do(a, arg); err != nil {
		lc.printf("%s\n", err)
	}
	return false
}
