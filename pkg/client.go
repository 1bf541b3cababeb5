package pkg

import (
	"fmt"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/qnkhuat/termchess/pkg/chess"
	"github.com/qnkhuat/termchess/pkg/gui"
	"github.com/rivo/tview"
)

const (
	pagePlay   = "play"
	pagePrompt = "prompt"
)

// Client is the full screen terminal client.
type Client struct {
	*Session
	Theme gui.Theme

	App     *tview.Application
	Pages   *tview.Pages
	Board   *tview.Table
	Info    *tview.TextView
	Message *tview.TextView

	// UI state, only touched from the tview event loop.
	selecting bool
	selected  chess.RankFile
	hints     []chess.RankFile
	prompt    string
}

func NewClient(s *Session, theme gui.Theme) *Client {
	cl := &Client{
		Session: s,
		Theme:   theme,
		App:     tview.NewApplication(),
		Board:   tview.NewTable(),
		Info:    tview.NewTextView().SetDynamicColors(true),
		Message: tview.NewTextView().SetDynamicColors(true),
		Pages:   tview.NewPages(),
	}

	options := tview.NewGrid().
		SetColumns(14, 14).
		SetRows(1, 1, 1, 1, 6, -1).
		AddItem(cl.button(ActionResign), 0, 0, 1, 1, 0, 0, false).
		AddItem(cl.button(ActionDraw), 0, 1, 1, 1, 0, 0, false).
		AddItem(cl.button(ActionRematch), 2, 0, 1, 1, 0, 0, false).
		AddItem(cl.button(ActionExit), 2, 1, 1, 1, 0, 0, false).
		AddItem(cl.Info, 4, 0, 1, 2, 0, 0, false).
		AddItem(cl.Message, 5, 0, 1, 2, 0, 0, false)

	layout := tview.NewGrid().
		SetRows(-1, 20, -1).
		SetColumns(-1, 30, 30, -1).
		AddItem(tview.NewBox(), 0, 0, 1, 4, 0, 0, false).
		AddItem(cl.Board, 1, 1, 1, 1, 0, 0, true).
		AddItem(options, 1, 2, 1, 1, 0, 0, false).
		AddItem(tview.NewBox(), 2, 0, 1, 4, 0, 0, false)

	cl.Pages.AddPage(pagePlay, layout, true, true)
	cl.initBoard()
	cl.setMessage("Waiting for an opponent...")

	s.OnMatch(cl.watch)
	return cl
}

func (cl *Client) button(a Action) *tview.Button {
	return tview.NewButton(a.Label()).SetSelectedFunc(func() {
		switch a {
		case ActionExit:
			cl.App.Stop()
		case ActionResign:
			cl.showPrompt("Resign?", []Action{ActionResign, ActionDecline}, func(choice Action) {
				if choice == ActionResign {
					cl.do(ActionResign)
				}
			})
		default:
			cl.do(a)
		}
		cl.App.SetFocus(cl.Board)
	})
}

func (cl *Client) do(a Action) {
	if err := cl.Session.Do(a, ""); err != nil {
		cl.setMessage(err.Error())
	}
}

func (cl *Client) initBoard() {
	cl.Board.SetSelectable(true, true)
	cl.Board.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape {
			cl.clearSelection()
			cl.render()
		}
	})
	cl.Board.SetSelectedFunc(cl.selectCell)
	cl.Board.Select(0, 1)
	gui.RenderTable(cl.Board, chess.NewStandardBoard(chess.White), nil, cl.Theme)
}

// selectCell picks a piece on the first selection and its destination on
// the second.
func (cl *Client) selectCell(row, col int) {
	m := cl.Match()
	if m == nil {
		return
	}
	coord, ok := gui.CellToCoord(row, col)
	if !ok {
		return
	}
	rf := m.Snapshot().Board.RankFileOf(coord)

	if cl.selecting {
		from := cl.selected
		cl.clearSelection()
		if !rf.Equal(from) {
			if err := m.ProposeMove(from, rf); err != nil {
				log.Printf("Rejected move %s%s: %s", from, rf, err)
				cl.setMessage(err.Error())
			}
		}
		cl.render()
		return
	}

	hints := m.LegalDestinations(rf)
	if len(hints) == 0 {
		return
	}
	cl.selecting = true
	cl.selected = rf
	cl.hints = hints
	cl.render()
}

func (cl *Client) clearSelection() {
	cl.selecting = false
	cl.selected = chess.RankFile{}
	cl.hints = nil
}

// watch hooks a new match into the UI.
func (cl *Client) watch(m *Match) {
	m.OnChange(func() {
		cl.App.QueueUpdateDraw(cl.render)
	})
	m.OnOver(func(o chess.Outcome) {
		cl.App.QueueUpdateDraw(func() {
			cl.setMessage(fmt.Sprintf("Game over: %s", o))
		})
	})
	cl.App.QueueUpdateDraw(func() {
		cl.clearSelection()
		cl.setMessage("Match found")
	})
}

func (cl *Client) render() {
	m := cl.Match()
	if m == nil {
		return
	}
	snap := m.Snapshot()

	marks := gui.LastMoveMarks(snap.Board, snap.LastMove)
	for _, h := range cl.hints {
		marks[snap.Board.CoordOf(h)] = gui.MarkHint
	}
	if cl.selecting {
		marks[snap.Board.CoordOf(cl.selected)] = gui.MarkSelected
	}
	gui.RenderTable(cl.Board, snap.Board, marks, cl.Theme)
	cl.renderInfo(snap)

	switch {
	case snap.DrawOffer == OfferReceived:
		cl.showPrompt("Draw?", []Action{ActionAccept, ActionDecline}, cl.do)
	case snap.RematchOffer == OfferReceived:
		cl.showPrompt("Rematch?", []Action{ActionAccept, ActionDecline}, cl.do)
	case cl.prompt != "" && cl.prompt != "Resign?":
		cl.hidePrompt()
	}
}

func (cl *Client) renderInfo(snap MatchSnapshot) {
	line := func(side chess.Side) string {
		marker := " "
		if snap.State == StateInProgress && snap.Turn == side {
			marker = ">"
		}
		clock := "--:--"
		if snap.Timed {
			clock = fmt.Sprintf("%d:%02d", int(snap.Clock[side].Minutes()), int(snap.Clock[side].Seconds())%60)
		}
		return fmt.Sprintf("%s %-16s %s", marker, snap.Players[side], clock)
	}

	top, bottom := snap.Local.Opponent(), snap.Local
	status := gui.StatusLine(snap.Turn, snap.Status, snap.Outcome, snap.State.Terminal())
	if snap.OpponentLeft {
		status += "\nOpponent left"
	}
	if snap.DrawOffer == OfferSent {
		status += "\nDraw offered"
	}
	if snap.RematchOffer == OfferSent {
		status += "\nRematch requested"
	}
	cl.Info.SetText(fmt.Sprintf("%s\n%s\n\n%s", line(top), line(bottom), status))
}

func (cl *Client) setMessage(msg string) {
	cl.Message.SetTextColor(cl.Theme.Msg)
	cl.Message.SetText(msg)
}

func (cl *Client) showPrompt(text string, choices []Action, done func(Action)) {
	if cl.prompt == text {
		return
	}
	cl.hidePrompt()

	labels := make([]string, len(choices))
	for i, c := range choices {
		labels[i] = c.Label()
	}
	modal := tview.NewModal().
		SetText(text).
		AddButtons(labels).
		SetDoneFunc(func(i int, label string) {
			cl.hidePrompt()
			if i >= 0 && i < len(choices) {
				done(choices[i])
			}
		})
	cl.prompt = text
	cl.Pages.AddPage(pagePrompt, modal, false, true)
	cl.App.SetFocus(modal)
}

func (cl *Client) hidePrompt() {
	if cl.prompt == "" {
		return
	}
	cl.prompt = ""
	cl.Pages.RemovePage(pagePrompt)
	cl.App.SetFocus(cl.Board)
}

// refreshClocks redraws the clocks until the connection closes.
func (cl *Client) refreshClocks() {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-cl.Done():
			cl.App.QueueUpdateDraw(func() {
				cl.setMessage("Disconnected from server")
			})
			return
		case <-t.C:
			m := cl.Match()
			if m == nil {
				continue
			}
			cl.App.QueueUpdateDraw(func() {
				cl.renderInfo(m.Snapshot())
			})
		}
	}
}

// Run asks for a match and blocks until the player exits.
func (cl *Client) Run() error {
	go cl.Session.Run()
	go cl.refreshClocks()
	if err := cl.FindMatch(); err != nil {
		return err
	}
	return cl.App.SetRoot(cl.Pages, true).EnableMouse(true).Run()
}
