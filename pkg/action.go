package pkg

import (
	"strings"
)

// Action is a player command, typed in line mode or bound to a button.
type Action string

const (
	ActionNone    Action = ""
	ActionMove    Action = "move"
	ActionResign  Action = "resign"
	ActionDraw    Action = "draw"
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionRematch Action = "rematch"
	ActionBoard   Action = "board"
	ActionHelp    Action = "help"
	ActionExit    Action = "exit"
)

var actionLabels = map[Action]string{
	ActionResign:  "Resign",
	ActionDraw:    "Offer Draw",
	ActionAccept:  "Accept",
	ActionDecline: "Decline",
	ActionRematch: "Rematch",
	ActionExit:    "Exit",
}

// Label is the button text of a.
func (a Action) Label() string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return string(a)
}

var actionAliases = map[string]Action{
	"resign":  ActionResign,
	"draw":    ActionDraw,
	"accept":  ActionAccept,
	"yes":     ActionAccept,
	"decline": ActionDecline,
	"no":      ActionDecline,
	"rematch": ActionRematch,
	"board":   ActionBoard,
	"help":    ActionHelp,
	"?":       ActionHelp,
	"exit":    ActionExit,
	"quit":    ActionExit,
}

// ParseAction reads one line of input. Anything that is not a known command
// is taken as a move and returned as the argument.
func ParseAction(line string) (Action, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return ActionNone, ""
	}
	if a, ok := actionAliases[strings.ToLower(line)]; ok {
		return a, ""
	}
	return ActionMove, line
}

const actionHelp = `Commands:
  e2e4      move a piece, also e2-e4
  resign    give up the game
  draw      offer a draw
  accept    accept the pending draw or rematch offer
  decline   decline the pending offer
  rematch   ask for another game once this one is over
  board     show the board again
  quit      leave
`
