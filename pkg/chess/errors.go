package chess

import "errors"

var (
	ErrInvalidMove        = errors.New("invalid move")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrNoPiece            = errors.New("no piece at source square")
	ErrIllegalDestination = errors.New("destination is not reachable")
	ErrSelfCheck          = errors.New("move leaves own king in check")
	ErrGameOver           = errors.New("game is over")
	ErrInvalidFEN         = errors.New("invalid fen")
)
