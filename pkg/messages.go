package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/qnkhuat/termchess/pkg/chess"
)

var ErrMalformedMessage = errors.New("malformed message")

type MessageType int

// Values start at 100 so they never collide with an unset field.
const (
	TypeMessageFindMatch MessageType = iota + 100
	TypeMessageMatchFound
	TypeMessageMove
	TypeMessageResign
	TypeMessageRematch
	TypeMessageRematchRespond
	TypeMessageDrawOffer
	TypeMessageDrawRespond
	TypeMessageOpponentLeft
	TypeMessageGame
	TypeMessagePing
)

func (m MessageType) String() string {
	switch m {
	case TypeMessageFindMatch:
		return "TypeMessageFindMatch"
	case TypeMessageMatchFound:
		return "TypeMessageMatchFound"
	case TypeMessageMove:
		return "TypeMessageMove"
	case TypeMessageResign:
		return "TypeMessageResign"
	case TypeMessageRematch:
		return "TypeMessageRematch"
	case TypeMessageRematchRespond:
		return "TypeMessageRematchRespond"
	case TypeMessageDrawOffer:
		return "TypeMessageDrawOffer"
	case TypeMessageDrawRespond:
		return "TypeMessageDrawRespond"
	case TypeMessageOpponentLeft:
		return "TypeMessageOpponentLeft"
	case TypeMessageGame:
		return "TypeMessageGame"
	case TypeMessagePing:
		return "TypeMessagePing"
	default:
		return "Unknown MessageType"
	}
}

// Relayed reports whether the server forwards messages of this type to the
// opponent without interpreting them.
func (m MessageType) Relayed() bool {
	switch m {
	case TypeMessageMove, TypeMessageResign, TypeMessageRematch,
		TypeMessageRematchRespond, TypeMessageDrawOffer, TypeMessageDrawRespond:
		return true
	default:
		return false
	}
}

type MessageInterface interface {
	Type() MessageType
}

// MessageTransport is the envelope of every line on the wire.
type MessageTransport struct {
	MsgType  MessageType     `json:"type"`
	Data     json.RawMessage `json:"data"`
	PlayerId string          `json:"player_id,omitempty"`
}

func NewTransport(m MessageInterface) MessageTransport {
	return MessageTransport{MsgType: m.Type(), Data: Encode(m)}
}

// MatchId reads the match_id field of the payload without decoding the rest.
func (t MessageTransport) MatchId() (string, error) {
	var v struct {
		MatchId string `json:"match_id"`
	}
	if err := json.Unmarshal(t.Data, &v); err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformedMessage, err)
	}
	return v.MatchId, nil
}

// ClockSetting is a time control: base time plus increment per move. The
// zero value means untimed.
type ClockSetting struct {
	Minutes   int `json:"minutes"`
	Seconds   int `json:"seconds"`
	Increment int `json:"increment"`
}

func (c ClockSetting) Duration() time.Duration {
	return time.Duration(c.Minutes)*time.Minute + time.Duration(c.Seconds)*time.Second
}

func (c ClockSetting) IncrementDuration() time.Duration {
	return time.Duration(c.Increment) * time.Second
}

func (c ClockSetting) Untimed() bool {
	return c.Duration() <= 0
}

func (c ClockSetting) String() string {
	if c.Untimed() {
		return "untimed"
	}
	if c.Seconds == 0 {
		return fmt.Sprintf("%d+%d", c.Minutes, c.Increment)
	}
	return fmt.Sprintf("%d:%02d+%d", c.Minutes, c.Seconds, c.Increment)
}

// ParseClockSetting reads a time control written as minutes[:seconds][+increment],
// e.g. "5+3" or "0:30". An empty string or "untimed" is the zero setting.
func ParseClockSetting(s string) (ClockSetting, error) {
	var c ClockSetting
	s = strings.TrimSpace(s)
	if s == "" || s == "untimed" {
		return c, nil
	}

	base, inc, hasInc := strings.Cut(s, "+")
	mins, secs, hasSecs := strings.Cut(base, ":")

	var err error
	if c.Minutes, err = strconv.Atoi(mins); err != nil {
		return c, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	if hasSecs {
		if c.Seconds, err = strconv.Atoi(secs); err != nil {
			return c, fmt.Errorf("invalid clock %q: %w", s, err)
		}
	}
	if hasInc {
		if c.Increment, err = strconv.Atoi(inc); err != nil {
			return c, fmt.Errorf("invalid clock %q: %w", s, err)
		}
	}
	if c.Minutes < 0 || c.Seconds < 0 || c.Seconds > 59 || c.Increment < 0 {
		return ClockSetting{}, fmt.Errorf("invalid clock %q", s)
	}
	return c, nil
}

type MessageFindMatch struct {
	Name  string       `json:"name"`
	Clock ClockSetting `json:"clock"`
}

func (m MessageFindMatch) Type() MessageType {
	return TypeMessageFindMatch
}

type MessageMatchFound struct {
	MatchId  string       `json:"match_id"`
	PlayerId string       `json:"player_id"`
	Color    chess.Side   `json:"color"`
	White    string       `json:"white"`
	Black    string       `json:"black"`
	Clock    ClockSetting `json:"clock"`
}

func (m MessageMatchFound) Type() MessageType {
	return TypeMessageMatchFound
}

type MessageMove struct {
	MatchId string `json:"match_id,omitempty"`
	chess.Move
}

func (m MessageMove) Type() MessageType {
	return TypeMessageMove
}

type MessageResign struct {
	MatchId  string `json:"match_id"`
	PlayerId string `json:"player_id,omitempty"`
}

func (m MessageResign) Type() MessageType {
	return TypeMessageResign
}

type MessageRematch struct {
	MatchId  string `json:"match_id"`
	PlayerId string `json:"player_id,omitempty"`
}

func (m MessageRematch) Type() MessageType {
	return TypeMessageRematch
}

type MessageRematchRespond struct {
	MatchId  string `json:"match_id"`
	PlayerId string `json:"player_id,omitempty"`
	Accept   bool   `json:"accept"`
}

func (m MessageRematchRespond) Type() MessageType {
	return TypeMessageRematchRespond
}

type MessageDrawOffer struct {
	MatchId  string `json:"match_id"`
	PlayerId string `json:"player_id,omitempty"`
}

func (m MessageDrawOffer) Type() MessageType {
	return TypeMessageDrawOffer
}

type MessageDrawRespond struct {
	MatchId  string `json:"match_id"`
	PlayerId string `json:"player_id,omitempty"`
	Accept   bool   `json:"accept"`
}

func (m MessageDrawRespond) Type() MessageType {
	return TypeMessageDrawRespond
}

type MessageOpponentLeft struct {
	MatchId string `json:"match_id"`
}

func (m MessageOpponentLeft) Type() MessageType {
	return TypeMessageOpponentLeft
}

// MessageGame is a full position snapshot.
type MessageGame struct {
	Fen    string `json:"fen"`
	IsTurn bool   `json:"is_turn"`
}

func (m MessageGame) Type() MessageType {
	return TypeMessageGame
}

type MessagePing struct{}

func (m MessagePing) Type() MessageType {
	return TypeMessagePing
}

// Encode marshals a payload. Messages are plain structs, so a failure here
// is a programming error.
func Encode(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		log.Panic(err)
	}
	return data
}

func Decode(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedMessage, err)
	}
	return nil
}

// DecodeMessage unpacks the payload of t into its typed message.
func DecodeMessage(t MessageTransport) (MessageInterface, error) {
	var m MessageInterface
	switch t.MsgType {
	case TypeMessageFindMatch:
		var msg MessageFindMatch
		if err := Decode(t.Data, &msg); err != nil {
			return nil, err
		}
		m = msg
	case TypeMessageMatchFound:
		var msg MessageMatchFound
		if err := Decode(t.Data, &msg); err != nil {
			return nil, err
		}
		m = msg
	case TypeMessageMove:
		var msg MessageMove
		if err := Decode(t.Data, &msg); err != nil {
			return nil, err
		}
		if !msg.From.Valid() || !msg.To.Valid() {
			return nil, fmt.Errorf("%w: move without squares", ErrMalformedMessage)
		}
		m = msg
	case TypeMessageResign:
		var msg MessageResign
		if err := Decode(t.Data, &msg); err != nil {
			return nil, err
		}
		m = msg
	case TypeMessageRematch:
		var msg MessageRematch
		if err := Decode(t.Data, &msg); err != nil {
			return nil, err
		}
		m = msg
	case TypeMessageRematchRespond:
		var msg MessageRematchRespond
		if err := Decode(t.Data, &msg); err != nil {
			return nil, err
		}
		m = msg
	case TypeMessageDrawOffer:
		var msg MessageDrawOffer
		if err := Decode(t.Data, &msg); err != nil {
			return nil, err
		}
		m = msg
	case TypeMessageDrawRespond:
		var msg MessageDrawRespond
		if err := Decode(t.Data, &msg); err != nil {
			return nil, err
		}
		m = msg
	case TypeMessageOpponentLeft:
		var msg MessageOpponentLeft
		if err := Decode(t.Data, &msg); err != nil {
			return nil, err
		}
		m = msg
	case TypeMessageGame:
		var msg MessageGame
		if err := Decode(t.Data, &msg); err != nil {
			return nil, err
		}
		m = msg
	case TypeMessagePing:
		m = MessagePing{}
	default:
		return nil, fmt.Errorf("%w: unknown type %d", ErrMalformedMessage, int(t.MsgType))
	}
	return m, nil
}
