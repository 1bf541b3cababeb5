package pkg

import (
	"net"
	"regexp"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
	"github.com/qnkhuat/termchess/pkg/chess"
)

const maxNicknameLength = 16

var nickRegexp = regexp.MustCompile(`[^a-zA-Z0-9_\-!@#$%^&*+=,./]+`)

// Player is a connection on the server side.
type Player struct {
	Id   string
	Name string

	// Set while queued or paired.
	Clock ClockSetting
	Color chess.Side

	*ServerConn
}

func NewPlayer(conn net.Conn) *Player {
	id := uuid.NewString()
	return &Player{Id: id, Name: RandomName(), ServerConn: NewServerConn(conn, id)}
}

// Nickname strips unsupported characters from nick and limits its length.
// An empty result is replaced by a random name.
func Nickname(nick string) string {
	nick = nickRegexp.ReplaceAllString(nick, "")
	if len(nick) > maxNicknameLength {
		nick = nick[:maxNicknameLength]
	} else if nick == "" {
		nick = RandomName()
	}
	return nick
}

func RandomName() string {
	return petname.Generate(2, "-")
}
