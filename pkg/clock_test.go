package pkg

import (
	"testing"
	"time"

	"github.com/qnkhuat/termchess/pkg/chess"
)

func TestClockPausedUntilStarted(t *testing.T) {
	cl := NewClock(ClockSetting{Minutes: 5}, nil)
	cl.Advance(time.Minute)
	if got := cl.Remaining(chess.White); got != 5*time.Minute {
		t.Errorf("paused clock moved: %s", got)
	}

	cl.Start(chess.White)
	cl.Advance(time.Minute)
	if got := cl.Remaining(chess.White); got != 4*time.Minute {
		t.Errorf("expected 4m, got %s", got)
	}
	if got := cl.Remaining(chess.Black); got != 5*time.Minute {
		t.Errorf("black clock moved: %s", got)
	}
}

func TestClockIncrement(t *testing.T) {
	cl := NewClock(ClockSetting{Minutes: 3, Increment: 2}, nil)
	cl.Start(chess.White)

	cl.Advance(10 * time.Second)
	cl.Switch()
	cl.Advance(20 * time.Second)
	cl.Switch()

	if got := cl.Remaining(chess.White); got != 2*time.Minute+52*time.Second {
		t.Errorf("white: expected 2:52, got %s", got)
	}
	if got := cl.Remaining(chess.Black); got != 2*time.Minute+42*time.Second {
		t.Errorf("black: expected 2:42, got %s", got)
	}
}

func TestClockExpiresOnce(t *testing.T) {
	var expired []chess.Side
	cl := NewClock(ClockSetting{Seconds: 10}, func(side chess.Side) {
		expired = append(expired, side)
	})
	cl.Start(chess.Black)

	cl.Advance(11 * time.Second)
	cl.Advance(time.Second)
	cl.Start(chess.White)
	cl.Advance(time.Minute)

	if len(expired) != 1 || expired[0] != chess.Black {
		t.Errorf("expected one expiry for black, got %v", expired)
	}
	if got := cl.Remaining(chess.Black); got != 0 {
		t.Errorf("expected 0 left, got %s", got)
	}
	if got := cl.Format(chess.Black); got != "0:00" {
		t.Errorf("expected 0:00, got %s", got)
	}
}

func TestClockReset(t *testing.T) {
	cl := NewClock(ClockSetting{Minutes: 1}, nil)
	cl.Start(chess.White)
	cl.Advance(2 * time.Minute)

	cl.Reset()
	cl.Start(chess.White)
	cl.Advance(15 * time.Second)
	if got := cl.Remaining(chess.White); got != 45*time.Second {
		t.Errorf("expected 45s after reset, got %s", got)
	}
}

func TestClockUntimed(t *testing.T) {
	var nilClock *Clock
	for _, cl := range []*Clock{nilClock, NewClock(ClockSetting{}, nil)} {
		if !cl.Untimed() {
			t.Error("expected untimed clock")
		}
		cl.Start(chess.White)
		cl.Advance(time.Hour)
		cl.Switch()
		cl.Stop()
		if got := cl.Format(chess.White); got != "--:--" {
			t.Errorf("expected --:--, got %s", got)
		}
	}
}

func TestClockFormat(t *testing.T) {
	cl := NewClock(ClockSetting{Minutes: 10, Seconds: 5}, nil)
	if got := cl.Format(chess.White); got != "10:05" {
		t.Errorf("expected 10:05, got %s", got)
	}
}

func TestClockRunStops(t *testing.T) {
	cl := NewClock(ClockSetting{Minutes: 1}, nil)
	done := make(chan struct{})
	go func() {
		cl.Run()
		close(done)
	}()
	cl.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
