package pkg

import (
	"fmt"
	"sync"
	"time"

	"github.com/qnkhuat/termchess/pkg/chess"
)

const ClockTick = 100 * time.Millisecond

// Clock is a two sided game clock. Only the side to move is running. When
// its time runs out the expire callback fires, exactly once.
type Clock struct {
	Duration  time.Duration
	Increment time.Duration

	remaining [2]time.Duration
	running   chess.Side
	paused    bool
	expired   bool
	onExpire  func(chess.Side)
	stop      chan struct{}
	stopOnce  sync.Once

	sync.Mutex
}

func NewClock(setting ClockSetting, onExpire func(chess.Side)) *Clock {
	cl := &Clock{
		Duration:  setting.Duration(),
		Increment: setting.IncrementDuration(),
		paused:    true,
		onExpire:  onExpire,
		stop:      make(chan struct{}),
	}
	cl.remaining[chess.White] = cl.Duration
	cl.remaining[chess.Black] = cl.Duration
	return cl
}

func (cl *Clock) Untimed() bool {
	return cl == nil || cl.Duration <= 0
}

// Run decrements the running side every tick until Stop is called.
func (cl *Clock) Run() {
	if cl.Untimed() {
		return
	}
	tick := time.NewTicker(ClockTick)
	defer tick.Stop()

	last := time.Now()
	for {
		select {
		case <-cl.stop:
			return
		case now := <-tick.C:
			cl.Advance(now.Sub(last))
			last = now
		}
	}
}

// Advance takes d off the running side.
func (cl *Clock) Advance(d time.Duration) {
	if cl.Untimed() {
		return
	}

	cl.Lock()
	if cl.paused || cl.expired {
		cl.Unlock()
		return
	}
	side := cl.running
	cl.remaining[side] -= d
	if cl.remaining[side] > 0 {
		cl.Unlock()
		return
	}
	cl.remaining[side] = 0
	cl.expired = true
	cl.paused = true
	onExpire := cl.onExpire
	cl.Unlock()

	if onExpire != nil {
		onExpire(side)
	}
}

// Start runs side's clock.
func (cl *Clock) Start(side chess.Side) {
	if cl.Untimed() {
		return
	}

	cl.Lock()
	defer cl.Unlock()
	if cl.expired {
		return
	}
	cl.running = side
	cl.paused = false
}

// Switch credits the increment to the side that just moved and starts the
// opponent's clock.
func (cl *Clock) Switch() {
	if cl.Untimed() {
		return
	}

	cl.Lock()
	defer cl.Unlock()
	if cl.expired {
		return
	}
	cl.remaining[cl.running] += cl.Increment
	cl.running = cl.running.Opponent()
}

func (cl *Clock) Pause() {
	if cl.Untimed() {
		return
	}
	cl.Lock()
	cl.paused = true
	cl.Unlock()
}

func (cl *Clock) Reset() {
	if cl.Untimed() {
		return
	}
	cl.Lock()
	cl.remaining[chess.White] = cl.Duration
	cl.remaining[chess.Black] = cl.Duration
	cl.running = chess.White
	cl.paused = true
	cl.expired = false
	cl.Unlock()
}

// Stop pauses the clock and ends the ticker goroutine for good.
func (cl *Clock) Stop() {
	if cl.Untimed() {
		return
	}
	cl.Pause()
	cl.stopOnce.Do(func() { close(cl.stop) })
}

func (cl *Clock) Remaining(side chess.Side) time.Duration {
	if cl.Untimed() {
		return 0
	}
	cl.Lock()
	defer cl.Unlock()
	return cl.remaining[side]
}

func (cl *Clock) Format(side chess.Side) string {
	if cl.Untimed() {
		return "--:--"
	}
	rem := cl.Remaining(side)
	return fmt.Sprintf("%d:%02d", int(rem.Minutes()), int(rem.Seconds())%60)
}
