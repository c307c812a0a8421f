package clock

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Timeout is delivered when an armed deadline fires. Seq identifies which
// arming produced it; consumers drop fires whose Seq no longer matches the
// latest arming, so a stale timer can never close a newer turn.
type Timeout struct {
	DraftID uuid.UUID
	Seq     uint64
	FiredAt time.Time
}

// Clock owns the single live deadline for one draft. Arming replaces any
// existing timer atomically, pausing freezes the remaining time, and
// resuming re-arms with exactly what was left. Fires are delivered on the
// channel handed to New, never via callback, so the consumer serializes
// them with its other inputs.
type Clock struct {
	clk     clockwork.Clock
	draftID uuid.UUID
	out     chan<- Timeout

	mu        sync.Mutex
	seq       uint64
	timer     clockwork.Timer
	stop      chan struct{}
	deadline  time.Time
	remaining time.Duration
	paused    bool
}

func New(clk clockwork.Clock, draftID uuid.UUID, out chan<- Timeout) *Clock {
	return &Clock{clk: clk, draftID: draftID, out: out}
}

// ArmFor replaces the current deadline with one that fires after d.
// Returns the sequence number the resulting Timeout will carry.
func (c *Clock) ArmFor(d time.Duration) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armLocked(d)
}

// ArmUntil arms a deadline at an absolute time. A deadline already in the
// past fires immediately.
func (c *Clock) ArmUntil(deadline time.Time) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := deadline.Sub(c.clk.Now())
	if d < 0 {
		d = 0
	}
	return c.armLocked(d)
}

func (c *Clock) armLocked(d time.Duration) uint64 {
	c.stopLocked()
	c.seq++
	c.paused = false
	c.remaining = 0
	c.deadline = c.clk.Now().Add(d)

	timer := c.clk.NewTimer(d)
	stop := make(chan struct{})
	c.timer = timer
	c.stop = stop
	go c.wait(c.seq, timer, stop)

	log.Debug().
		Str("draft_id", c.draftID.String()).
		Uint64("seq", c.seq).
		Time("deadline", c.deadline).
		Dur("duration", d).
		Msg("armed one-shot deadline")
	return c.seq
}

func (c *Clock) wait(seq uint64, timer clockwork.Timer, stop chan struct{}) {
	select {
	case firedAt := <-timer.Chan():
		c.out <- Timeout{DraftID: c.draftID, Seq: seq, FiredAt: firedAt}
	case <-stop:
		stopAndDrainTimer(timer)
	}
}

// Cancel stops the live deadline, if any. A Timeout already in flight keeps
// its stale Seq and is dropped by the consumer.
func (c *Clock) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.paused = false
	c.remaining = 0
}

// Pause freezes the remaining time without firing. No-op when nothing is
// armed or the clock is already paused.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused || c.stop == nil {
		return
	}
	remaining := c.deadline.Sub(c.clk.Now())
	if remaining < 0 {
		remaining = 0
	}
	c.stopLocked()
	c.paused = true
	c.remaining = remaining
	log.Debug().
		Str("draft_id", c.draftID.String()).
		Dur("remaining", remaining).
		Msg("paused deadline")
}

// Resume re-arms with exactly the time left at Pause. Returns the new
// sequence number, or false when the clock was not paused.
func (c *Clock) Resume() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return 0, false
	}
	return c.armLocked(c.remaining), true
}

// Remaining reports the time left on the live or paused deadline.
func (c *Clock) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return c.remaining
	}
	if c.stop == nil {
		return 0
	}
	remaining := c.deadline.Sub(c.clk.Now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Deadline reports the absolute deadline of the live timer.
func (c *Clock) Deadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == nil {
		return time.Time{}, false
	}
	return c.deadline, true
}

// Seq reports the sequence number of the most recent arming.
func (c *Clock) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

func (c *Clock) stopLocked() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	c.stop = nil
	c.timer = nil
}

// stopAndDrainTimer safely stops a timer and drains its channel, following
// the pattern from the time.Timer.Stop documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
