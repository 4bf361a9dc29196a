// Package telemetry defines the position source used by the monitor and the
// connection state machine driving it.
package telemetry

import (
	"errors"
	"time"
)

var ErrNotLive = errors.New("telemetry source is not live")

// Source provides the lap position of the monitored car.
type Source interface {
	// IsLive reports whether the source currently delivers data.
	IsLive() bool
	// Connect establishes the connection if needed and reports whether
	// the source is connected now. Calling Connect repeatedly is fine.
	Connect() bool
	Disconnect()
	// ReadPosition returns the lap distance in [0,1). Valid only while live.
	ReadPosition() (float64, error)
}

// State of a Session
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Transition is the result of a Session.Check
type Transition int

const (
	None Transition = iota
	Established
	Lost
)

func (t Transition) String() string {
	switch t {
	case Established:
		return "established"
	case Lost:
		return "lost"
	default:
		return "none"
	}
}

// Freshness tracks the time of the last received sample for push based
// sources. A zero timeout means samples never go stale.
type Freshness struct {
	timeout time.Duration
	now     func() time.Time
	last    time.Time
}

func NewFreshness(timeout time.Duration, now func() time.Time) Freshness {
	if now == nil {
		now = time.Now
	}
	return Freshness{timeout: timeout, now: now}
}

func (f *Freshness) Touch() {
	f.last = f.now()
}

func (f *Freshness) Reset() {
	f.last = time.Time{}
}

func (f *Freshness) Fresh() bool {
	if f.last.IsZero() {
		return false
	}
	return f.timeout == 0 || f.now().Sub(f.last) <= f.timeout
}
