// Package sim provides a simulated car driving laps at constant speed.
package sim

import (
	"math"
	"sync"
	"time"

	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry"
)

type (
	Option func(*Source)
	// Source is a telemetry.Source for a simulated car.
	Source struct {
		mu        sync.Mutex
		lapTime   time.Duration
		startPos  float64
		now       func() time.Time
		connected bool
		start     time.Time
	}
)

var _ telemetry.Source = (*Source)(nil)

func WithLapTime(d time.Duration) Option {
	return func(s *Source) {
		s.lapTime = d
	}
}

// WithStartPos sets the lap position at connect time.
func WithStartPos(pos float64) Option {
	return func(s *Source) {
		s.startPos = pos
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		s.now = now
	}
}

func New(opts ...Option) *Source {
	ret := &Source{
		lapTime: 90 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (s *Source) IsLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Source) Connect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		s.connected = true
		s.start = s.now()
	}
	return true
}

func (s *Source) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

func (s *Source) ReadPosition() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return 0, telemetry.ErrNotLive
	}
	if s.lapTime <= 0 {
		return s.startPos, nil
	}
	laps := float64(s.now().Sub(s.start)) / float64(s.lapTime)
	_, frac := math.Modf(s.startPos + laps)
	return frac, nil
}
