// Package livedata follows a car of a live iracelog event.
package livedata

import (
	"context"
	"sync"
	"time"

	livedatav1 "buf.build/gen/go/mpapenbr/iracelog/protocolbuffers/go/iracelog/livedata/v1"
	"connectrpc.com/connect"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/iracelog"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry"
)

type (
	// Stream is the part of the connect server stream used here
	Stream interface {
		Receive() bool
		Msg() *livedatav1.LiveRaceStateResponse
		Err() error
		Close() error
	}
	StreamOpener func(ctx context.Context) (Stream, error)

	Option func(*Source)
	Source struct {
		mu         sync.Mutex
		open       StreamOpener
		carIdx     int32
		fresh      telemetry.Freshness
		staleAfter time.Duration
		now        func() time.Time
		pos        float64
		cancel     context.CancelFunc
		l          *log.Logger
	}
)

var _ telemetry.Source = (*Source)(nil)

func WithStaleDuration(d time.Duration) Option {
	return func(s *Source) {
		s.staleAfter = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		s.now = now
	}
}

// NewFromClient streams the live race states of event from the iracelog server.
func NewFromClient(c *iracelog.Client, event string, carIdx int32, opts ...Option) *Source {
	open := func(ctx context.Context) (Stream, error) {
		return c.LiveData().LiveRaceState(ctx,
			connect.NewRequest(&livedatav1.LiveRaceStateRequest{
				Event: iracelog.EventSelector(event),
			}))
	}
	return New(open, carIdx, opts...)
}

func New(open StreamOpener, carIdx int32, opts ...Option) *Source {
	ret := &Source{
		open:       open,
		carIdx:     carIdx,
		staleAfter: 10 * time.Second,
		now:        time.Now,
		l:          log.Default().Named("telemetry.livedata"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.fresh = telemetry.NewFreshness(ret.staleAfter, ret.now)
	return ret
}

func (s *Source) IsLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil && s.fresh.Fresh()
}

// Connect opens the stream unless it is already open.
// The result reports whether the stream is open.
func (s *Source) Connect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return true
	}
	ctx, cancel := context.WithCancel(context.Background())
	stream, err := s.open(ctx)
	if err != nil {
		cancel()
		s.l.Debug("could not open stream", log.ErrorField(err))
		return false
	}
	s.cancel = cancel
	s.fresh.Reset()
	go s.receive(ctx, stream)
	return true
}

func (s *Source) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnect()
}

func (s *Source) disconnect() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.fresh.Reset()
}

func (s *Source) ReadPosition() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil || !s.fresh.Fresh() {
		return 0, telemetry.ErrNotLive
	}
	return s.pos, nil
}

func (s *Source) receive(ctx context.Context, stream Stream) {
	defer stream.Close()
	for stream.Receive() {
		msg := stream.Msg()
		for _, c := range msg.GetCars() {
			if c.GetCarIdx() != s.carIdx {
				continue
			}
			s.mu.Lock()
			s.pos = float64(c.GetTrackPos())
			s.fresh.Touch()
			s.mu.Unlock()
			break
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		s.l.Warn("live data stream ended", log.ErrorField(err))
	}
	// the stream is gone, let the next Connect open a new one
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() == nil {
		s.disconnect()
	}
}
