package livedata

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	livedatav1 "buf.build/gen/go/mpapenbr/iracelog/protocolbuffers/go/iracelog/livedata/v1"
	racestatev1 "buf.build/gen/go/mpapenbr/iracelog/protocolbuffers/go/iracelog/racestate/v1"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry"
)

type fakeStream struct {
	ctx    context.Context
	ch     chan *livedatav1.LiveRaceStateResponse
	cur    *livedatav1.LiveRaceStateResponse
	closed bool
	mu     sync.Mutex
}

func (f *fakeStream) Receive() bool {
	select {
	case <-f.ctx.Done():
		return false
	case msg, ok := <-f.ch:
		if !ok {
			return false
		}
		f.cur = msg
		return true
	}
}

func (f *fakeStream) Msg() *livedatav1.LiveRaceStateResponse { return f.cur }
func (f *fakeStream) Err() error                             { return nil }
func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func carState(carIdx int32, pos float32) *livedatav1.LiveRaceStateResponse {
	return &livedatav1.LiveRaceStateResponse{
		Cars: []*racestatev1.Car{
			{CarIdx: carIdx + 1, TrackPos: 0.99},
			{CarIdx: carIdx, TrackPos: pos},
		},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestSource(t *testing.T) {
	ch := make(chan *livedatav1.LiveRaceStateResponse)
	var stream *fakeStream
	open := func(ctx context.Context) (Stream, error) {
		stream = &fakeStream{ctx: ctx, ch: ch}
		return stream, nil
	}
	s := New(open, 3, WithStaleDuration(time.Minute))
	assert.False(t, s.IsLive())
	assert.True(t, s.Connect())
	assert.False(t, s.IsLive(), "no data received yet")

	ch <- carState(3, 0.25)
	waitFor(t, s.IsLive)
	pos, err := s.ReadPosition()
	assert.NoError(t, err)
	assert.InDelta(t, 0.25, pos, 1e-6)

	ch <- carState(3, 0.5)
	waitFor(t, func() bool {
		p, _ := s.ReadPosition()
		return p == 0.5
	})

	s.Disconnect()
	assert.False(t, s.IsLive())
	_, err = s.ReadPosition()
	assert.ErrorIs(t, err, telemetry.ErrNotLive)
	waitFor(t, func() bool {
		stream.mu.Lock()
		defer stream.mu.Unlock()
		return stream.closed
	})
}

func TestSourceStale(t *testing.T) {
	now := time.Date(2024, 4, 28, 11, 10, 12, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	ch := make(chan *livedatav1.LiveRaceStateResponse)
	open := func(ctx context.Context) (Stream, error) {
		return &fakeStream{ctx: ctx, ch: ch}, nil
	}
	s := New(open, 1, WithStaleDuration(time.Second), WithClock(clock))
	s.Connect()
	ch <- carState(1, 0.1)
	waitFor(t, s.IsLive)

	mu.Lock()
	now = now.Add(2 * time.Second)
	mu.Unlock()
	assert.False(t, s.IsLive())
	s.Disconnect()
}

func TestSourceOtherCarsOnly(t *testing.T) {
	ch := make(chan *livedatav1.LiveRaceStateResponse, 1)
	open := func(ctx context.Context) (Stream, error) {
		return &fakeStream{ctx: ctx, ch: ch}, nil
	}
	s := New(open, 7)
	s.Connect()
	ch <- carState(1, 0.1)
	// second message makes sure the first one was processed
	ch <- carState(2, 0.1)
	assert.False(t, s.IsLive())
	s.Disconnect()
}

func TestSourceStreamEnds(t *testing.T) {
	ch := make(chan *livedatav1.LiveRaceStateResponse)
	opened := 0
	open := func(ctx context.Context) (Stream, error) {
		opened++
		return &fakeStream{ctx: ctx, ch: ch}, nil
	}
	s := New(open, 1)
	s.Connect()
	ch <- carState(1, 0.1)
	waitFor(t, s.IsLive)
	close(ch)
	waitFor(t, func() bool { return !s.IsLive() })
	assert.Equal(t, 1, opened)
}

func TestSourceConnectFails(t *testing.T) {
	open := func(ctx context.Context) (Stream, error) {
		return nil, errors.New("unavailable")
	}
	s := New(open, 1)
	assert.False(t, s.Connect())
	assert.False(t, s.IsLive())
}
