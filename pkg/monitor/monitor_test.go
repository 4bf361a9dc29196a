//nolint:funlen // ok for tests
package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/iracelog-sector-monitor/pkg/sector"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry/replay"
)

var testTime = time.Date(2024, 4, 28, 11, 10, 12, 0, time.UTC)

type recordingSink struct {
	mu      sync.Mutex
	updates []*Update
}

func (r *recordingSink) Publish(u *Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
	return nil
}

func (r *recordingSink) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func sampleLocator(t *testing.T, opts ...sector.LocatorOption) *sector.Locator {
	t.Helper()
	tbl, err := sector.Build([]sector.Range{
		{Name: "S1", Start: 0.0, End: 0.3},
		{Name: "S2", Start: 0.5, End: 0.8},
	}, sector.DefaultResolution)
	assert.NoError(t, err)
	return sector.NewLocator(tbl, opts...)
}

func TestLoop_Step(t *testing.T) {
	src := replay.New([]float64{0.1, 0.4, 0.95})
	sink := &recordingSink{}
	l := NewLoop(telemetry.NewSession(src), sampleLocator(t),
		WithSinks(sink),
		WithSessionID("test"),
		WithClock(func() time.Time { return testTime }))

	for i := 0; i < 5; i++ {
		l.Step(context.Background())
	}
	want := []*Update{
		{Session: "test", Timestamp: testTime, Position: 0.1, Result: sector.Result{Kind: sector.Occupied, Name: "S1"}},
		{Session: "test", Timestamp: testTime, Position: 0.4, Result: sector.Result{Kind: sector.Approaching, Name: "S2"}},
		{Session: "test", Timestamp: testTime, Position: 0.95, Result: sector.Result{Kind: sector.NotFound}},
	}
	if diff := cmp.Diff(want, sink.updates); diff != "" {
		t.Errorf("updates mismatch (-want +got):\n%s", diff)
	}
}

type flakySource struct {
	live bool
	pos  float64
	err  error
}

func (f *flakySource) IsLive() bool                   { return f.live }
func (f *flakySource) Connect() bool                  { return true }
func (f *flakySource) Disconnect()                    {}
func (f *flakySource) ReadPosition() (float64, error) { return f.pos, f.err }

func TestLoop_StepSkipsWhileDisconnected(t *testing.T) {
	src := &flakySource{pos: 0.1}
	sink := &recordingSink{}
	l := NewLoop(telemetry.NewSession(src), sampleLocator(t), WithSinks(sink))

	assert.Nil(t, l.Step(context.Background()))
	src.live = true
	u := l.Step(context.Background())
	assert.NotNil(t, u)
	assert.Equal(t, "S1", u.Result.Name)

	src.live = false
	assert.Nil(t, l.Step(context.Background()))

	src.live = true
	src.err = errors.New("read failed")
	l.Step(context.Background()) // reconnect, read fails
	assert.Nil(t, l.Step(context.Background()))
	assert.Equal(t, 1, sink.len())
}

func TestLoop_WrapAround(t *testing.T) {
	src := replay.New([]float64{0.95})
	l := NewLoop(telemetry.NewSession(src), sampleLocator(t, sector.WithWrapAround(true)))
	u := l.Step(context.Background())
	assert.Equal(t, sector.Result{Kind: sector.Approaching, Name: "S1"}, u.Result)
}

func TestLoop_Run(t *testing.T) {
	samples := []float64{0.1, 0.2, 0.6}
	src := replay.New(samples)
	sink := &recordingSink{}
	reload := make(chan struct{})
	rebuilt := make(chan struct{})
	rebuild := func() (*sector.Locator, error) {
		defer close(rebuilt)
		tbl, err := sector.Build([]sector.Range{{Name: "X", Start: 0, End: 1}}, 100)
		return sector.NewLocator(tbl), err
	}
	l := NewLoop(telemetry.NewSession(src), sampleLocator(t),
		WithSinks(sink),
		WithInterval(time.Millisecond),
		WithReload(reload, rebuild))
	assert.NotEmpty(t, l.ID())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- l.Run(ctx) }()

	assert.Eventually(t, func() bool { return sink.len() == len(samples) },
		2*time.Second, time.Millisecond)
	reload <- struct{}{}
	<-rebuilt
	cancel()
	assert.NoError(t, <-done)
	assert.Equal(t, "X", l.locator.Locate(0.4).Name)
}

func TestLoop_ReloadFailureKeepsLocator(t *testing.T) {
	loc := sampleLocator(t)
	l := NewLoop(telemetry.NewSession(replay.New(nil)), loc,
		WithReload(nil, func() (*sector.Locator, error) {
			return nil, sector.ErrNoSectors
		}))
	l.doReload(context.Background())
	assert.Same(t, loc, l.locator)
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf)
	assert.NoError(t, s.Publish(&Update{Result: sector.Result{Kind: sector.Occupied, Name: "S1"}}))
	assert.NoError(t, s.Publish(&Update{Result: sector.Result{Kind: sector.Occupied, Name: "S1"}}))
	assert.NoError(t, s.Publish(&Update{Result: sector.Result{Kind: sector.Approaching, Name: "S2"}}))
	assert.NoError(t, s.Publish(&Update{Result: sector.Result{Kind: sector.NotFound}}))
	assert.Equal(t, "Current sector: S1\n"+
		"Current sector: S1\n"+
		"Current sector: approaching S2\n"+
		"Current sector: Sector not found\n", buf.String())
}

func TestConsoleSink_OnlyChanges(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf, WithOnlyChanges(true), WithPosition(true))
	for _, pos := range []float64{0.1, 0.2} {
		assert.NoError(t, s.Publish(&Update{Position: pos, Result: sector.Result{Kind: sector.Occupied, Name: "S1"}}))
	}
	assert.NoError(t, s.Publish(&Update{Position: 0.4, Result: sector.Result{Kind: sector.Approaching, Name: "S2"}}))
	assert.Equal(t, "Current sector: S1 (0.1000)\n"+
		"Current sector: approaching S2 (0.4000)\n", buf.String())
}

type fakePublisher struct {
	subject string
	data    []byte
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return nil
}

func TestNatsSink(t *testing.T) {
	pub := &fakePublisher{}
	s := NewNatsSink(pub, "sectormon.update")
	err := s.Publish(&Update{
		Session:   "abc",
		Timestamp: testTime,
		Position:  0.4,
		Result:    sector.Result{Kind: sector.Approaching, Name: "S2"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "sectormon.update.abc", pub.subject)

	var got map[string]any
	assert.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, map[string]any{
		"session":   "abc",
		"timestamp": "2024-04-28T11:10:12Z",
		"position":  0.4,
		"kind":      "approaching",
		"sector":    "S2",
	}, got)
}
