//nolint:funlen // ok for tests
package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	live        bool
	canConnect  bool
	connected   bool
	pos         float64
	readErr     error
	connects    int
	disconnects int
}

func (f *fakeSource) IsLive() bool { return f.connected && f.live }

func (f *fakeSource) Connect() bool {
	f.connects++
	if f.canConnect {
		f.connected = true
	}
	return f.connected
}

func (f *fakeSource) Disconnect() {
	f.disconnects++
	f.connected = false
}

func (f *fakeSource) ReadPosition() (float64, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.pos, nil
}

func TestSession_Check(t *testing.T) {
	src := &fakeSource{}
	s := NewSession(src)
	assert.Equal(t, Disconnected, s.State())

	// source not reachable
	assert.Equal(t, None, s.Check())
	assert.Equal(t, Disconnected, s.State())
	assert.Equal(t, 1, src.connects)

	// connection possible but no data yet
	src.canConnect = true
	assert.Equal(t, None, s.Check())
	assert.Equal(t, Disconnected, s.State())

	src.live = true
	assert.Equal(t, Established, s.Check())
	assert.Equal(t, Connected, s.State())

	// stays connected without calling Connect again
	connects := src.connects
	assert.Equal(t, None, s.Check())
	assert.Equal(t, connects, src.connects)

	src.live = false
	assert.Equal(t, Lost, s.Check())
	assert.Equal(t, Disconnected, s.State())
	assert.Equal(t, 1, src.disconnects)

	src.live = true
	assert.Equal(t, Established, s.Check())
}

func TestSession_Position(t *testing.T) {
	src := &fakeSource{canConnect: true, live: true, pos: 0.42}
	s := NewSession(src)

	_, ok, err := s.Position()
	assert.NoError(t, err)
	assert.False(t, ok, "no position while disconnected")

	s.Check()
	pos, ok, err := s.Position()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 0.42, pos, 1e-9)

	src.readErr = errors.New("boom")
	_, ok, err = s.Position()
	assert.Error(t, err)
	assert.False(t, ok)

	// no stale position after disconnect
	src.readErr = nil
	src.live = false
	s.Check()
	_, ok, err = s.Position()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_Close(t *testing.T) {
	src := &fakeSource{canConnect: true, live: true}
	s := NewSession(src)
	s.Check()
	s.Close()
	assert.Equal(t, 1, src.disconnects)
	assert.Equal(t, Disconnected, s.State())
}

func TestSession_CloseOpenedButNotLive(t *testing.T) {
	src := &fakeSource{canConnect: true, live: false}
	s := NewSession(src)
	assert.Equal(t, None, s.Check())
	assert.Equal(t, Disconnected, s.State())
	s.Close()
	assert.Equal(t, 1, src.disconnects)
}

func TestFreshness(t *testing.T) {
	now := time.Date(2024, 4, 28, 11, 10, 12, 0, time.UTC)
	clock := func() time.Time { return now }
	f := NewFreshness(time.Second, clock)
	assert.False(t, f.Fresh(), "never touched")
	f.Touch()
	assert.True(t, f.Fresh())
	now = now.Add(time.Second)
	assert.True(t, f.Fresh())
	now = now.Add(time.Millisecond)
	assert.False(t, f.Fresh())
	f.Touch()
	f.Reset()
	assert.False(t, f.Fresh())

	noTimeout := NewFreshness(0, clock)
	noTimeout.Touch()
	now = now.Add(time.Hour)
	assert.True(t, noTimeout.Fresh())
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "established", Established.String())
	assert.Equal(t, "lost", Lost.String())
	assert.Equal(t, "none", None.String())
}
