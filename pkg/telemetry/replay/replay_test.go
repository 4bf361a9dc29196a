package replay

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry"
)

func TestRead(t *testing.T) {
	got, err := Read(strings.NewReader("# recorded at spa\n0.1\n\n  0.2 \n0.95\n"))
	assert.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.95}, got)

	_, err = Read(strings.NewReader("0.1\nabc\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestSource(t *testing.T) {
	s := New([]float64{0.1, 0.2})
	assert.False(t, s.IsLive())
	assert.True(t, s.Connect())
	assert.True(t, s.IsLive())

	for _, want := range []float64{0.1, 0.2} {
		got, err := s.ReadPosition()
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.False(t, s.IsLive(), "recording exhausted")
	_, err := s.ReadPosition()
	assert.ErrorIs(t, err, telemetry.ErrNotLive)
}

func TestSourceLoop(t *testing.T) {
	s := New([]float64{0.1, 0.2}, WithLoop(true))
	s.Connect()
	got := []float64{}
	for i := 0; i < 5; i++ {
		v, err := s.ReadPosition()
		assert.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []float64{0.1, 0.2, 0.1, 0.2, 0.1}, got)
	assert.True(t, s.IsLive())
}

func TestEmptySource(t *testing.T) {
	s := New(nil)
	assert.False(t, s.Connect())
	assert.False(t, s.IsLive())
}

func TestFromFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "lap.txt")
	assert.NoError(t, os.WriteFile(name, []byte("0.5\n0.6\n"), 0o600))
	s, err := FromFile(name)
	assert.NoError(t, err)
	assert.True(t, s.Connect())

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
