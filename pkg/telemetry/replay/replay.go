// Package replay provides recorded lap positions as telemetry source.
//
// The recording holds one position per line. Empty lines and lines starting
// with # are ignored. Every ReadPosition consumes one sample; the source stops
// being live after the last one.
package replay

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry"
)

type Source struct {
	mu        sync.Mutex
	samples   []float64
	next      int
	loop      bool
	connected bool
}

var _ telemetry.Source = (*Source)(nil)

type Option func(*Source)

// WithLoop restarts the recording after the last sample.
func WithLoop(arg bool) Option {
	return func(s *Source) {
		s.loop = arg
	}
}

func New(samples []float64, opts ...Option) *Source {
	ret := &Source{samples: samples}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func FromFile(name string, opts ...Option) (*Source, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return New(samples, opts...), nil
}

// Read parses a recording.
func Read(r io.Reader) ([]float64, error) {
	ret := []float64{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ret = append(ret, v)
	}
	return ret, scanner.Err()
}

func (s *Source) IsLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected && s.next < len(s.samples)
}

func (s *Source) Connect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = len(s.samples) > 0
	return s.connected
}

func (s *Source) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

func (s *Source) ReadPosition() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected || s.next >= len(s.samples) {
		return 0, telemetry.ErrNotLive
	}
	v := s.samples[s.next]
	s.next++
	if s.loop && s.next == len(s.samples) {
		s.next = 0
	}
	return v, nil
}
