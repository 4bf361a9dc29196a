// Package natssrc receives lap positions published on a NATS subject.
package natssrc

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	racestatev1 "buf.build/gen/go/mpapenbr/iracelog/protocolbuffers/go/iracelog/racestate/v1"
	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry"
)

const (
	EncodingJSON  = "json"
	EncodingProto = "proto"
)

var ErrUnknownEncoding = errors.New("unknown encoding")

type (
	// Decoder extracts the position of the monitored car from a message.
	// ok is false if the message does not contain the car.
	Decoder func(data []byte) (pos float64, ok bool, err error)

	Option func(*Source)
	Source struct {
		mu         sync.Mutex
		conn       *nats.Conn
		subject    string
		decode     Decoder
		staleAfter time.Duration
		now        func() time.Time
		fresh      telemetry.Freshness
		sub        *nats.Subscription
		pos        float64
		l          *log.Logger
	}
)

var _ telemetry.Source = (*Source)(nil)

//nolint:tagliatelle // wire format
type jsonPosition struct {
	CarIdx   *int32   `json:"carIdx"`
	TrackPos *float64 `json:"trackPos"`
}

// NewDecoder returns the decoder for encoding.
// JSON messages look like {"carIdx": 3, "trackPos": 0.42}, carIdx is optional.
// Proto messages are racestatev1.Car.
func NewDecoder(encoding string, carIdx int32) (Decoder, error) {
	switch encoding {
	case EncodingJSON:
		return func(data []byte) (float64, bool, error) {
			var msg jsonPosition
			if err := json.Unmarshal(data, &msg); err != nil {
				return 0, false, err
			}
			if msg.TrackPos == nil || (msg.CarIdx != nil && *msg.CarIdx != carIdx) {
				return 0, false, nil
			}
			return *msg.TrackPos, true, nil
		}, nil
	case EncodingProto:
		return func(data []byte) (float64, bool, error) {
			var msg racestatev1.Car
			if err := proto.Unmarshal(data, &msg); err != nil {
				return 0, false, err
			}
			if msg.GetCarIdx() != carIdx {
				return 0, false, nil
			}
			return float64(msg.GetTrackPos()), true, nil
		}, nil
	}
	return nil, fmt.Errorf("%s: %w", encoding, ErrUnknownEncoding)
}

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

func New(conn *nats.Conn, subject string, decode Decoder, opts ...Option) *Source {
	ret := &Source{
		conn:       conn,
		subject:    subject,
		decode:     decode,
		staleAfter: 10 * time.Second,
		now:        time.Now,
		l:          log.Default().Named("telemetry.nats"),
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
	return s.sub != nil && s.conn.IsConnected() && s.fresh.Fresh()
}

func (s *Source) Connect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return true
	}
	if !s.conn.IsConnected() {
		return false
	}
	sub, err := s.conn.Subscribe(s.subject, func(msg *nats.Msg) {
		s.handle(msg.Data)
	})
	if err != nil {
		s.l.Warn("could not subscribe", log.String("subject", s.subject), log.ErrorField(err))
		return false
	}
	s.sub = sub
	s.fresh.Reset()
	return true
}

func (s *Source) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			s.l.Debug("unsubscribe failed", log.ErrorField(err))
		}
		s.sub = nil
	}
	s.fresh.Reset()
}

func (s *Source) ReadPosition() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil || !s.fresh.Fresh() {
		return 0, telemetry.ErrNotLive
	}
	return s.pos, nil
}

func (s *Source) handle(data []byte) {
	pos, ok, err := s.decode(data)
	if err != nil {
		s.l.Debug("could not decode message", log.ErrorField(err))
		return
	}
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = pos
	s.fresh.Touch()
}
