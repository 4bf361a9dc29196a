package monitor

import (
	"encoding/json"
	"fmt"
	"io"
)

// Sink receives the updates of the loop.
type Sink interface {
	Publish(u *Update) error
}

type (
	ConsoleOption func(*ConsoleSink)
	// ConsoleSink prints the current sector.
	ConsoleSink struct {
		w           io.Writer
		onlyChanges bool
		showPos     bool
		last        string
	}
)

// WithOnlyChanges suppresses output while the rendered result stays the same.
func WithOnlyChanges(arg bool) ConsoleOption {
	return func(s *ConsoleSink) {
		s.onlyChanges = arg
	}
}

// WithPosition adds the lap position to the output.
func WithPosition(arg bool) ConsoleOption {
	return func(s *ConsoleSink) {
		s.showPos = arg
	}
}

func NewConsoleSink(w io.Writer, opts ...ConsoleOption) *ConsoleSink {
	ret := &ConsoleSink{w: w}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (s *ConsoleSink) Publish(u *Update) error {
	text := u.Result.String()
	if s.onlyChanges && text == s.last {
		return nil
	}
	s.last = text
	var err error
	if s.showPos {
		_, err = fmt.Fprintf(s.w, "Current sector: %s (%.4f)\n", text, u.Position)
	} else {
		_, err = fmt.Fprintf(s.w, "Current sector: %s\n", text)
	}
	return err
}

// Publisher is satisfied by *nats.Conn
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NatsSink publishes updates as JSON on <prefix>.<session>.
type NatsSink struct {
	pub    Publisher
	prefix string
}

func NewNatsSink(pub Publisher, prefix string) *NatsSink {
	return &NatsSink{pub: pub, prefix: prefix}
}

func (s *NatsSink) Subject(session string) string {
	return fmt.Sprintf("%s.%s", s.prefix, session)
}

func (s *NatsSink) Publish(u *Update) error {
	data, err := json.Marshal(u.message())
	if err != nil {
		return err
	}
	return s.pub.Publish(s.Subject(u.Session), data)
}
