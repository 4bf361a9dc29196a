package telemetry

import (
	"github.com/mpapenbr/iracelog-sector-monitor/log"
)

// Session is the connection state machine for a Source.
// It is not safe for concurrent use; the monitor loop owns it.
type Session struct {
	src   Source
	state State
	l     *log.Logger
}

func NewSession(src Source) *Session {
	return &Session{
		src:   src,
		state: Disconnected,
		l:     log.Default().Named("telemetry"),
	}
}

func (s *Session) State() State {
	return s.state
}

// Check polls the source and advances the state.
// A connected session whose source is no longer live gets disconnected.
// A disconnected session tries to connect and becomes connected once the
// source is live.
func (s *Session) Check() Transition {
	switch s.state {
	case Connected:
		if !s.src.IsLive() {
			s.src.Disconnect()
			s.state = Disconnected
			s.l.Info("source disconnected")
			return Lost
		}
	case Disconnected:
		if s.src.Connect() && s.src.IsLive() {
			s.state = Connected
			s.l.Info("source connected")
			return Established
		}
	}
	return None
}

// Position reads the current position. ok is false when the session is not
// connected. No position survives a disconnect.
func (s *Session) Position() (pos float64, ok bool, err error) {
	if s.state != Connected {
		return 0, false, nil
	}
	pos, err = s.src.ReadPosition()
	if err != nil {
		return 0, false, err
	}
	return pos, true, nil
}

// Close disconnects the source. A source that was opened but never became
// live is disconnected as well.
func (s *Session) Close() {
	s.src.Disconnect()
	s.state = Disconnected
}
