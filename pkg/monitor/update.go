package monitor

import (
	"time"

	"github.com/mpapenbr/iracelog-sector-monitor/pkg/sector"
)

// Update is the outcome of one loop iteration with a position.
type Update struct {
	Session   string
	Timestamp time.Time
	Position  float64
	Result    sector.Result
}

//nolint:tagliatelle // wire format
type updateMessage struct {
	Session   string    `json:"session"`
	Timestamp time.Time `json:"timestamp"`
	Position  float64   `json:"position"`
	Kind      string    `json:"kind"`
	Sector    string    `json:"sector,omitempty"`
}

func (u *Update) message() updateMessage {
	return updateMessage{
		Session:   u.Session,
		Timestamp: u.Timestamp,
		Position:  u.Position,
		Kind:      u.Result.Kind.String(),
		Sector:    u.Result.Name,
	}
}
