package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/cmd/util"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/config"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry/livedata"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry/natssrc"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry/replay"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry/sim"
)

const (
	SourceSim      = "sim"
	SourceReplay   = "replay"
	SourceLivedata = "livedata"
	SourceNats     = "nats"
)

var (
	ErrUnknownSource = errors.New("unknown telemetry source")
	ErrMissingArg    = errors.New("missing argument")
)

// natsConn connects to NATS on first use
type natsConn struct {
	conn *nats.Conn
}

func (n *natsConn) get() (*nats.Conn, error) {
	if n.conn != nil {
		return n.conn, nil
	}
	log.Info("Connecting to NATS", log.String("url", config.NatsURL))
	conn, err := nats.Connect(config.NatsURL,
		nats.Name("sectormon"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", log.ErrorField(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected", log.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	n.conn = conn
	return conn, nil
}

func (n *natsConn) close() {
	if n.conn != nil {
		if err := n.conn.Drain(); err != nil {
			log.Warn("NATS drain", log.ErrorField(err))
		}
	}
}

func createSource(ctx context.Context, nc *natsConn) (telemetry.Source, error) {
	staleDuration := util.ParseDuration(config.StaleDuration, 10*time.Second)
	switch config.SourceType {
	case SourceSim:
		return sim.New(
			sim.WithLapTime(util.ParseDuration(config.SimLapTime, 90*time.Second)),
			sim.WithStartPos(config.SimStartPos),
		), nil
	case SourceReplay:
		if config.ReplayFile == "" {
			return nil, fmt.Errorf("%w: --replay-file", ErrMissingArg)
		}
		src, err := replay.FromFile(config.ReplayFile, replay.WithLoop(config.ReplayLoop))
		if err != nil {
			return nil, err
		}
		return src, nil
	case SourceLivedata:
		if config.Event == "" {
			return nil, fmt.Errorf("%w: --event", ErrMissingArg)
		}
		client, err := util.ConnectIracelog(ctx)
		if err != nil {
			return nil, err
		}
		return livedata.NewFromClient(client,
			config.Event,
			int32(config.CarIdx), //nolint:gosec // car index is small
			livedata.WithStaleDuration(staleDuration),
		), nil
	case SourceNats:
		if config.NatsSubject == "" {
			return nil, fmt.Errorf("%w: --nats-subject", ErrMissingArg)
		}
		decoder, err := natssrc.NewDecoder(config.NatsEncoding,
			int32(config.CarIdx)) //nolint:gosec // car index is small
		if err != nil {
			return nil, err
		}
		conn, err := nc.get()
		if err != nil {
			return nil, err
		}
		return natssrc.New(conn, config.NatsSubject, decoder,
			natssrc.WithStaleDuration(staleDuration)), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSource, config.SourceType)
}
