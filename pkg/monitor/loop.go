// Package monitor drives the polling loop: check the telemetry connection,
// read the position, locate the sector and publish the result.
package monitor

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/sector"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry"
)

type (
	// Rebuilder creates a new locator after the sector definition changed
	Rebuilder func() (*sector.Locator, error)

	Option func(*Loop)
	Loop   struct {
		id       string
		session  *telemetry.Session
		locator  *sector.Locator
		interval time.Duration
		sinks    []Sink
		reload   <-chan struct{}
		rebuild  Rebuilder
		now      func() time.Time
		l        *log.Logger
		tracer   trace.Tracer

		locateCounter     metric.Int64Counter
		transitionCounter metric.Int64Counter
	}
)

// WithInterval sets the pause between two iterations
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		l.interval = d
	}
}

func WithSinks(sinks ...Sink) Option {
	return func(l *Loop) {
		l.sinks = append(l.sinks, sinks...)
	}
}

// WithReload replaces the locator with the result of rebuild whenever ch
// signals. Failed rebuilds keep the current locator.
func WithReload(ch <-chan struct{}, rebuild Rebuilder) Option {
	return func(l *Loop) {
		l.reload = ch
		l.rebuild = rebuild
	}
}

func WithSessionID(id string) Option {
	return func(l *Loop) {
		l.id = id
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		l.now = now
	}
}

func NewLoop(session *telemetry.Session, locator *sector.Locator, opts ...Option) *Loop {
	ret := &Loop{
		session:  session,
		locator:  locator,
		interval: 100 * time.Millisecond,
		now:      time.Now,
		l:        log.Default().Named("monitor"),
		tracer:   otel.Tracer("sectormon.monitor"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.id == "" {
		ret.id = uuid.Must(uuid.NewV4()).String()
	}
	ret.setupMetrics()
	return ret
}

func (l *Loop) ID() string {
	return l.id
}

func (l *Loop) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("sectormon.monitor")
	var err error
	if l.locateCounter, err = meter.Int64Counter("sectormon.locate",
		metric.WithDescription("Number of sector lookups"),
		metric.WithUnit("{count}")); err != nil {
		l.l.Warn("failed to register metric", log.ErrorField(err))
	}
	if l.transitionCounter, err = meter.Int64Counter("sectormon.connection.transitions",
		metric.WithDescription("Number of telemetry connection changes"),
		metric.WithUnit("{count}")); err != nil {
		l.l.Warn("failed to register metric", log.ErrorField(err))
	}
}

// Run executes iterations until ctx is done. The session is closed on return.
func (l *Loop) Run(ctx context.Context) error {
	l.l.Info("starting monitor", log.String("session", l.id),
		log.Duration("interval", l.interval))
	defer l.session.Close()
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		l.Step(ctx)
		select {
		case <-ctx.Done():
			l.l.Info("monitor stopped", log.String("session", l.id))
			return nil
		case _, ok := <-l.reload:
			if !ok {
				l.reload = nil
				continue
			}
			l.doReload(ctx)
		case <-ticker.C:
		}
	}
}

// Step runs a single iteration. It returns nil if no position was available.
func (l *Loop) Step(ctx context.Context) *Update {
	if tr := l.session.Check(); tr != telemetry.None {
		l.l.Info("telemetry connection changed",
			log.String("transition", tr.String()),
			log.String("state", l.session.State().String()))
		l.count(ctx, l.transitionCounter, attribute.String("transition", tr.String()))
	}
	pos, ok, err := l.session.Position()
	if err != nil {
		l.l.Warn("could not read position", log.ErrorField(err))
		return nil
	}
	if !ok {
		return nil
	}
	u := &Update{
		Session:   l.id,
		Timestamp: l.now(),
		Position:  pos,
		Result:    l.locator.Locate(pos),
	}
	l.count(ctx, l.locateCounter, attribute.String("kind", u.Result.Kind.String()))
	for _, s := range l.sinks {
		if err := s.Publish(u); err != nil {
			l.l.Warn("could not publish update", log.ErrorField(err))
		}
	}
	return u
}

func (l *Loop) count(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	if c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (l *Loop) doReload(ctx context.Context) {
	if l.rebuild == nil {
		return
	}
	_, span := l.tracer.Start(ctx, "reload",
		trace.WithAttributes(attribute.String("session", l.id)))
	defer span.End()
	loc, err := l.rebuild()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rebuild failed")
		l.l.Error("could not reload sectors, keeping current ones", log.ErrorField(err))
		return
	}
	l.locator = loc
	l.l.Info("sectors reloaded", log.Strings("sectors", loc.Table().Sectors()))
}
