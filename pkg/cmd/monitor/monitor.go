package monitor

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/cmd/util"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/config"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/monitor"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/telemetry"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/trackdef"
)

var (
	defSource string // where the sector definition comes from
	trackArg  string // file (number, name) or definition name
	trackID   uint   // iracelog track id
)

//nolint:funlen // by design
func NewMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "shows the current sector of the monitored car",
		Long: `Continuously reads the lap position from a telemetry source and prints
the sector the car is in or the sector it is approaching.

Without --track the available definition files are listed and one can be chosen.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor()
		},
	}
	cmd.Flags().StringVar(&defSource,
		"from",
		trackdef.SourceFile,
		"source of the sector definition (file, db, iracelog)")
	cmd.Flags().StringVarP(&trackArg,
		"track",
		"t",
		"",
		"definition file (number or name) or definition name when using --from db")
	cmd.Flags().UintVar(&trackID,
		"track-id",
		0,
		"iracelog track id when using --from iracelog")
	cmd.Flags().StringVarP(&config.SourceType,
		"source",
		"s",
		SourceSim,
		"telemetry source (sim, replay, livedata, nats)")
	cmd.Flags().StringVar(&config.MonitorInterval,
		"interval",
		"100ms",
		"pause between two lookups")
	cmd.Flags().StringVar(&config.StaleDuration,
		"stale-duration",
		"10s",
		"position data older than this marks the source as not live")
	cmd.Flags().BoolVar(&config.WrapAround,
		"wrap-around",
		false,
		"continue the search for the next sector at the start of the lap")
	cmd.Flags().BoolVar(&config.OnlyChanges,
		"only-changes",
		false,
		"print only if the result changed")
	cmd.Flags().BoolVar(&config.ShowPosition,
		"show-position",
		false,
		"print the lap position with the result")
	cmd.Flags().BoolVar(&config.Watch,
		"watch",
		false,
		"reload the definition file when it changes")
	cmd.Flags().StringVar(&config.SimLapTime,
		"sim-lap-time",
		"90s",
		"lap time of the simulated car")
	cmd.Flags().Float64Var(&config.SimStartPos,
		"sim-start-pos",
		0,
		"start position of the simulated car")
	cmd.Flags().StringVar(&config.ReplayFile,
		"replay-file",
		"",
		"file with recorded positions (one per line)")
	cmd.Flags().BoolVar(&config.ReplayLoop,
		"replay-loop",
		false,
		"restart the replay after the last position")
	cmd.Flags().StringVar(&config.Event,
		"event",
		"",
		"iracelog event id or key used by the livedata source")
	cmd.Flags().IntVar(&config.CarIdx,
		"car-idx",
		0,
		"iRacing car index to follow")
	cmd.Flags().StringVar(&config.NatsSubject,
		"nats-subject",
		"",
		"subject providing position data")
	cmd.Flags().StringVar(&config.NatsEncoding,
		"nats-encoding",
		"json",
		"encoding of the position data (json, proto)")
	cmd.Flags().StringVar(&config.NatsPublishPrefix,
		"publish-prefix",
		"",
		"if set, updates are published to <prefix>.<session> on NATS")
	return cmd
}

//nolint:funlen // by design
func runMonitor() error {
	sqlLogger, err := util.SetupLogger()
	if err != nil {
		return err
	}
	//nolint:errcheck // by design
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if tel := util.SetupTelemetry(ctx); tel != nil {
		defer func() {
			if err := tel.Shutdown(); err != nil {
				log.Warn("telemetry shutdown", log.ErrorField(err))
			}
		}()
	}

	def, err := loadDefinition(ctx, sqlLogger)
	if err != nil {
		log.Error("Could not load sector definition", log.ErrorField(err))
		return err
	}
	locator, err := newLocator(def.def)
	if err != nil {
		log.Error("Invalid sector definition",
			log.String("name", def.def.Name), log.ErrorField(err))
		return err
	}
	log.Info("Using sector definition",
		log.String("name", def.def.Name),
		log.String("source", def.def.Source),
		log.Strings("sectors", def.def.SectorNames()),
		log.Float64("coverage", locator.Table().Coverage()))

	nc := &natsConn{}
	defer nc.close()
	src, err := createSource(ctx, nc)
	if err != nil {
		log.Error("Could not create telemetry source", log.ErrorField(err))
		return err
	}

	opts := []monitor.Option{
		monitor.WithInterval(util.ParseDuration(config.MonitorInterval,
			100*time.Millisecond)),
		monitor.WithSinks(monitor.NewConsoleSink(os.Stdout,
			monitor.WithOnlyChanges(config.OnlyChanges),
			monitor.WithPosition(config.ShowPosition))),
	}
	if config.NatsPublishPrefix != "" {
		conn, err := nc.get()
		if err != nil {
			return err
		}
		opts = append(opts, monitor.WithSinks(
			monitor.NewNatsSink(conn, config.NatsPublishPrefix)))
	}
	if config.Watch {
		if def.file == "" {
			log.Warn("--watch is only supported for definition files")
		} else {
			ch, err := trackdef.Watch(ctx, def.dir.FilePath(def.file))
			if err != nil {
				return err
			}
			opts = append(opts, monitor.WithReload(ch, def.rebuilder()))
		}
	}

	loop := monitor.NewLoop(telemetry.NewSession(src), locator, opts...)
	log.Debug("Telemetry source", log.String("source", config.SourceType))
	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("Monitor terminated")
	return nil
}
