package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                 string // connection string for the database
	WaitForServices    string // duration to wait for other services to be ready
	LogLevel           string // sets the log level (zap log level values)
	SQLLogLevel        string // sets the log level for sql subsystem
	LogFormat          string // text vs json
	LogFilter          string // zapfilter rules, e.g. "debug:monitor info:*"
	LogFile            string // if set, logs are written to this file (rotated)
	EnableTelemetry    bool   // enable telemetry
	TelemetryEndpoint  string // endpoint for telemetry (empty: stdout exporters)
	TrackDir           string // directory containing sector definition files
	Resolution         int    // number of slots of the lookup table
	IracelogAddr       string // address of the iracelog gRPC server
	IracelogToken      string // api token for the iracelog server
	NatsURL            string // URL of the NATS server
	StaleDuration      string // position data older than this is considered stale
	MonitorInterval    string // pause between two monitor iterations
	WrapAround         bool   // gap search continues at the start of the lap
	OnlyChanges        bool   // print only changed results
	ShowPosition       bool   // print the lap position with the result
	Watch              bool   // reload the definition file on change
	SourceType         string // sim, replay, livedata, nats
	SimLapTime         string // lap time of the simulated car
	SimStartPos        float64
	ReplayFile         string // recording used by the replay source
	ReplayLoop         bool   // restart the recording after the last sample
	Event              string // iracelog event id or key
	CarIdx             int    // iRacing car index to follow
	NatsSubject        string // subject with position data
	NatsEncoding       string // json or proto
	NatsPublishPrefix  string // if set, updates are published below this subject
	MigrationSourceURL string // location of migration files (unused if empty)
)
