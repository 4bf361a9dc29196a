/*
	Copyright 2026 Markus Papenbrock
*/

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	migrateCmd "github.com/mpapenbr/iracelog-sector-monitor/pkg/cmd/migrate"
	monitorCmd "github.com/mpapenbr/iracelog-sector-monitor/pkg/cmd/monitor"
	tracksCmd "github.com/mpapenbr/iracelog-sector-monitor/pkg/cmd/tracks"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/config"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/sector"
	"github.com/mpapenbr/iracelog-sector-monitor/version"
)

const envPrefix = "SECTORMON"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "sectormon",
	Short:        "Shows the track sector of a car in iRacing",
	Long:         ``,
	Version:      version.FullVersion,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:funlen // flag definitions
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.sectormon.yml)")

	rootCmd.PersistentFlags().StringVar(&config.DB, "db-url",
		"postgresql://DB_USERNAME:DB_USER_PASSWORD@DB_HOST:5432/sectormon",
		"Connection string for the database")
	rootCmd.PersistentFlags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for other services to be ready")
	rootCmd.PersistentFlags().StringVar(&config.TrackDir,
		"track-dir",
		"track_jsons",
		"directory containing the sector definition files")
	rootCmd.PersistentFlags().IntVar(&config.Resolution,
		"resolution",
		sector.DefaultResolution,
		"number of slots of the sector lookup table")
	rootCmd.PersistentFlags().StringVar(&config.IracelogAddr,
		"iracelog-addr",
		"http://localhost:8080",
		"address of the iracelog server")
	rootCmd.PersistentFlags().StringVar(&config.IracelogToken,
		"iracelog-token",
		"",
		"api token for the iracelog server")
	rootCmd.PersistentFlags().StringVar(&config.NatsURL,
		"nats-url",
		"nats://localhost:4222",
		"URL of the NATS server")

	rootCmd.PersistentFlags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"info",
		"controls the log level for sql methods")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format (json, text)")
	rootCmd.PersistentFlags().StringVar(&config.LogFilter,
		"log-filter",
		"",
		"zapfilter rules, e.g. 'debug:monitor info:*'")
	rootCmd.PersistentFlags().StringVar(&config.LogFile,
		"log-file",
		"",
		"write logs to this file (rotated) instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	rootCmd.PersistentFlags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (empty: stdout)")

	// add commands here
	rootCmd.AddCommand(monitorCmd.NewMonitorCmd())
	rootCmd.AddCommand(tracksCmd.NewTracksCmd())
	rootCmd.AddCommand(migrateCmd.NewMigrateCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".sectormon" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sectormon")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindCommandFlags(rootCmd, viper.GetViper())
}

// subcommands like "tracks list" are nested, so walk the whole tree
func bindCommandFlags(cmd *cobra.Command, v *viper.Viper) {
	bindFlags(cmd, v)
	for _, c := range cmd.Commands() {
		bindCommandFlags(c, v)
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --track-dir to SECTORMON_TRACK_DIR
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
