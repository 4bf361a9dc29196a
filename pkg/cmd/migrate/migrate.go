package migrate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/cmd/util"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/config"
	dbmigrate "github.com/mpapenbr/iracelog-sector-monitor/pkg/db/migrate"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/utils"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := util.SetupLogger(); err != nil {
				return err
			}
			return startMigration(cmd)
		},
	}

	cmd.Flags().StringVarP(&config.MigrationSourceURL,
		"migration-source-url",
		"m",
		"",
		"url to migration files (default: embedded migrations)")

	return cmd
}

func startMigration(cmd *cobra.Command) error {
	timeout := util.ParseDuration(config.WaitForServices, 60*time.Second)
	if postgresAddr := utils.ExtractFromDBURL(config.DB); postgresAddr != "" {
		if err := utils.WaitForTCP(cmd.Context(), postgresAddr, timeout); err != nil {
			log.Error("database not ready", log.ErrorField(err))
			return err
		}
	}
	dbURL := prepareURLForDB(config.DB)

	if config.MigrationSourceURL == "" {
		log.Info("Using embedded migrations")
		return dbmigrate.MigrateDB(dbURL)
	}

	log.Info("Using migrations files at", log.String("source", config.MigrationSourceURL))
	m, err := migrate.New(config.MigrationSourceURL,
		strings.Replace(dbURL, "postgresql://", "pgx5://", 1))
	if err != nil {
		log.Error("Could not create migration", log.ErrorField(err))
		return err
	}
	defer m.Close()
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("No Migration required")
		return nil
	}
	return err
}

func prepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	}
	return fmt.Sprintf("%s?%s", url, options)
}
