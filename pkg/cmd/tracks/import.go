package tracks

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/cmd/util"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/config"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/repository"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/repository/sectordef"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/trackdef"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [track...]",
		Short: "stores definition files in the database",
		Long: `Stores definition files of the track directory in the database.
Without arguments all files are imported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlLogger, err := util.SetupLogger()
			if err != nil {
				return err
			}
			defs, err := collectDefinitions(trackdef.NewDir(config.TrackDir), args)
			if err != nil {
				return err
			}
			pool, err := util.ConnectDB(cmd.Context(), sqlLogger)
			if err != nil {
				return err
			}
			defer pool.Close()
			return pgx.BeginFunc(cmd.Context(), pool, func(tx pgx.Tx) error {
				return storeDefinitions(cmd.Context(), tx, defs, replace)
			})
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false,
		"replace stored definitions with the same name")
	return cmd
}

// collectDefinitions loads and validates the requested files.
// All files of dir are used if args is empty.
func collectDefinitions(dir *trackdef.Dir, args []string) ([]*trackdef.Definition, error) {
	files := args
	if len(files) == 0 {
		var err error
		if files, err = dir.List(); err != nil {
			return nil, err
		}
	}
	ret := make([]*trackdef.Definition, 0, len(files))
	for _, arg := range files {
		def, err := loadFromDir(dir, arg)
		if err != nil {
			return nil, err
		}
		if err := def.Validate(); err != nil {
			return nil, err
		}
		ret = append(ret, def)
	}
	return ret, nil
}

//nolint:whitespace // can't make both editor and linter happy
func storeDefinitions(
	ctx context.Context,
	conn repository.Querier,
	defs []*trackdef.Definition,
	replaceExisting bool,
) error {
	store := sectordef.Create
	if replaceExisting {
		store = sectordef.Replace
	}
	for _, def := range defs {
		id, err := store(ctx, conn, def)
		if err != nil {
			log.Error("Could not store definition",
				log.String("name", def.Name), log.ErrorField(err))
			return err
		}
		log.Info("Stored definition",
			log.String("name", def.Name),
			log.String("id", id.String()),
			log.Int("sectors", len(def.Sectors)))
	}
	return nil
}
