package tracks

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/cmd/util"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/config"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/repository/sectordef"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/trackdef"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <track>",
		Short: "shows a sector definition and its lookup table coverage",
		Long: `Shows a sector definition. <track> is a file (number or name) of the
track directory or the name of a stored definition when using --db.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlLogger, err := util.SetupLogger()
			if err != nil {
				return err
			}
			var def *trackdef.Definition
			if fromDB {
				def, err = loadFromDB(cmd.Context(), args[0], sqlLogger)
			} else {
				def, err = loadFromDir(trackdef.NewDir(config.TrackDir), args[0])
			}
			if err != nil {
				return err
			}
			return show(def, config.Resolution, os.Stdout)
		},
	}
	cmd.Flags().BoolVar(&fromDB, "db", false, "read the definition from the database")
	return cmd
}

func loadFromDir(dir *trackdef.Dir, arg string) (*trackdef.Definition, error) {
	file, err := dir.Resolve(arg)
	if err != nil {
		return nil, err
	}
	return dir.Load(file)
}

//nolint:whitespace // can't make both editor and linter happy
func loadFromDB(
	ctx context.Context, name string, sqlLogger *log.Logger,
) (*trackdef.Definition, error) {
	pool, err := util.ConnectDB(ctx, sqlLogger)
	if err != nil {
		return nil, err
	}
	defer pool.Close()
	return sectordef.LoadByName(ctx, pool, name)
}

func show(def *trackdef.Definition, resolution int, out io.Writer) error {
	tbl, err := def.Table(resolution)
	if err != nil {
		return err
	}
	data, err := trackdef.Marshal(def)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s", data)
	fmt.Fprintf(out, "source: %s\nresolution: %d\ncoverage: %.2f%%\n",
		def.Source, tbl.Resolution(), tbl.Coverage()*100)
	return nil
}
