package tracks

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/cmd/util"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/config"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/repository/sectordef"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/trackdef"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "lists the available sector definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlLogger, err := util.SetupLogger()
			if err != nil {
				return err
			}
			if fromDB {
				return listDB(cmd.Context(), sqlLogger, os.Stdout)
			}
			return listDir(trackdef.NewDir(config.TrackDir), os.Stdout)
		},
	}
	cmd.Flags().BoolVar(&fromDB, "db", false, "list the definitions stored in the database")
	return cmd
}

// listDir prints the numbered definition files of dir. Files which can't be
// parsed are listed with the error.
func listDir(dir *trackdef.Dir, out io.Writer) error {
	files, err := dir.List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tFILE\tNAME\tSECTORS")
	for i, f := range files {
		def, err := dir.Load(f)
		if err != nil {
			log.Warn("Could not load definition", log.String("file", f), log.ErrorField(err))
			fmt.Fprintf(w, "%d\t%s\t<invalid>\t-\n", i+1, f)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", i+1, f, def.Name, len(def.Sectors))
	}
	return w.Flush()
}

func listDB(ctx context.Context, sqlLogger *log.Logger, out io.Writer) error {
	pool, err := util.ConnectDB(ctx, sqlLogger)
	if err != nil {
		return err
	}
	defer pool.Close()
	entries, err := sectordef.List(ctx, pool)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTRACK\tSOURCE\tSECTORS\tCREATED")
	for i := range entries {
		e := &entries[i]
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\n",
			e.Name, e.TrackID, e.Source, e.NumSectors, e.Created.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
