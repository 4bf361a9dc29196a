package tracks

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	trackv1 "buf.build/gen/go/mpapenbr/iracelog/protocolbuffers/go/iracelog/track/v1"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/cmd/util"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/config"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/trackdef"
)

var (
	trackIDs []uint
	toDB     bool
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "creates sector definitions from the iRacing track sectors",
		Long: `Fetches tracks from the iracelog server and converts the iRacing sectors
into sector definitions. The definitions are written to the track directory
or stored in the database (--db).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlLogger, err := util.SetupLogger()
			if err != nil {
				return err
			}
			client, err := util.ConnectIracelog(cmd.Context())
			if err != nil {
				return err
			}
			tracks, err := client.FetchTracks(cmd.Context())
			if err != nil {
				return err
			}
			defs := convertTracks(selectTracks(tracks, trackIDs))
			if len(defs) == 0 {
				log.Warn("No tracks with sector data found")
				return nil
			}
			if !toDB {
				return writeDefinitions(trackdef.NewDir(config.TrackDir), defs)
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
	cmd.Flags().UintSliceVar(&trackIDs, "track-id", []uint{},
		"iracelog track ids to fetch (default: all)")
	cmd.Flags().BoolVar(&toDB, "db", false, "store the definitions in the database")
	cmd.Flags().BoolVar(&replace, "replace", false,
		"replace existing definitions with the same name")
	return cmd
}

func selectTracks(tracks []*trackv1.Track, ids []uint) []*trackv1.Track {
	if len(ids) == 0 {
		return tracks
	}
	return lo.Filter(tracks, func(t *trackv1.Track, _ int) bool {
		return lo.Contains(ids, uint(t.GetId().GetId()))
	})
}

// convertTracks skips tracks without sector data
func convertTracks(tracks []*trackv1.Track) []*trackdef.Definition {
	return lo.FilterMap(tracks, func(t *trackv1.Track, _ int) (*trackdef.Definition, bool) {
		def, err := trackdef.FromTrack(t)
		if err != nil {
			log.Debug("Skipping track",
				log.Uint32("id", t.GetId().GetId()),
				log.String("name", t.GetName()),
				log.ErrorField(err))
			return nil, false
		}
		return def, true
	})
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// fileName creates names like 18_road-america-full-course.json
func fileName(def *trackdef.Definition) string {
	slug := strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(def.Name), "-"), "-")
	return fmt.Sprintf("%d_%s.json", def.TrackID, slug)
}

func writeDefinitions(dir *trackdef.Dir, defs []*trackdef.Definition) error {
	if err := os.MkdirAll(dir.Path(), 0o755); err != nil {
		return err
	}
	for _, def := range defs {
		name := dir.FilePath(fileName(def))
		if _, err := os.Stat(name); err == nil && !replace {
			log.Info("Skipping existing file", log.String("file", name))
			continue
		}
		data, err := trackdef.Marshal(def)
		if err != nil {
			return err
		}
		if err := os.WriteFile(name, data, 0o600); err != nil {
			return err
		}
		log.Info("Wrote definition", log.String("file", name))
	}
	return nil
}
