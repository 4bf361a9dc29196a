package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/cmd/util"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/config"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/repository/sectordef"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/sector"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/trackdef"
)

var ErrUnknownDefinitionSource = errors.New("unknown definition source")

// loaded is the definition used by the monitor. file is set if the
// definition was read from a file and can be watched for changes.
type loaded struct {
	def  *trackdef.Definition
	dir  *trackdef.Dir
	file string
}

func loadDefinition(ctx context.Context, sqlLogger *log.Logger) (*loaded, error) {
	switch defSource {
	case trackdef.SourceFile:
		dir := trackdef.NewDir(config.TrackDir)
		var (
			file string
			err  error
		)
		if trackArg != "" {
			file, err = dir.Resolve(trackArg)
		} else {
			file, err = chooseFile(dir, os.Stdin, os.Stdout)
		}
		if err != nil {
			return nil, err
		}
		def, err := dir.Load(file)
		if err != nil {
			return nil, err
		}
		return &loaded{def: def, dir: dir, file: file}, nil

	case trackdef.SourceDB:
		pool, err := util.ConnectDB(ctx, sqlLogger)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		def, err := sectordef.LoadByName(ctx, pool, trackArg)
		if err != nil {
			return nil, err
		}
		return &loaded{def: def}, nil

	case trackdef.SourceIracelog:
		client, err := util.ConnectIracelog(ctx)
		if err != nil {
			return nil, err
		}
		track, err := client.FetchTrack(ctx, uint32(trackID))
		if err != nil {
			return nil, err
		}
		def, err := trackdef.FromTrack(track)
		if err != nil {
			return nil, err
		}
		return &loaded{def: def}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDefinitionSource, defSource)
}

func newLocator(def *trackdef.Definition) (*sector.Locator, error) {
	tbl, err := def.Table(config.Resolution)
	if err != nil {
		return nil, err
	}
	return sector.NewLocator(tbl, sector.WithWrapAround(config.WrapAround)), nil
}

// rebuilder reloads the definition file and creates a new locator
func (l *loaded) rebuilder() func() (*sector.Locator, error) {
	return func() (*sector.Locator, error) {
		def, err := l.dir.Load(l.file)
		if err != nil {
			return nil, err
		}
		loc, err := newLocator(def)
		if err != nil {
			return nil, err
		}
		l.def = def
		log.Info("Sector definition reloaded",
			log.String("file", l.file),
			log.Strings("sectors", def.SectorNames()))
		return loc, nil
	}
}
