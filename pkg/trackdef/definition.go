package trackdef

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/mpapenbr/iracelog-sector-monitor/pkg/sector"
)

var (
	ErrNoSectors      = errors.New("no sectors data found")
	ErrDirNotFound    = errors.New("definition directory does not exist")
	ErrNoDefinitions  = errors.New("no definition files found")
	ErrInvalidChoice  = errors.New("invalid choice")
	ErrUnknownFormat  = errors.New("unknown definition format")
	ErrDuplicateNames = errors.New("duplicate sector names")
)

// Source names where a definition was loaded from
const (
	SourceFile     = "file"
	SourceDB       = "db"
	SourceIracelog = "iracelog"
)

// Definition is a named, ordered collection of sector ranges for a track.
// The order of Sectors matters when ranges overlap.
type Definition struct {
	Name    string
	TrackID int
	Source  string
	Sectors []sector.Range
}

var validate = validator.New()

// Validate checks every sector range. Overlaps and gaps are allowed.
func (d *Definition) Validate() error {
	if len(d.Sectors) == 0 {
		return fmt.Errorf("%s: %w", d.Name, ErrNoSectors)
	}
	for _, s := range d.Sectors {
		if err := validate.Struct(s); err != nil {
			return fmt.Errorf("%s: sector %q: %w", d.Name, s.Name, err)
		}
	}
	if dups := lo.FindDuplicates(d.SectorNames()); len(dups) > 0 {
		return fmt.Errorf("%s: %v: %w", d.Name, dups, ErrDuplicateNames)
	}
	return nil
}

func (d *Definition) SectorNames() []string {
	return lo.Map(d.Sectors, func(item sector.Range, _ int) string {
		return item.Name
	})
}

// Table validates the definition and builds the lookup table.
func (d *Definition) Table(resolution int) (*sector.Table, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return sector.Build(d.Sectors, resolution)
}
