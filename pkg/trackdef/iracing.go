package trackdef

import (
	"fmt"
	"sort"

	trackv1 "buf.build/gen/go/mpapenbr/iracelog/protocolbuffers/go/iracelog/track/v1"

	"github.com/mpapenbr/iracelog-sector-monitor/pkg/sector"
)

// FromTrack converts the sectors of an iracelog track.
// iRacing only provides sector start positions, so each sector ends where the
// next one starts and the last sector ends at the finish line. The boundary
// slot belongs to the following sector.
func FromTrack(t *trackv1.Track) (*Definition, error) {
	if t == nil || len(t.Sectors) == 0 {
		return nil, ErrNoSectors
	}
	work := make([]*trackv1.Sector, len(t.Sectors))
	copy(work, t.Sectors)
	sort.SliceStable(work, func(i, j int) bool {
		return work[i].StartPct < work[j].StartPct
	})
	ret := &Definition{
		Name:    trackName(t),
		TrackID: int(t.GetId().GetId()),
		Source:  SourceIracelog,
		Sectors: make([]sector.Range, len(work)),
	}
	for i, s := range work {
		end := 1.0
		if i+1 < len(work) {
			end = float64(work[i+1].StartPct)
		}
		ret.Sectors[i] = sector.Range{
			Name:  fmt.Sprintf("S%d", s.Num),
			Start: float64(s.StartPct),
			End:   end,
		}
	}
	return ret, nil
}

func trackName(t *trackv1.Track) string {
	if t.Config != "" {
		return fmt.Sprintf("%s - %s", t.Name, t.Config)
	}
	return t.Name
}
