// Package sector maps a fractional track position to a named track sector.
//
// Sector ranges are discretized once into a dense Table holding one slot per
// 1/resolution of the track. Lookups are O(1) for positions inside a sector.
// For positions in a gap the next sector ahead is reported.
package sector

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// DefaultResolution is the number of table slots used when nothing else is
// configured. The quantization error is 1/DefaultResolution of a lap.
const DefaultResolution = 10000

var (
	ErrNoSectors         = errors.New("no sectors defined")
	ErrInvalidResolution = errors.New("resolution must be positive")
)

// Range is a named fractional range of the track. Start and End are expected
// in [0,1] with Start <= End.
type Range struct {
	Name  string  `json:"name"  yaml:"name"  validate:"required"`
	Start float64 `json:"start" yaml:"start" validate:"gte=0,lte=1"`
	End   float64 `json:"end"   yaml:"end"   validate:"gte=0,lte=1,gtefield=Start"`
}

func (r Range) String() string {
	return fmt.Sprintf("%s [%.4f, %.4f]", r.Name, r.Start, r.End)
}

// RangesFromMap converts a name keyed map into ranges ordered by start, end
// and name. Use this when the source order of the ranges is unknown.
func RangesFromMap(m map[string]Range) []Range {
	ret := make([]Range, 0, len(m))
	for name, r := range m {
		r.Name = name
		ret = append(ret, r)
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Start != ret[j].Start {
			return ret[i].Start < ret[j].Start
		}
		if ret[i].End != ret[j].End {
			return ret[i].End < ret[j].End
		}
		return ret[i].Name < ret[j].Name
	})
	return ret
}

// Table is the dense lookup structure. An empty string marks an unmapped slot.
// A Table must not be modified after Build returned it.
type Table struct {
	slots []string
}

func (t *Table) Resolution() int {
	if t == nil {
		return 0
	}
	return len(t.slots)
}

// Slot returns the sector name at idx or "" for empty or invalid slots.
func (t *Table) Slot(idx int) string {
	if t == nil || idx < 0 || idx >= len(t.slots) {
		return ""
	}
	return t.slots[idx]
}

// Index converts a fractional position into a slot index.
// ok is false for NaN and positions outside [0,1]. A position of exactly 1.0
// is mapped to the last slot.
func (t *Table) Index(pos float64) (idx int, ok bool) {
	n := t.Resolution()
	if n == 0 || math.IsNaN(pos) || pos < 0 || pos > 1 {
		return 0, false
	}
	idx = int(math.Floor(pos * float64(n)))
	if idx >= n {
		idx = n - 1
	}
	return idx, true
}

// Sectors returns the distinct sector names in the order they appear on track.
func (t *Table) Sectors() []string {
	if t == nil {
		return nil
	}
	ret := []string{}
	seen := map[string]bool{}
	for _, s := range t.slots {
		if s != "" && !seen[s] {
			seen[s] = true
			ret = append(ret, s)
		}
	}
	return ret
}

// Coverage returns the fraction of slots mapped to a sector.
func (t *Table) Coverage() float64 {
	if t.Resolution() == 0 {
		return 0
	}
	used := 0
	for _, s := range t.slots {
		if s != "" {
			used++
		}
	}
	return float64(used) / float64(len(t.slots))
}
