package sector

import "math"

// Build discretizes ranges into a Table with resolution slots.
//
// Every range writes its name into the slots floor(Start*resolution) up to
// floor(End*resolution), both inclusive. Indexes are clamped into the table.
// When ranges overlap the one coming later in ranges wins the slot.
func Build(ranges []Range, resolution int) (*Table, error) {
	if resolution <= 0 {
		return nil, ErrInvalidResolution
	}
	if len(ranges) == 0 {
		return nil, ErrNoSectors
	}
	t := &Table{slots: make([]string, resolution)}
	for _, r := range ranges {
		start := clampIndex(r.Start, resolution)
		end := clampIndex(r.End, resolution)
		for i := start; i <= end; i++ {
			t.slots[i] = r.Name
		}
	}
	return t, nil
}

func clampIndex(pct float64, resolution int) int {
	if math.IsNaN(pct) || pct <= 0 {
		return 0
	}
	idx := math.Floor(pct * float64(resolution))
	if idx >= float64(resolution) {
		return resolution - 1
	}
	return int(idx)
}
