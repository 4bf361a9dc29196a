//nolint:funlen // ok for tests
package sector

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func sampleRanges() []Range {
	return []Range{
		{Name: "S1", Start: 0.0, End: 0.3},
		{Name: "S2", Start: 0.5, End: 0.8},
	}
}

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := Build(sampleRanges(), DefaultResolution)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return tbl
}

func TestBuild(t *testing.T) {
	type args struct {
		ranges     []Range
		resolution int
	}
	tests := []struct {
		name    string
		args    args
		wantErr error
		checks  func(t *testing.T, tbl *Table)
	}{
		{
			name:    "no sectors",
			args:    args{ranges: []Range{}, resolution: 10},
			wantErr: ErrNoSectors,
		},
		{
			name:    "nil sectors",
			args:    args{ranges: nil, resolution: 10},
			wantErr: ErrNoSectors,
		},
		{
			name:    "zero resolution",
			args:    args{ranges: sampleRanges(), resolution: 0},
			wantErr: ErrInvalidResolution,
		},
		{
			name: "fixed size",
			args: args{ranges: []Range{{Name: "A", Start: 0.1, End: 0.2}}, resolution: 10},
			checks: func(t *testing.T, tbl *Table) {
				t.Helper()
				assert.Equal(t, 10, tbl.Resolution())
				want := []string{"", "A", "A", "", "", "", "", "", "", ""}
				if diff := cmp.Diff(want, tbl.slots); diff != "" {
					t.Errorf("slots mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "end is inclusive",
			args: args{ranges: []Range{{Name: "A", Start: 0.0, End: 0.5}}, resolution: 4},
			checks: func(t *testing.T, tbl *Table) {
				t.Helper()
				if diff := cmp.Diff([]string{"A", "A", "A", ""}, tbl.slots); diff != "" {
					t.Errorf("slots mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "full track end maps to last slot",
			args: args{ranges: []Range{{Name: "A", Start: 0.5, End: 1.0}}, resolution: 4},
			checks: func(t *testing.T, tbl *Table) {
				t.Helper()
				if diff := cmp.Diff([]string{"", "", "A", "A"}, tbl.slots); diff != "" {
					t.Errorf("slots mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "out of range values are clamped",
			args: args{ranges: []Range{{Name: "A", Start: -0.5, End: 1.7}}, resolution: 4},
			checks: func(t *testing.T, tbl *Table) {
				t.Helper()
				if diff := cmp.Diff([]string{"A", "A", "A", "A"}, tbl.slots); diff != "" {
					t.Errorf("slots mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "last write wins on overlap",
			args: args{
				ranges: []Range{
					{Name: "A", Start: 0.0, End: 0.5},
					{Name: "B", Start: 0.25, End: 0.75},
				},
				resolution: 4,
			},
			checks: func(t *testing.T, tbl *Table) {
				t.Helper()
				if diff := cmp.Diff([]string{"A", "B", "B", "B"}, tbl.slots); diff != "" {
					t.Errorf("slots mismatch (-want +got):\n%s", diff)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.args.ranges, tt.args.resolution)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Build() error = %v, wantErr %v", err, tt.wantErr)
				}
				assert.Nil(t, got)
				return
			}
			if err != nil {
				t.Fatalf("Build() unexpected error = %v", err)
			}
			tt.checks(t, got)
		})
	}
}

func TestLocate(t *testing.T) {
	tbl := sampleTable(t)
	tests := []struct {
		name string
		pos  float64
		want Result
	}{
		{"start of track", 0.0, Result{Kind: Occupied, Name: "S1"}},
		{"inside first sector", 0.1, Result{Kind: Occupied, Name: "S1"}},
		{"end of first sector", 0.3, Result{Kind: Occupied, Name: "S1"}},
		{"gap", 0.4, Result{Kind: Approaching, Name: "S2"}},
		{"just before second sector", 0.4999, Result{Kind: Approaching, Name: "S2"}},
		{"start of second sector", 0.5, Result{Kind: Occupied, Name: "S2"}},
		{"end of second sector", 0.8, Result{Kind: Occupied, Name: "S2"}},
		{"nothing ahead", 0.95, Result{Kind: NotFound}},
		{"end of lap", 1.0, Result{Kind: NotFound}},
		{"negative", -0.1, Result{Kind: NotFound}},
		{"beyond lap", 1.2, Result{Kind: NotFound}},
		{"nan", math.NaN(), Result{Kind: NotFound}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Locate(tt.pos, tbl))
		})
	}
}

func TestLocateNilTable(t *testing.T) {
	assert.Equal(t, Result{Kind: NotFound}, Locate(0.5, nil))
}

func TestLocateFullLap(t *testing.T) {
	tbl, err := Build([]Range{{Name: "S1", Start: 0, End: 0.5}, {Name: "S2", Start: 0.5, End: 1}}, 100)
	assert.NoError(t, err)
	assert.Equal(t, Result{Kind: Occupied, Name: "S2"}, Locate(1.0, tbl))
	assert.Equal(t, Result{Kind: Occupied, Name: "S2"}, Locate(0.999999, tbl))
}

func TestLocateOverlap(t *testing.T) {
	tbl, err := Build([]Range{
		{Name: "A", Start: 0.1, End: 0.6},
		{Name: "B", Start: 0.4, End: 0.9},
	}, DefaultResolution)
	assert.NoError(t, err)
	for _, pos := range []float64{0.4, 0.45, 0.5, 0.6} {
		assert.Equal(t, Result{Kind: Occupied, Name: "B"}, Locate(pos, tbl), "pos %v", pos)
	}
	assert.Equal(t, Result{Kind: Occupied, Name: "A"}, Locate(0.39, tbl))
}

func TestBuildIdempotent(t *testing.T) {
	t1 := sampleTable(t)
	t2 := sampleTable(t)
	for i := 0; i <= 1000; i++ {
		pos := float64(i) / 1000
		if Locate(pos, t1) != Locate(pos, t2) {
			t.Fatalf("tables differ at %v", pos)
		}
	}
}

func TestLocator_WrapAround(t *testing.T) {
	tbl := sampleTable(t)
	tests := []struct {
		name string
		opts []LocatorOption
		pos  float64
		want Result
	}{
		{"default keeps not found", nil, 0.95, Result{Kind: NotFound}},
		{"wrap disabled", []LocatorOption{WithWrapAround(false)}, 0.95, Result{Kind: NotFound}},
		{"wrap enabled", []LocatorOption{WithWrapAround(true)}, 0.95, Result{Kind: Approaching, Name: "S1"}},
		{"wrap does not change gap", []LocatorOption{WithWrapAround(true)}, 0.4, Result{Kind: Approaching, Name: "S2"}},
		{"wrap does not change occupied", []LocatorOption{WithWrapAround(true)}, 0.2, Result{Kind: Occupied, Name: "S1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLocator(tbl, tt.opts...)
			assert.Equal(t, tt.want, l.Locate(tt.pos))
		})
	}
}

func TestResult_String(t *testing.T) {
	assert.Equal(t, "S1", Result{Kind: Occupied, Name: "S1"}.String())
	assert.Equal(t, "approaching S2", Result{Kind: Approaching, Name: "S2"}.String())
	assert.Equal(t, "Sector not found", Result{Kind: NotFound}.String())
}

func TestRangesFromMap(t *testing.T) {
	got := RangesFromMap(map[string]Range{
		"late":  {Start: 0.7, End: 0.9},
		"early": {Start: 0.1, End: 0.2},
		"b":     {Start: 0.3, End: 0.4},
		"a":     {Start: 0.3, End: 0.4},
	})
	want := []Range{
		{Name: "early", Start: 0.1, End: 0.2},
		{Name: "a", Start: 0.3, End: 0.4},
		{Name: "b", Start: 0.3, End: 0.4},
		{Name: "late", Start: 0.7, End: 0.9},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RangesFromMap() mismatch (-want +got):\n%s", diff)
	}
}

func TestTable_Info(t *testing.T) {
	tbl := sampleTable(t)
	assert.Equal(t, []string{"S1", "S2"}, tbl.Sectors())
	// 3001 + 3001 slots of 10000
	assert.InDelta(t, 0.6002, tbl.Coverage(), 1e-9)
	assert.Equal(t, "", tbl.Slot(-1))
	assert.Equal(t, "", tbl.Slot(DefaultResolution))
	assert.Equal(t, "S2", tbl.Slot(5000))
}
