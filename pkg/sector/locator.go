package sector

import "fmt"

type Kind int

const (
	NotFound Kind = iota
	Occupied
	Approaching
)

func (k Kind) String() string {
	switch k {
	case Occupied:
		return "occupied"
	case Approaching:
		return "approaching"
	default:
		return "notfound"
	}
}

// Result is the outcome of a lookup. Name is empty for NotFound.
type Result struct {
	Kind Kind
	Name string
}

func (r Result) String() string {
	switch r.Kind {
	case Occupied:
		return r.Name
	case Approaching:
		return fmt.Sprintf("approaching %s", r.Name)
	default:
		return "Sector not found"
	}
}

// Locate returns the sector at pos.
// If the slot for pos is empty the first sector ahead (towards the end of the
// table) is returned as Approaching. The search does not wrap to the start of
// the table.
func Locate(pos float64, t *Table) Result {
	return locate(pos, t, false)
}

type (
	LocatorOption func(*Locator)
	// Locator binds a table to lookup options.
	Locator struct {
		table      *Table
		wrapAround bool
	}
)

// WithWrapAround lets the gap search continue at the start of the table.
// Useful when the next lap's first sector should be announced.
func WithWrapAround(arg bool) LocatorOption {
	return func(l *Locator) {
		l.wrapAround = arg
	}
}

func NewLocator(t *Table, opts ...LocatorOption) *Locator {
	ret := &Locator{table: t}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (l *Locator) Table() *Table {
	return l.table
}

func (l *Locator) Locate(pos float64) Result {
	return locate(pos, l.table, l.wrapAround)
}

func locate(pos float64, t *Table, wrap bool) Result {
	idx, ok := t.Index(pos)
	if !ok {
		return Result{Kind: NotFound}
	}
	if name := t.slots[idx]; name != "" {
		return Result{Kind: Occupied, Name: name}
	}
	for i := idx + 1; i < len(t.slots); i++ {
		if t.slots[i] != "" {
			return Result{Kind: Approaching, Name: t.slots[i]}
		}
	}
	if wrap {
		for i := 0; i < idx; i++ {
			if t.slots[i] != "" {
				return Result{Kind: Approaching, Name: t.slots[i]}
			}
		}
	}
	return Result{Kind: NotFound}
}
