// Package hub holds the latest reading per sensor shared between the
// receiver (sole writer) and the display and publishers (readers).
package hub

import (
	"sort"
	"strings"
	"sync"

	"github.com/danmuck/xelactl/internal/grid"
)

// Table maps sensor id to its most recent grid. Entries are only ever
// replaced whole and never removed.
type Table struct {
	mu    sync.RWMutex
	items map[string]grid.Grid
}

// NewTable creates an empty sensor table.
func NewTable() *Table {
	return &Table{items: make(map[string]grid.Grid)}
}

// Replace swaps in g as the current reading for id.
func (t *Table) Replace(id string, g grid.Grid) {
	t.mu.Lock()
	t.items[id] = g
	t.mu.Unlock()
}

// Get returns a copy of the current reading for id.
func (t *Table) Get(id string) (grid.Grid, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	g, ok := t.items[id]
	return g, ok
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// Snapshot is a point-in-time copy of the table.
type Snapshot struct {
	IDs   []string
	Grids map[string]grid.Grid
}

func (s Snapshot) Len() int {
	return len(s.IDs)
}

// Snapshot copies every entry under one read lock and orders ids numerically.
func (t *Table) Snapshot() Snapshot {
	t.mu.RLock()
	snap := Snapshot{
		IDs:   make([]string, 0, len(t.items)),
		Grids: make(map[string]grid.Grid, len(t.items)),
	}
	for id, g := range t.items {
		snap.IDs = append(snap.IDs, id)
		snap.Grids[id] = g
	}
	t.mu.RUnlock()

	SortIDs(snap.IDs)
	return snap
}

// SortIDs orders decimal sensor ids by numeric value.
func SortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return numericLess(ids[i], ids[j])
	})
}

// numericLess compares digit strings of any length without overflow.
func numericLess(a, b string) bool {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		return len(ta) < len(tb)
	}
	if ta != tb {
		return ta < tb
	}
	return a < b
}
