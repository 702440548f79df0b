// Package display renders the Z-axis of every known sensor as text.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/xelactl/internal/grid"
	"github.com/danmuck/xelactl/internal/hub"
)

const (
	// ClearScreen is the terminal reset sequence written before each frame.
	ClearScreen = "\033c"

	WaitingLine   = "Waiting for data..."
	sensorColumn  = 35
	cellSeparator = " | "
)

// Source is anything that can hand out a consistent table snapshot.
type Source interface {
	Snapshot() hub.Snapshot
}

// Render writes one frame for snap. Ids are rendered in snap.IDs order,
// which hub.Table.Snapshot keeps numerically sorted.
func Render(w io.Writer, snap hub.Snapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== XELA SENSOR MONITOR (Z-Axis) | Sensors: %d ===\n", snap.Len())
	if snap.Len() == 0 {
		b.WriteString(WaitingLine + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	var header strings.Builder
	for _, id := range snap.IDs {
		fmt.Fprintf(&header, "%-*s%s", sensorColumn, "SENSOR "+id+" (4x6)", cellSeparator)
	}
	b.WriteString(header.String() + "\n")
	b.WriteString(strings.Repeat("-", header.Len()) + "\n")

	for row := 0; row < grid.Rows; row++ {
		for _, id := range snap.IDs {
			z := snap.Grids[id].ZRow(row)
			cells := make([]string, len(z))
			for i, v := range z {
				cells[i] = fmt.Sprintf("%6.2f", v)
			}
			b.WriteString(strings.Join(cells, " ") + cellSeparator)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Frame renders snap into a string.
func Frame(snap hub.Snapshot) string {
	var b strings.Builder
	_ = Render(&b, snap)
	return b.String()
}
