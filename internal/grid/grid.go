// Package grid holds the fixed-shape tactile reading of one sensor pad.
package grid

import (
	"errors"
	"fmt"
)

const (
	Rows     = 4
	Cols     = 6
	Channels = 3

	// Size is the number of flat values carried per sensor on the wire.
	Size = Rows * Cols * Channels

	ChannelX = 0
	ChannelY = 1
	ChannelZ = 2
)

var ErrShape = errors.New("grid: invalid shape")

// Grid is one sensor's calibrated reading indexed [row][col][channel].
// It is a value type: assignment copies the whole reading.
type Grid [Rows][Cols][Channels]float64

// FromFlat reshapes row-major values, channel varying fastest.
func FromFlat(values []float64) (Grid, error) {
	var g Grid
	if len(values) != Size {
		return g, fmt.Errorf("%w: got %d values, want %d", ErrShape, len(values), Size)
	}
	for i, v := range values {
		g[i/(Cols*Channels)][(i/Channels)%Cols][i%Channels] = v
	}
	return g, nil
}

// Flatten is the inverse of FromFlat.
func (g Grid) Flatten() []float64 {
	out := make([]float64, 0, Size)
	for r := range g {
		for c := range g[r] {
			out = append(out, g[r][c][:]...)
		}
	}
	return out
}

// Channel returns the values of channel ch across one row.
func (g Grid) Channel(row, ch int) [Cols]float64 {
	var out [Cols]float64
	for c := 0; c < Cols; c++ {
		out[c] = g[row][c][ch]
	}
	return out
}

func (g Grid) ZRow(row int) [Cols]float64 {
	return g.Channel(row, ChannelZ)
}
