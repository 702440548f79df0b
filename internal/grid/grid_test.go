package grid

import (
	"errors"
	"testing"
)

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestFromFlatRowMajor(t *testing.T) {
	g, err := FromFlat(seq(Size))
	if err != nil {
		t.Fatalf("from flat: %v", err)
	}
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			for ch := 0; ch < Channels; ch++ {
				want := float64(r*Cols*Channels + c*Channels + ch)
				if g[r][c][ch] != want {
					t.Fatalf("g[%d][%d][%d]=%v want %v", r, c, ch, g[r][c][ch], want)
				}
			}
		}
	}
}

func TestFromFlatRejectsWrongCount(t *testing.T) {
	for _, n := range []int{0, Size - 1, Size + 1} {
		if _, err := FromFlat(seq(n)); !errors.Is(err, ErrShape) {
			t.Fatalf("n=%d: expected ErrShape, got %v", n, err)
		}
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	in := seq(Size)
	g, err := FromFlat(in)
	if err != nil {
		t.Fatalf("from flat: %v", err)
	}
	out := g.Flatten()
	if len(out) != Size {
		t.Fatalf("unexpected flatten length: %d", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("index %d: got %v want %v", i, out[i], in[i])
		}
	}
}

func TestZRowPicksThirdChannel(t *testing.T) {
	g, _ := FromFlat(seq(Size))
	z := g.ZRow(1)
	for c := 0; c < Cols; c++ {
		want := float64(1*Cols*Channels + c*Channels + ChannelZ)
		if z[c] != want {
			t.Fatalf("col %d: got %v want %v", c, z[c], want)
		}
	}
}
