package dither

import "testing"

// ranksComplete checks that every rank 0..255 appears exactly once.
func ranksComplete(t *testing.T, m *Matrix) {
	t.Helper()

	var seen [256]int
	for y := range m {
		for x := range m[y] {
			seen[m[y][x]]++
		}
	}
	for rank, n := range seen {
		if n != 1 {
			t.Errorf("rank %d appears %d times, expected exactly once", rank, n)
		}
	}
}

func TestBayerContainsAllRanks(t *testing.T) {
	ranksComplete(t, Bayer())
}

func TestClusteredContainsAllRanks(t *testing.T) {
	ranksComplete(t, Clustered())
}

func TestBayerSeed(t *testing.T) {
	// The quadrant recursion must preserve the 2x2 seed ordering at tile
	// scale: rank 0 lands at (0,0), the highest rank in the bottom half.
	m := Bayer()
	if m[0][0] != 0 {
		t.Errorf("Bayer[0][0] = %d, expected 0", m[0][0])
	}
	if m[1][1] != 255 {
		t.Errorf("Bayer[1][1] = %d, expected 255", m[1][1])
	}
}

func TestClusteredCenterFirst(t *testing.T) {
	// Ranks grow outward from the tile center, so the four cells around
	// (8,8) carry the lowest ranks.
	m := Clustered()
	center := []byte{m[7][7], m[7][8], m[8][7], m[8][8]}
	for _, rank := range center {
		if rank > 3 {
			t.Errorf("center cell rank %d, expected one of 0..3", rank)
		}
	}
	if m[0][0] < 200 {
		t.Errorf("corner rank %d, expected a high rank", m[0][0])
	}
}

func TestFlatIsConstant(t *testing.T) {
	m := Flat(128)
	for y := range m {
		for x := range m[y] {
			if m[y][x] != 128 {
				t.Fatalf("Flat(128)[%d][%d] = %d", y, x, m[y][x])
			}
		}
	}
}

func TestThresholdWrapsModulo16(t *testing.T) {
	m := Bayer()
	if got, want := m.Threshold(17, 33), m[1][1]; got != want {
		t.Errorf("Threshold(17, 33) = %d, expected %d", got, want)
	}
}
