// Package dither generates the 16x16 ordered dither matrices used to reduce
// 8-bit grayscale raster data to the printer's 1-bit depth. A sample at
// position (x, y) produces ink iff sample >= matrix threshold at
// (x mod 16, y mod 16).
package dither

import "sort"

// Matrix is a 16x16 table of per-pixel comparison thresholds, indexed [y][x].
type Matrix [16][16]byte

// Threshold returns the comparison level for pixel (x, y).
func (m *Matrix) Threshold(x, y int) byte {
	return m[y&15][x&15]
}

// Flat returns a constant-threshold matrix. Crispest edges and most
// predictable bar growth; the right choice for barcodes and small text.
// Use 128 as the default level.
func Flat(level byte) *Matrix {
	var m Matrix
	for y := range m {
		for x := range m[y] {
			m[y][x] = level
		}
	}
	return &m
}

// Bayer returns the classic dispersed-ordered 16x16 Bayer matrix. Fine grain
// with good tone smoothness; suited to graphics and photos.
func Bayer() *Matrix {
	// Start with the 2x2 seed and expand by quadrant recursion:
	// M_2n places 4*M+0 top-left, 4*M+2 top-right, 4*M+3 bottom-left,
	// 4*M+1 bottom-right. Four doublings give 16x16 with ranks 0..255.
	var ranks [16][16]uint16
	ranks[0][0], ranks[0][1] = 0, 2
	ranks[1][0], ranks[1][1] = 3, 1

	for n := 2; n < 16; n *= 2 {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				v := ranks[y][x] * 4
				ranks[y][x] = v
				ranks[y][x+n] = v + 2
				ranks[y+n][x] = v + 3
				ranks[y+n][x+n] = v + 1
			}
		}
	}

	var m Matrix
	for y := range m {
		for x := range m[y] {
			// 256 unique ranks in a 16x16 tile, already 0..255.
			m[y][x] = byte(ranks[y][x])
		}
	}
	return &m
}

// Clustered returns a clustered-ordered matrix: cells ranked by squared
// distance from the tile center, ties broken by scan order. Edge-friendly
// clustering for solids and text-safe output.
func Clustered() *Matrix {
	type cell struct {
		x, y int
		w    float64
	}
	cells := make([]cell, 0, 256)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			dx := float64(x) + 0.5 - 8.0
			dy := float64(y) + 0.5 - 8.0
			cells = append(cells, cell{x, y, dx*dx + dy*dy})
		}
	}
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].w < cells[j].w })

	var m Matrix
	for rank, c := range cells {
		m[c.y][c.x] = byte(rank)
	}
	return &m
}
