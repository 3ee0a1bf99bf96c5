// Package raster normalizes host-supplied raster lines into the packed
// 1-bit, black=1 form the printer consumes.
package raster

import (
	"fmt"

	"github.com/tecprint/tpcl-engine/internal/dither"
)

// Polarity describes what a set bit (or a high sample) means in the
// incoming raster data.
type Polarity int

const (
	// BlackIsOne marks ink with 1 (or high grayscale samples as ink).
	BlackIsOne Polarity = iota
	// WhiteIsOne marks ink with 0; normalized output is bit-inverted so
	// that 1 always means ink.
	WhiteIsOne
)

// Normalizer converts one raw raster line per call into the canonical
// packed form: 1 bit per pixel, MSB first, 1 = ink. The returned slice is
// reused across calls; consume it before the next Normalize.
type Normalizer struct {
	rawLen   int // raster-supplied bytes per line, authoritative
	outLen   int
	depth    int
	polarity Polarity
	matrix   *dither.Matrix
	buf      []byte
}

// NewNormalizer builds a normalizer for lines of rawLen bytes at the given
// sample depth. Depth 8 dithers each grayscale sample against m and packs
// 8-to-1; depth 1 copies packed input verbatim. Any other depth is a
// configuration error.
func NewNormalizer(rawLen, depth int, polarity Polarity, m *dither.Matrix) (*Normalizer, error) {
	if rawLen <= 0 {
		return nil, fmt.Errorf("raster: invalid line length %d", rawLen)
	}

	n := &Normalizer{rawLen: rawLen, depth: depth, polarity: polarity, matrix: m}
	switch depth {
	case 1:
		n.outLen = rawLen
	case 8:
		if m == nil {
			return nil, fmt.Errorf("raster: dither matrix required for 8-bit input")
		}
		n.outLen = (rawLen + 7) / 8
	default:
		return nil, fmt.Errorf("raster: only 1 bit or 8 bit sample depths are supported, got %d bit", depth)
	}
	n.buf = make([]byte, n.outLen)

	return n, nil
}

// OutLen returns the normalized line length in bytes.
func (n *Normalizer) OutLen() int {
	return n.outLen
}

// Normalize converts the raw line for row y into packed black=1 form.
func (n *Normalizer) Normalize(y int, raw []byte) ([]byte, error) {
	if len(raw) != n.rawLen {
		return nil, fmt.Errorf("raster: line %d is %d bytes, expected %d", y, len(raw), n.rawLen)
	}

	switch n.depth {
	case 8:
		for i := range n.buf {
			n.buf[i] = 0
		}
		for x, sample := range raw {
			if sample >= n.matrix.Threshold(x, y) {
				n.buf[x/8] |= 0x80 >> (x & 7)
			}
		}
	case 1:
		copy(n.buf, raw)
	}

	if n.polarity == WhiteIsOne {
		for i := range n.buf {
			n.buf[i] = ^n.buf[i]
		}
	}

	return n.buf, nil
}
