// Package topix implements the TOPIX compression scheme used by TPCL
// printers for raster graphics: each line is XORed against the previous
// line and only the changed bytes are transmitted, addressed through a
// three-level bitmap index.
package topix

import "fmt"

const (
	// BufferMax is the hard frame ceiling imposed by the printer: the SG
	// command length field is 16 bits, so one compressed frame can never
	// exceed 65535 bytes.
	BufferMax = 0xFFFF

	// MaxLineBytes is the widest line the 8x8x8 index can address.
	MaxLineBytes = 8 * 8 * 8
)

// Session holds the per-page compression state: the previous normalized
// line (the differential baseline) and the accumulating frame buffer.
type Session struct {
	lineBytes int
	threshold int
	prev      []byte
	frame     []byte
}

// NewSession creates a compression session for lines of lineBytes bytes.
// The baseline starts all-zero, matching the printer's own per-frame
// baseline.
func NewSession(lineBytes int) (*Session, error) {
	if lineBytes <= 0 || lineBytes > MaxLineBytes {
		return nil, fmt.Errorf("topix: line length %d outside 1..%d", lineBytes, MaxLineBytes)
	}

	return &Session{
		lineBytes: lineBytes,
		// Worst case one line adds its full width plus one index byte per
		// 8-byte group across three levels; flushing above this threshold
		// guarantees the next line always fits.
		threshold: BufferMax - (lineBytes + ((lineBytes+7)/8)*3),
		prev:      make([]byte, lineBytes),
		frame:     make([]byte, 0, BufferMax),
	}, nil
}

// CompressLine encodes one normalized line against the current baseline
// and appends the result to the frame buffer. The caller must check
// NeedsFlush after every line.
func (s *Session) CompressLine(line []byte) {
	// XOR against the previous line into a 3-level index structure:
	// tree[l1][0][0] holds the level-2 mask for group l1, tree[l1][l2][0]
	// the level-3 mask for (l1,l2), and tree[l1][l2][l3] the data bytes.
	var tree [8][9][9]byte
	var cl1 byte

	i := 0
	for l1 := 0; l1 <= 7 && i < s.lineBytes; l1++ {
		var cl2 byte
		for l2 := 1; l2 <= 8 && i < s.lineBytes; l2++ {
			var cl3 byte
			for l3 := 1; l3 <= 8 && i < s.lineBytes; l3, i = l3+1, i+1 {
				x := line[i] ^ s.prev[i]
				tree[l1][l2][l3] = x
				if x > 0 {
					cl3 |= 1 << (8 - l3)
				}
			}
			tree[l1][l2][0] = cl3
			if cl3 != 0 {
				cl2 |= 1 << (8 - l2)
			}
		}
		tree[l1][0][0] = cl2
		if cl2 != 0 {
			cl1 |= 1 << (7 - l1)
		}
	}

	// The level-1 index byte is always emitted, even for an unchanged
	// line; everything below it is emitted in depth-first order with zero
	// bytes skipped.
	s.frame = append(s.frame, cl1)
	if cl1 > 0 {
		for l1 := range tree {
			for l2 := range tree[l1] {
				for l3 := range tree[l1][l2] {
					if b := tree[l1][l2][l3]; b != 0 {
						s.frame = append(s.frame, b)
					}
				}
			}
		}
	}

	copy(s.prev, line)
}

// Bytes returns the accumulated frame buffer. Valid until the next
// CompressLine or Reset.
func (s *Session) Bytes() []byte {
	return s.frame
}

// Len returns the number of bytes accumulated in the frame buffer.
func (s *Session) Len() int {
	return len(s.frame)
}

// NeedsFlush reports whether the frame buffer has crossed the safety
// threshold and must be sent before the next line is compressed.
func (s *Session) NeedsFlush() bool {
	return len(s.frame) > s.threshold
}

// Reset empties the frame buffer and zeroes the baseline, starting a
// fresh frame. The printer restarts its own baseline at zero for each SG
// frame, so the differential chain may be broken here without corruption.
func (s *Session) Reset() {
	s.frame = s.frame[:0]
	for i := range s.prev {
		s.prev[i] = 0
	}
}
