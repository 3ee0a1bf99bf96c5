// Package tpcl renders TPCL v2 commands into the exact framed form the
// printer expects and decodes its status responses. Every command is
// `{` + letters + parameters + `|}` + LF; the compressed graphics body
// additionally carries a 2-byte big-endian length and raw binary payload
// between header and footer.
package tpcl

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/tecprint/tpcl-engine/pkg/device"
)

// GraphicsMode selects how SG image data is transmitted.
type GraphicsMode int

const (
	ModeNibbleAND GraphicsMode = 0 // ASCII nibbles, AND with buffer
	ModeHexAND    GraphicsMode = 1 // raw bytes, AND with buffer
	ModeTOPIX     GraphicsMode = 3 // TOPIX compression (recommended)
	ModeNibbleOR  GraphicsMode = 4 // ASCII nibbles, OR with buffer
	ModeHexOR     GraphicsMode = 5 // raw bytes, OR with buffer
)

// Raw reports whether the mode transmits uncompressed line data inside a
// single SG frame spanning the whole page.
func (m GraphicsMode) Raw() bool {
	return m != ModeTOPIX
}

// Encoder writes TPCL commands to a device channel. It is a pure
// formatting layer: transport failures propagate, nothing is retried
// here.
type Encoder struct {
	ch  device.Channel
	log *slog.Logger
}

// NewEncoder creates an encoder for ch. A nil logger falls back to
// slog.Default.
func NewEncoder(ch device.Channel, log *slog.Logger) *Encoder {
	if log == nil {
		log = slog.Default()
	}
	return &Encoder{ch: ch, log: log}
}

func (e *Encoder) puts(what, cmd string) error {
	e.log.Debug("sending command", "command", what, "frame", cmd)
	if _, err := e.ch.Puts(cmd); err != nil {
		return fmt.Errorf("tpcl: writing %s command: %w", what, err)
	}
	return nil
}

// checkRange guards the fixed-width decimal fields: a value outside its
// documented range would silently truncate in the printf format.
func checkRange(name string, v, min, max int) error {
	if v < min || v > max {
		return fmt.Errorf("tpcl: %s %d outside range [%d, %d]", name, v, min, max)
	}
	return nil
}

func sign(v int) byte {
	if v >= 0 {
		return '+'
	}
	return '-'
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// LabelSize sends the D command defining pitch, effective print width and
// height, and full roll width, all in 0.1mm.
func (e *Encoder) LabelSize(pitch, width, height, rollWidth int) error {
	for _, f := range []struct {
		name string
		v    int
	}{
		{"label pitch", pitch},
		{"print width", width},
		{"print height", height},
		{"roll width", rollWidth},
	} {
		if err := checkRange(f.name, f.v, 0, 9999); err != nil {
			return err
		}
	}

	cmd := fmt.Sprintf("{D%04d,%04d,%04d,%04d|}\n", pitch, width, height, rollWidth)
	return e.puts("label size", cmd)
}

// Feed sends the T command feeding one label.
func (e *Encoder) Feed(sensor, cut, mode, speed, ribbon byte) error {
	cmd := fmt.Sprintf("{T%c%c%c%c%c|}\n", sensor, cut, mode, speed, ribbon)
	return e.puts("feed", cmd)
}

// PositionAdjust sends the AX command for feed, cut position, and
// backfeed fine adjustment in 0.1mm. Negative feed/cut values move
// forward, negative backfeed decreases.
func (e *Encoder) PositionAdjust(feed, cut, backfeed int) error {
	if err := checkRange("feed adjustment", feed, -500, 500); err != nil {
		return err
	}
	if err := checkRange("cut position adjustment", cut, -180, 180); err != nil {
		return err
	}
	if err := checkRange("backfeed adjustment", backfeed, -99, 99); err != nil {
		return err
	}

	cmd := fmt.Sprintf("{AX;%c%03d,%c%03d,%c%02d|}\n",
		sign(feed), abs(feed),
		sign(cut), abs(cut),
		sign(backfeed), abs(backfeed))
	return e.puts("position adjustment", cmd)
}

// DarknessAdjust sends the AY command for print density. The mode char is
// '0' for thermal transfer media and '1' for direct thermal.
func (e *Encoder) DarknessAdjust(darkness int, mode byte) error {
	if err := checkRange("print darkness", darkness, -10, 10); err != nil {
		return err
	}

	cmd := fmt.Sprintf("{AY;%c%02d,%c|}\n", sign(darkness), abs(darkness), mode)
	return e.puts("darkness adjustment", cmd)
}

// ClearBuffer sends the C command clearing the printer's image buffer.
func (e *Encoder) ClearBuffer() error {
	return e.puts("clear image buffer", "{C|}\n")
}

// GraphicsHeader opens an SG frame for raw (hex or nibble) transmission.
// The body follows via GraphicsHex/GraphicsNibble and the frame closes
// with GraphicsEnd.
func (e *Encoder) GraphicsHeader(xOrigin, yOrigin, widthDots, heightDots int, mode GraphicsMode) error {
	if err := checkRange("x origin", xOrigin, 0, 9999); err != nil {
		return err
	}
	if err := checkRange("y origin", yOrigin, 0, 99999); err != nil {
		return err
	}
	if err := checkRange("graphic width", widthDots, 0, 9999); err != nil {
		return err
	}
	if err := checkRange("graphic height", heightDots, 0, 99999); err != nil {
		return err
	}

	cmd := fmt.Sprintf("{SG;%04d,%05d,%04d,%05d,%d,", xOrigin, yOrigin, widthDots, heightDots, mode)
	return e.puts("graphics header", cmd)
}

// GraphicsHex transmits one normalized line as raw bytes inside an open
// SG frame.
func (e *Encoder) GraphicsHex(line []byte) error {
	if _, err := e.ch.Write(line); err != nil {
		return fmt.Errorf("tpcl: writing hex graphics line: %w", err)
	}
	return nil
}

// GraphicsNibble transmits one normalized line inside an open SG frame,
// encoded as ASCII characters '0' (0x30) through '?' (0x3F): each byte is
// split into two, with 0b0011 prefixed to each nibble.
func (e *Encoder) GraphicsNibble(line []byte) error {
	out := make([]byte, 2*len(line))
	for i, b := range line {
		out[2*i] = 0x30 | (b >> 4)
		out[2*i+1] = 0x30 | (b & 0x0F)
	}
	if _, err := e.ch.Write(out); err != nil {
		return fmt.Errorf("tpcl: writing nibble graphics line: %w", err)
	}
	return nil
}

// GraphicsEnd closes an open SG frame.
func (e *Encoder) GraphicsEnd() error {
	return e.puts("graphics footer", "|}\n")
}

// GraphicsTOPIX sends one complete compressed SG frame: header, 2-byte
// big-endian payload length, payload, footer. The frame starts at
// yOrigin (0.1mm); the resolution field carries the graphic data dpi in
// TOPIX mode. An empty payload is a no-op so that flushing an empty
// frame buffer writes nothing.
func (e *Encoder) GraphicsTOPIX(yOrigin, widthDots, resolution int, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	if len(payload) > 0xFFFF {
		return fmt.Errorf("tpcl: TOPIX payload %d bytes exceeds 65535", len(payload))
	}
	if err := checkRange("y origin", yOrigin, 0, 99999); err != nil {
		return err
	}
	if err := checkRange("graphic width", widthDots, 0, 9999); err != nil {
		return err
	}

	header := fmt.Sprintf("{SG;0000,%05d,%04d,%05d,%d,", yOrigin, widthDots, resolution, ModeTOPIX)
	e.log.Debug("sending command", "command", "compressed graphics", "frame", header, "payload", len(payload))

	if _, err := e.ch.Puts(header); err != nil {
		return fmt.Errorf("tpcl: writing graphics header: %w", err)
	}
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(payload)))
	if _, err := e.ch.Write(length[:]); err != nil {
		return fmt.Errorf("tpcl: writing graphics length: %w", err)
	}
	if _, err := e.ch.Write(payload); err != nil {
		return fmt.Errorf("tpcl: writing graphics payload: %w", err)
	}
	if _, err := e.ch.Puts("|}\n"); err != nil {
		return fmt.Errorf("tpcl: writing graphics footer: %w", err)
	}
	return nil
}

// IssueLabel sends the XS command executing the print: copies, cut
// interval, then sensor, issue mode, speed, ribbon, rotation, and status
// response selection as single characters.
func (e *Encoder) IssueLabel(copies, cutInterval int, sensor, mode, speed, ribbon, rotation, response byte) error {
	if err := checkRange("copies", copies, 1, 9999); err != nil {
		return err
	}
	if err := checkRange("cut interval", cutInterval, 0, 100); err != nil {
		return err
	}

	cmd := fmt.Sprintf("{XS;I,%04d,%03d%c%c%c%c%c%c|}\n",
		copies, cutInterval, sensor, mode, speed, ribbon, rotation, response)
	return e.puts("issue label", cmd)
}

// Rectangle sends the LC command drawing a rectangle (typ 1) or line
// (typ 0) between two corners in 0.1mm, with the stroke width in dots.
func (e *Encoder) Rectangle(x1, y1, x2, y2, typ, lineWidth int) error {
	for _, f := range []struct {
		name string
		v    int
	}{
		{"x1", x1}, {"y1", y1}, {"x2", x2}, {"y2", y2},
	} {
		if err := checkRange(f.name, f.v, 0, 9999); err != nil {
			return err
		}
	}
	if err := checkRange("line type", typ, 0, 1); err != nil {
		return err
	}
	if err := checkRange("line width", lineWidth, 1, 9); err != nil {
		return err
	}

	cmd := fmt.Sprintf("{LC;%04d,%04d,%04d,%04d,%d,%d|}\n", x1, y1, x2, y2, typ, lineWidth)
	return e.puts("rectangle", cmd)
}

// StatusQuery sends the WS command requesting a status response.
func (e *Encoder) StatusQuery() error {
	return e.puts("status query", "{WS|}\n")
}
