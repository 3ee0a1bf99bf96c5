// Package driver orchestrates TPCL print jobs: it owns the geometry
// calculations, the command sequence around each page, and the raster
// pipeline from grayscale lines to on-wire graphics data.
package driver

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tecprint/tpcl-engine/internal/dither"
	"github.com/tecprint/tpcl-engine/internal/raster"
	"github.com/tecprint/tpcl-engine/internal/topix"
	"github.com/tecprint/tpcl-engine/pkg/config"
	"github.com/tecprint/tpcl-engine/pkg/device"
	"github.com/tecprint/tpcl-engine/pkg/state"
	"github.com/tecprint/tpcl-engine/pkg/tpcl"
)

// Conversion constants for points (1/72 inch) and millimeters.
const (
	pointsPerInch = 72.0
	mmPerInch     = 25.4
)

// tcpPadding and bev4tPadding are the workaround byte counts appended
// after the issue command when the respective quirk is enabled.
const (
	tcpPaddingLen   = 1024
	bev4tPaddingLen = 600
)

// JobRequest describes one print job's raster stream.
type JobRequest struct {
	// Page size in points.
	WidthPts  float64
	HeightPts float64

	// Raster dimensions in dots and the line format.
	WidthDots    int
	HeightDots   int
	BytesPerLine int
	BitsPerPixel int

	// WhiteIsOne marks rasters where a set bit means white.
	WhiteIsOne bool

	// Resolution in dpi, taken from the raster header.
	Resolution int

	Copies int

	// Photo selects the photo dithering algorithm.
	Photo bool
}

type activeJob struct {
	id      string
	req     JobRequest
	mode    tpcl.GraphicsMode
	norm    *raster.Normalizer
	session *topix.Session
	yOffset int
	nextY   int
	inPage  bool
}

// Driver drives one printer over an open channel.
type Driver struct {
	ch      device.Channel
	enc     *tpcl.Encoder
	log     *slog.Logger
	model   Model
	opts    config.Options
	tracker *state.Tracker

	printerID string
	mediaType string
	speed     int

	job *activeJob
}

// New creates a driver for a printer. The tracker may be nil, which
// disables label size change detection and the calibration feed.
func New(ch device.Channel, model Model, opts config.Options, tracker *state.Tracker, printerID, mediaType string, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	speed := opts.PrintSpeed
	if speed == 0 {
		speed = model.SpeedDefault
	}
	return &Driver{
		ch:        ch,
		enc:       tpcl.NewEncoder(ch, log),
		log:       log,
		model:     model,
		opts:      opts,
		tracker:   tracker,
		printerID: printerID,
		mediaType: mediaType,
		speed:     speed,
	}
}

func graphicsMode(name string) (tpcl.GraphicsMode, error) {
	switch name {
	case "nibble-and":
		return tpcl.ModeNibbleAND, nil
	case "hex-and":
		return tpcl.ModeHexAND, nil
	case "topix":
		return tpcl.ModeTOPIX, nil
	case "nibble-or":
		return tpcl.ModeNibbleOR, nil
	case "hex-or":
		return tpcl.ModeHexOR, nil
	}
	return 0, fmt.Errorf("driver: unknown graphics mode %q", name)
}

// pointsToTenthMM converts points to 0.1mm units.
func pointsToTenthMM(pts float64) int {
	return int(pts * mmPerInch * 10.0 / pointsPerInch)
}

// geometryLimits returns the maximum label pitch and print height in
// 0.1mm for a resolution.
func geometryLimits(dpi int) (maxPitch, maxHeight int) {
	if dpi == 300 {
		return 4572, 4552
	}
	return 9990, 9970
}

func (d *Driver) ditherMatrix(photo bool) *dither.Matrix {
	algo := d.opts.DitheringAlgorithm
	if photo {
		algo = d.opts.DitheringAlgorithmPhoto
	}
	switch algo {
	case "bayer":
		return dither.Bayer()
	case "clustered":
		return dither.Clustered()
	}
	return dither.Flat(byte(d.opts.DitheringThreshold))
}

func (d *Driver) geometry(printWidth, printHeight int) state.Geometry {
	return state.Geometry{
		PrintWidth:  printWidth,
		PrintHeight: printHeight,
		LabelGap:    d.opts.LabelGap,
		RollMargin:  d.opts.RollMargin,
	}
}

// sendLabelSize validates the geometry against the resolution limits and
// sends the D command.
func (d *Driver) sendLabelSize(g state.Geometry, dpi int) error {
	maxPitch, maxHeight := geometryLimits(dpi)
	if g.Pitch() > maxPitch {
		return fmt.Errorf("driver: label pitch %d (0.1mm) exceeds maximum %d for %ddpi", g.Pitch(), maxPitch, dpi)
	}
	if g.PrintHeight > maxHeight {
		return fmt.Errorf("driver: print height %d (0.1mm) exceeds maximum %d for %ddpi", g.PrintHeight, maxHeight, dpi)
	}
	return d.enc.LabelSize(g.Pitch(), g.PrintWidth, g.PrintHeight, g.RollWidth())
}

// sendAdjustments sends AX and AY, each only when its values are
// non-zero. The printer persists adjustments across jobs, so sending
// zeroes would clobber panel settings.
func (d *Driver) sendAdjustments() error {
	if d.opts.FeedAdjustment != 0 || d.opts.CutPositionAdjustment != 0 || d.opts.BackfeedAdjustment != 0 {
		if err := d.enc.PositionAdjust(d.opts.FeedAdjustment, d.opts.CutPositionAdjustment, d.opts.BackfeedAdjustment); err != nil {
			return err
		}
	}
	if d.opts.PrintDarkness != 0 {
		if err := d.enc.DarknessAdjust(d.opts.PrintDarkness, darknessModeChar(d.mediaType)); err != nil {
			return err
		}
	}
	return nil
}

// feedIfSizeChanged feeds one label when the media geometry differs
// from the printer's saved state and the option is enabled.
func (d *Driver) feedIfSizeChanged(g state.Geometry) error {
	if d.tracker == nil {
		return nil
	}
	changed := d.tracker.CheckAndUpdate(d.printerID, g)
	if !changed || !d.opts.FeedOnLabelSizeChange {
		return nil
	}
	d.log.Debug("label size changed, feeding one label", "printer", d.printerID)
	return d.sendFeed()
}

func (d *Driver) sendFeed() error {
	return d.enc.Feed(
		sensorChar(d.opts.SensorType),
		cutChar(d.opts.LabelCut),
		feedModeChar(d.opts.FeedMode),
		speedChar(d.speed),
		ribbonChar(d.mediaType))
}

func (d *Driver) sendIssue(copies int) error {
	return d.enc.IssueLabel(
		copies,
		d.opts.CutInterval,
		sensorChar(d.opts.SensorType),
		feedModeChar(d.opts.FeedMode),
		speedChar(d.speed),
		ribbonChar(d.mediaType),
		'0', // rotation handled upstream
		'0') // no status response after issue
}

// sendPadding applies the enabled transport workarounds after the issue
// command.
func (d *Driver) sendPadding() error {
	if d.opts.Workarounds.TCPPadding {
		if _, err := d.ch.Puts(strings.Repeat(" ", tcpPaddingLen)); err != nil {
			return fmt.Errorf("driver: writing TCP padding: %w", err)
		}
	}
	if d.opts.Workarounds.BEV4TPadding {
		if _, err := d.ch.Write(make([]byte, bev4tPaddingLen)); err != nil {
			return fmt.Errorf("driver: writing B-EV4T padding: %w", err)
		}
	}
	return nil
}

// StartJob validates the request, sends the job preamble (label size,
// adjustments, calibration feed) and prepares the raster pipeline.
func (d *Driver) StartJob(req JobRequest) error {
	if d.job != nil {
		return fmt.Errorf("driver: job %s still active", d.job.id)
	}
	if req.Copies < 1 {
		req.Copies = 1
	}

	mode, err := graphicsMode(d.opts.GraphicsMode)
	if err != nil {
		return err
	}
	if mode == tpcl.ModeTOPIX && req.Resolution != 150 && req.Resolution != 300 {
		return fmt.Errorf("driver: TOPIX mode requires 150 or 300 dpi graphic data, got %d", req.Resolution)
	}

	// The SG headers claim WidthDots, so the line length must agree with
	// it or the device renders garbage.
	switch req.BitsPerPixel {
	case 1:
		if want := (req.WidthDots + 7) / 8; req.BytesPerLine != want {
			return fmt.Errorf("driver: %d bytes per line does not cover %d dots at 1 bit, expected %d",
				req.BytesPerLine, req.WidthDots, want)
		}
	case 8:
		if req.BytesPerLine != req.WidthDots {
			return fmt.Errorf("driver: %d bytes per line does not cover %d dots at 8 bit",
				req.BytesPerLine, req.WidthDots)
		}
	}

	var matrix *dither.Matrix
	if req.BitsPerPixel == 8 {
		matrix = d.ditherMatrix(req.Photo)
	}
	polarity := raster.BlackIsOne
	if req.WhiteIsOne {
		polarity = raster.WhiteIsOne
	}
	norm, err := raster.NewNormalizer(req.BytesPerLine, req.BitsPerPixel, polarity, matrix)
	if err != nil {
		return err
	}

	job := &activeJob{
		id:   uuid.New().String(),
		req:  req,
		mode: mode,
		norm: norm,
	}
	if mode == tpcl.ModeTOPIX {
		job.session, err = topix.NewSession(norm.OutLen())
		if err != nil {
			return err
		}
	}

	g := d.geometry(pointsToTenthMM(req.WidthPts), pointsToTenthMM(req.HeightPts))
	if err := d.sendLabelSize(g, req.Resolution); err != nil {
		return err
	}
	if err := d.sendAdjustments(); err != nil {
		return err
	}
	if err := d.feedIfSizeChanged(g); err != nil {
		return err
	}

	d.job = job
	d.log.Info("job started",
		"job", job.id,
		"printer", d.printerID,
		"mode", d.opts.GraphicsMode,
		"width", g.PrintWidth, "height", g.PrintHeight,
		"copies", req.Copies)
	return nil
}

// StartPage clears the printer's image buffer and opens the graphics
// stream for one page.
func (d *Driver) StartPage() error {
	if d.job == nil {
		return fmt.Errorf("driver: no active job")
	}
	if d.job.inPage {
		return fmt.Errorf("driver: page already open in job %s", d.job.id)
	}

	if err := d.enc.ClearBuffer(); err != nil {
		return err
	}

	if d.job.mode == tpcl.ModeTOPIX {
		d.job.session.Reset()
		d.job.yOffset = 0
	} else {
		if err := d.enc.GraphicsHeader(0, 0, d.job.req.WidthDots, d.job.req.HeightDots, d.job.mode); err != nil {
			return err
		}
	}
	d.job.inPage = true
	d.job.nextY = 0
	return nil
}

// WriteLine feeds one raster line into the page. Lines arrive strictly
// in order; the raw line must match the job's bytes-per-line.
func (d *Driver) WriteLine(y int, raw []byte) error {
	if d.job == nil || !d.job.inPage {
		return fmt.Errorf("driver: no open page")
	}
	job := d.job
	if y != job.nextY {
		return fmt.Errorf("driver: line %d out of order, expected %d", y, job.nextY)
	}
	job.nextY = y + 1

	line, err := job.norm.Normalize(y, raw)
	if err != nil {
		return err
	}

	switch job.mode {
	case tpcl.ModeHexAND, tpcl.ModeHexOR:
		return d.enc.GraphicsHex(line)
	case tpcl.ModeNibbleAND, tpcl.ModeNibbleOR:
		return d.enc.GraphicsNibble(line)
	}

	job.session.CompressLine(line)

	// Flush the compression buffer when it nears the 64k frame ceiling
	// and always on the last line, so a page never splits a line across
	// frames and never ends with data still buffered.
	if job.session.NeedsFlush() || y == job.req.HeightDots-1 {
		if err := d.flushTOPIX(y); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) flushTOPIX(y int) error {
	job := d.job
	n := job.session.Len()
	if err := d.enc.GraphicsTOPIX(job.yOffset, job.req.WidthDots, job.req.Resolution, job.session.Bytes()); err != nil {
		return err
	}
	job.session.Reset()
	// The next frame starts below the lines sent so far.
	job.yOffset = (y + 1) * 254 / job.req.Resolution
	d.log.Debug("compression buffer flushed",
		"job", job.id, "line", y, "bytes", n, "next_y_offset", job.yOffset)
	return nil
}

// EndPage closes the graphics stream, issues the label and flushes the
// channel.
func (d *Driver) EndPage() error {
	if d.job == nil || !d.job.inPage {
		return fmt.Errorf("driver: no open page")
	}

	if d.job.mode.Raw() {
		if err := d.enc.GraphicsEnd(); err != nil {
			return err
		}
	} else if d.job.session.Len() > 0 {
		// A page ended before its last line still has raster buffered.
		if err := d.flushTOPIX(d.job.nextY - 1); err != nil {
			return err
		}
	}
	if err := d.sendIssue(d.job.req.Copies); err != nil {
		return err
	}
	if err := d.sendPadding(); err != nil {
		return err
	}
	if err := d.ch.Flush(); err != nil {
		return fmt.Errorf("driver: flushing page: %w", err)
	}
	d.job.inPage = false
	return nil
}

// Abort releases the active job and its buffers after a failed
// lifecycle call. Safe to call when no job is active.
func (d *Driver) Abort() {
	if d.job == nil {
		return
	}
	d.log.Warn("job aborted", "job", d.job.id, "printer", d.printerID)
	d.job = nil
}

// EndJob releases the job. Each started job must be ended exactly once.
func (d *Driver) EndJob() error {
	if d.job == nil {
		return fmt.Errorf("driver: no active job")
	}
	if d.job.inPage {
		return fmt.Errorf("driver: page still open in job %s", d.job.id)
	}
	d.log.Info("job finished", "job", d.job.id, "printer", d.printerID)
	d.job = nil
	return nil
}

// Identify feeds one blank label so the user can locate the printer.
// Dimensions are in 0.1mm.
func (d *Driver) Identify(printWidth, printHeight int) error {
	g := d.geometry(printWidth, printHeight)
	if err := d.sendLabelSize(g, d.model.DefaultResolution()); err != nil {
		return err
	}
	if err := d.sendFeed(); err != nil {
		return err
	}
	if err := d.ch.Flush(); err != nil {
		return fmt.Errorf("driver: flushing identify: %w", err)
	}
	return nil
}

// Test page box layout in 0.1mm.
const (
	testBoxSpacing = 45
	testBoxMinSize = 50
)

// TestPage prints concentric rectangles over the whole label using the
// printer's vector command, exercising geometry, adjustments and issue
// without raster data. Dimensions are in 0.1mm.
func (d *Driver) TestPage(printWidth, printHeight int) error {
	if d.job != nil {
		return fmt.Errorf("driver: job %s still active", d.job.id)
	}

	g := d.geometry(printWidth, printHeight)
	if err := d.sendLabelSize(g, d.model.DefaultResolution()); err != nil {
		return err
	}
	if err := d.sendAdjustments(); err != nil {
		return err
	}
	if err := d.feedIfSizeChanged(g); err != nil {
		return err
	}
	if err := d.enc.ClearBuffer(); err != nil {
		return err
	}

	// 0.5mm stroke: 4 dots at 203dpi, 6 at 300dpi.
	lineWidth := 4
	if d.model.DefaultResolution() == 300 {
		lineWidth = 6
	}
	for offset := 0; ; offset += testBoxSpacing {
		x2 := printWidth - offset
		y2 := printHeight - offset
		if x2-offset < testBoxMinSize || y2-offset < testBoxMinSize {
			break
		}
		if err := d.enc.Rectangle(offset, offset, x2, y2, 1, lineWidth); err != nil {
			return err
		}
	}

	if err := d.sendIssue(1); err != nil {
		return err
	}
	if err := d.ch.Flush(); err != nil {
		return fmt.Errorf("driver: flushing test page: %w", err)
	}
	return nil
}

// Status queries the printer's condition.
func (d *Driver) Status() (tpcl.Status, error) {
	return tpcl.QueryStatus(d.ch, d.log)
}

// DeletePrinter removes the printer's persisted geometry state.
func (d *Driver) DeletePrinter() error {
	if d.tracker == nil {
		return nil
	}
	return d.tracker.Delete(d.printerID)
}
