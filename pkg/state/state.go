// Package state persists label geometry between jobs. The printer feeds
// a calibration label whenever the media geometry changes, so the driver
// remembers the last geometry per printer and only triggers a feed when
// a job actually differs.
package state

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Geometry holds label media dimensions in 0.1mm units.
type Geometry struct {
	PrintWidth  int
	PrintHeight int
	LabelGap    int
	RollMargin  int
}

// Pitch is the label pitch: print height plus inter-label gap.
func (g Geometry) Pitch() int {
	return g.PrintHeight + g.LabelGap
}

// RollWidth is the backing paper width: print width plus roll margin.
func (g Geometry) RollWidth() int {
	return g.PrintWidth + g.RollMargin
}

// Store loads and saves per-printer geometry.
type Store interface {
	Load(printerID string) (Geometry, bool, error)
	Save(printerID string, g Geometry) error
	Delete(printerID string) error
}

// FileStore keeps one key=value state file per printer under a
// directory.
type FileStore struct {
	Dir string
}

// NewFileStore creates a store rooted at dir. The directory is created
// on first save, not here.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(printerID string) string {
	return filepath.Join(s.Dir, printerID+".state")
}

// Load reads a printer's saved geometry. The second return value is
// false when no complete state exists, which is normal on first run.
func (s *FileStore) Load(printerID string) (Geometry, bool, error) {
	f, err := os.Open(s.path(printerID))
	if errors.Is(err, fs.ErrNotExist) {
		return Geometry{}, false, nil
	}
	if err != nil {
		return Geometry{}, false, fmt.Errorf("state: opening state file: %w", err)
	}
	defer f.Close()

	width, height, gap, margin := -1, -1, -1, -1
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		switch strings.TrimSpace(key) {
		case "last_print_width":
			width = n
		case "last_print_height":
			height = n
		case "last_label_gap":
			gap = n
		case "last_roll_margin":
			margin = n
		}
	}
	if err := scanner.Err(); err != nil {
		return Geometry{}, false, fmt.Errorf("state: reading state file: %w", err)
	}

	// A file missing any field is treated as absent.
	if width < 0 || height < 0 || gap < 0 || margin < 0 {
		return Geometry{}, false, nil
	}
	return Geometry{
		PrintWidth:  width,
		PrintHeight: height,
		LabelGap:    gap,
		RollMargin:  margin,
	}, true, nil
}

// Save writes a printer's geometry, creating the state directory if
// needed.
func (s *FileStore) Save(printerID string, g Geometry) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("state: creating state directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# TPCL printer state file\n")
	b.WriteString("# Auto-generated - do not edit manually\n")
	fmt.Fprintf(&b, "last_print_width=%d\n", g.PrintWidth)
	fmt.Fprintf(&b, "last_print_height=%d\n", g.PrintHeight)
	fmt.Fprintf(&b, "last_label_gap=%d\n", g.LabelGap)
	fmt.Fprintf(&b, "last_roll_margin=%d\n", g.RollMargin)

	if err := os.WriteFile(s.path(printerID), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("state: writing state file: %w", err)
	}
	return nil
}

// Delete removes a printer's state file. A missing file is not an error.
func (s *FileStore) Delete(printerID string) error {
	err := os.Remove(s.path(printerID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("state: deleting state file: %w", err)
	}
	return nil
}

// Tracker wraps a Store with the change-detection policy: a job's
// geometry is compared against the saved one, and the file is only
// rewritten when something changed.
type Tracker struct {
	store Store
	log   *slog.Logger
}

// NewTracker creates a tracker over store. A nil logger falls back to
// slog.Default.
func NewTracker(store Store, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{store: store, log: log}
}

// CheckAndUpdate reports whether geometry differs from the printer's
// saved state. First run counts as changed. The state file is rewritten
// only on change; load and save failures degrade to "changed" so a
// broken state directory never suppresses the calibration feed.
func (t *Tracker) CheckAndUpdate(printerID string, g Geometry) bool {
	prev, ok, err := t.store.Load(printerID)
	if err != nil {
		t.log.Warn("failed to load printer state", "printer", printerID, "error", err)
	}
	if ok && prev == g {
		return false
	}
	if !ok {
		t.log.Debug("no previous label dimensions found", "printer", printerID)
	} else {
		t.log.Info("label dimensions changed",
			"printer", printerID,
			"width", g.PrintWidth, "height", g.PrintHeight,
			"gap", g.LabelGap, "margin", g.RollMargin,
			"prev_width", prev.PrintWidth, "prev_height", prev.PrintHeight,
			"prev_gap", prev.LabelGap, "prev_margin", prev.RollMargin)
	}

	if err := t.store.Save(printerID, g); err != nil {
		t.log.Warn("failed to save printer state", "printer", printerID, "error", err)
	}
	return true
}

// Delete removes a printer's saved state, for printer removal.
func (t *Tracker) Delete(printerID string) error {
	return t.store.Delete(printerID)
}
