package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGeometryDerived(t *testing.T) {
	g := Geometry{PrintWidth: 1000, PrintHeight: 1040, LabelGap: 20, RollMargin: 20}
	if g.Pitch() != 1060 {
		t.Errorf("pitch = %d, want 1060", g.Pitch())
	}
	if g.RollWidth() != 1020 {
		t.Errorf("roll width = %d, want 1020", g.RollWidth())
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(t.TempDir())

	if _, ok, err := s.Load("printer1"); err != nil || ok {
		t.Fatalf("fresh load = ok %v, err %v; want absent", ok, err)
	}

	g := Geometry{PrintWidth: 1000, PrintHeight: 1040, LabelGap: 20, RollMargin: 20}
	if err := s.Save("printer1", g); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.Load("printer1")
	if err != nil || !ok {
		t.Fatalf("load after save = ok %v, err %v", ok, err)
	}
	if got != g {
		t.Errorf("loaded %+v, want %+v", got, g)
	}
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	s := NewFileStore(dir)
	if err := s.Save("p", Geometry{PrintWidth: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "p.state")); err != nil {
		t.Fatal(err)
	}
}

func TestFileStoreIncompleteFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)

	content := "# comment\nlast_print_width=1000\nlast_print_height=1040\n"
	if err := os.WriteFile(filepath.Join(dir, "p.state"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := s.Load("p"); err != nil || ok {
		t.Errorf("incomplete file load = ok %v, err %v; want absent", ok, err)
	}
}

func TestFileStoreFormat(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	if err := s.Save("p", Geometry{PrintWidth: 1000, PrintHeight: 1040, LabelGap: 20, RollMargin: 30}); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "p.state"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"last_print_width=1000\n",
		"last_print_height=1040\n",
		"last_label_gap=20\n",
		"last_roll_margin=30\n",
	} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("state file missing %q:\n%s", want, raw)
		}
	}
}

func TestFileStoreDelete(t *testing.T) {
	s := NewFileStore(t.TempDir())
	if err := s.Delete("absent"); err != nil {
		t.Errorf("deleting absent state: %v", err)
	}

	if err := s.Save("p", Geometry{PrintWidth: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("p"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Load("p"); ok {
		t.Error("state still present after delete")
	}
}

func TestTrackerChangeDetection(t *testing.T) {
	tr := NewTracker(NewFileStore(t.TempDir()), nil)
	g := Geometry{PrintWidth: 1000, PrintHeight: 1040, LabelGap: 20, RollMargin: 20}

	if !tr.CheckAndUpdate("p", g) {
		t.Error("first run should report changed")
	}
	if tr.CheckAndUpdate("p", g) {
		t.Error("unchanged geometry should not report changed")
	}

	g.LabelGap = 30
	if !tr.CheckAndUpdate("p", g) {
		t.Error("changed gap should report changed")
	}
	if tr.CheckAndUpdate("p", g) {
		t.Error("geometry should persist after change")
	}
}

func TestTrackerPerPrinter(t *testing.T) {
	tr := NewTracker(NewFileStore(t.TempDir()), nil)
	g := Geometry{PrintWidth: 1000, PrintHeight: 1040, LabelGap: 20, RollMargin: 20}

	tr.CheckAndUpdate("a", g)
	if !tr.CheckAndUpdate("b", g) {
		t.Error("state must be tracked per printer")
	}
}
