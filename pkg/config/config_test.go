package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultValues(t *testing.T) {
	o := Default()
	if o.LabelGap != 50 || o.RollMargin != 10 {
		t.Errorf("geometry defaults = gap %d, margin %d; want 50, 10", o.LabelGap, o.RollMargin)
	}
	if o.GraphicsMode != "topix" {
		t.Errorf("graphics mode default = %q, want topix", o.GraphicsMode)
	}
	if o.DitheringThreshold != 128 {
		t.Errorf("dithering threshold default = %d, want 128", o.DitheringThreshold)
	}
	if !o.FeedOnLabelSizeChange {
		t.Error("feed on label size change should default to enabled")
	}
	if o.Workarounds.TCPPadding || o.Workarounds.BEV4TPadding {
		t.Error("workarounds should default to off")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Options)
	}{
		{"label gap too large", func(o *Options) { o.LabelGap = 201 }},
		{"negative roll margin", func(o *Options) { o.RollMargin = -1 }},
		{"unknown sensor", func(o *Options) { o.SensorType = "sonar" }},
		{"unknown cut", func(o *Options) { o.LabelCut = "shred" }},
		{"cut interval too large", func(o *Options) { o.CutInterval = 101 }},
		{"unknown feed mode", func(o *Options) { o.FeedMode = "turbo" }},
		{"unknown graphics mode", func(o *Options) { o.GraphicsMode = "png" }},
		{"unknown dithering", func(o *Options) { o.DitheringAlgorithm = "random" }},
		{"threshold too large", func(o *Options) { o.DitheringThreshold = 256 }},
		{"feed adjustment out of range", func(o *Options) { o.FeedAdjustment = -501 }},
		{"cut adjustment out of range", func(o *Options) { o.CutPositionAdjustment = 181 }},
		{"backfeed out of range", func(o *Options) { o.BackfeedAdjustment = 100 }},
		{"darkness out of range", func(o *Options) { o.PrintDarkness = 11 }},
	}
	for _, tc := range cases {
		o := Default()
		tc.mutate(&o)
		if err := o.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printer.yaml")
	content := strings.Join([]string{
		"label_gap: 30",
		"graphics_mode: hex-or",
		"dithering_algorithm: bayer",
		"print_darkness: 3",
		"workarounds:",
		"  tcp_padding: true",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	o, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if o.LabelGap != 30 {
		t.Errorf("label gap = %d, want 30", o.LabelGap)
	}
	if o.GraphicsMode != "hex-or" {
		t.Errorf("graphics mode = %q, want hex-or", o.GraphicsMode)
	}
	if o.DitheringAlgorithm != "bayer" {
		t.Errorf("dithering = %q, want bayer", o.DitheringAlgorithm)
	}
	if !o.Workarounds.TCPPadding {
		t.Error("tcp padding workaround not loaded")
	}
	// Untouched keys keep their defaults.
	if o.RollMargin != 10 || o.SensorType != "transmissive" {
		t.Errorf("defaults not preserved: margin %d, sensor %q", o.RollMargin, o.SensorType)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printer.yaml")
	if err := os.WriteFile(path, []byte("label_gap: 9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
