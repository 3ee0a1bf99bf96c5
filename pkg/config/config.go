// Package config holds the per-printer vendor options and their
// validation rules.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Workarounds are device quirks that can be enabled per printer. Both
// default to off.
type Workarounds struct {
	// TCPPadding appends 1024 spaces after the issue command. Some
	// network interface boards hold the last partial packet until more
	// data arrives.
	TCPPadding bool `yaml:"tcp_padding"`

	// BEV4TPadding appends 600 null bytes after the issue command for
	// B-EV4T units that stall on short final transfers.
	BEV4TPadding bool `yaml:"bev4t_padding"`
}

// Options are the vendor-specific printer settings. Dimensions are in
// 0.1mm units.
type Options struct {
	LabelGap   int `yaml:"label_gap"`
	RollMargin int `yaml:"roll_margin"`

	SensorType  string `yaml:"sensor_type"`
	LabelCut    string `yaml:"label_cut"`
	CutInterval int    `yaml:"cut_interval"`
	FeedMode    string `yaml:"feed_mode"`

	FeedOnLabelSizeChange bool `yaml:"feed_on_label_size_change"`

	GraphicsMode string `yaml:"graphics_mode"`

	DitheringAlgorithm      string `yaml:"dithering_algorithm"`
	DitheringAlgorithmPhoto string `yaml:"dithering_algorithm_photo"`
	DitheringThreshold      int    `yaml:"dithering_threshold"`

	FeedAdjustment        int `yaml:"feed_adjustment"`
	CutPositionAdjustment int `yaml:"cut_position_adjustment"`
	BackfeedAdjustment    int `yaml:"backfeed_adjustment"`

	PrintDarkness int `yaml:"print_darkness"`

	// PrintSpeed 0 selects the model default.
	PrintSpeed int `yaml:"print_speed"`

	Workarounds Workarounds `yaml:"workarounds"`
}

// Default returns the factory option set.
func Default() Options {
	return Options{
		LabelGap:                50,
		RollMargin:              10,
		SensorType:              "transmissive",
		LabelCut:                "non-cut",
		CutInterval:             0,
		FeedMode:                "batch",
		FeedOnLabelSizeChange:   true,
		GraphicsMode:            "topix",
		DitheringAlgorithm:      "threshold",
		DitheringAlgorithmPhoto: "threshold",
		DitheringThreshold:      128,
	}
}

// Load reads options from a YAML file, layered over the defaults.
func Load(path string) (Options, error) {
	opts := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("config: %s: %w", path, err)
	}
	return opts, nil
}

func inRange(name string, v, min, max int) error {
	if v < min || v > max {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, v)
	}
	return nil
}

func oneOf(name, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %v, got %q", name, allowed, v)
}

// Validate checks all option values against their documented ranges.
func (o Options) Validate() error {
	checks := []error{
		inRange("label_gap", o.LabelGap, 0, 200),
		inRange("roll_margin", o.RollMargin, 0, 300),
		oneOf("sensor_type", o.SensorType,
			"none", "reflective", "transmissive", "reflective-pre-print", "transmissive-pre-print"),
		oneOf("label_cut", o.LabelCut, "non-cut", "cut"),
		inRange("cut_interval", o.CutInterval, 0, 100),
		oneOf("feed_mode", o.FeedMode,
			"batch", "strip-backfeed-sensor", "strip-backfeed-no-sensor", "partial-cut"),
		oneOf("graphics_mode", o.GraphicsMode,
			"nibble-and", "hex-and", "topix", "nibble-or", "hex-or"),
		oneOf("dithering_algorithm", o.DitheringAlgorithm, "threshold", "bayer", "clustered"),
		oneOf("dithering_algorithm_photo", o.DitheringAlgorithmPhoto, "threshold", "bayer", "clustered"),
		inRange("dithering_threshold", o.DitheringThreshold, 0, 255),
		inRange("feed_adjustment", o.FeedAdjustment, -500, 500),
		inRange("cut_position_adjustment", o.CutPositionAdjustment, -180, 180),
		inRange("backfeed_adjustment", o.BackfeedAdjustment, -99, 99),
		inRange("print_darkness", o.PrintDarkness, -10, 10),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}
