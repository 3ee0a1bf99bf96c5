package driver

// Model describes one supported printer's capabilities. Label sizes are
// in points (1/72 inch); speeds are the vendor's speed enum.
type Model struct {
	Name string

	MinWidthPts  int
	MinHeightPts int
	MaxWidthPts  int
	MaxHeightPts int

	Res203 bool
	Res300 bool

	// Direct thermal media are always supported. ThermalTransfer adds
	// thermal transfer media; RibbonControl additionally allows ribbon
	// saving selection.
	ThermalTransfer bool
	RibbonControl   bool

	SpeedMin     int
	SpeedDefault int
	SpeedMax     int
}

var models = []Model{
	{"B-SA4G", 63, 29, 300, 2830, true, false, true, false, 0x2, 0x4, 0x6},
	{"B-SA4T", 63, 29, 300, 2830, false, true, true, false, 0x2, 0x4, 0x6},
	{"B-SX4", 72, 23, 295, 4246, true, false, false, true, 0x3, 0x6, 0xA},
	{"B-SX5", 73, 29, 362, 4246, true, true, false, true, 0x3, 0x5, 0x8},
	{"B-SX6", 238, 29, 483, 4246, true, true, false, true, 0x3, 0x4, 0x8},
	{"B-SX8", 286, 29, 605, 4246, true, true, false, true, 0x3, 0x4, 0x8},
	{"B-482", 72, 23, 295, 4246, true, true, false, true, 0x3, 0x5, 0x8},
	{"B-572", 73, 29, 362, 4246, true, true, false, true, 0x3, 0x5, 0x8},
	{"B-852R", 283, 35, 614, 1814, false, true, false, false, 0x2, 0x4, 0x8},
	{"B-SV4D", 71, 23, 306, 1726, true, false, false, false, 0x2, 0x3, 0x5},
	{"B-SV4T", 71, 23, 306, 1726, true, false, true, false, 0x2, 0x3, 0x5},
	{"B-EV4D-GS14", 71, 23, 306, 1726, true, true, false, false, 0x2, 0x3, 0x5},
	{"B-EV4T-GS14", 71, 23, 306, 1726, true, true, true, false, 0x2, 0x3, 0x5},
}

// Models lists all supported printer models.
func Models() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

// LookupModel finds a model by name.
func LookupModel(name string) (Model, bool) {
	for _, m := range models {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// DefaultResolution returns the model's preferred dpi; 300 wins when
// both are available.
func (m Model) DefaultResolution() int {
	if m.Res300 {
		return 300
	}
	return 203
}

// SupportsResolution reports whether the model prints at the given dpi.
func (m Model) SupportsResolution(dpi int) bool {
	switch dpi {
	case 203:
		return m.Res203
	case 300:
		return m.Res300
	}
	return false
}

// MediaTypes lists the media type names this model accepts.
func (m Model) MediaTypes() []string {
	types := []string{"direct-thermal"}
	if m.ThermalTransfer {
		types = append(types, "thermal-transfer")
	}
	if m.RibbonControl {
		types = append(types, "thermal-transfer-ribbon-saving", "thermal-transfer-no-ribbon-saving")
	}
	return types
}
