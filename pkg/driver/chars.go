package driver

import "strings"

// Command character mappings from option strings. Unknown values fall
// back to the vendor defaults, matching the tolerant handling of the
// option layer.

func sensorChar(sensorType string) byte {
	switch sensorType {
	case "none":
		return '0'
	case "reflective":
		return '1'
	case "transmissive-pre-print":
		return '3'
	case "reflective-pre-print":
		return '4'
	}
	return '2' // transmissive
}

func cutChar(labelCut string) byte {
	if labelCut == "cut" {
		return '1'
	}
	return '0'
}

func feedModeChar(feedMode string) byte {
	switch feedMode {
	case "strip-backfeed-sensor":
		return 'D'
	case "strip-backfeed-no-sensor":
		return 'E'
	case "partial-cut":
		return 'F'
	}
	return 'C' // batch
}

// speedChar encodes the vendor speed enum as a hex character.
func speedChar(speed int) byte {
	if speed > 9 {
		return byte('A' + speed - 10)
	}
	return byte('0' + speed)
}

func ribbonChar(mediaType string) byte {
	switch mediaType {
	case "thermal-transfer-ribbon-saving":
		return '1'
	case "thermal-transfer-no-ribbon-saving":
		return '2'
	}
	return '0'
}

// darknessModeChar selects the AY mode: '0' for thermal transfer media,
// '1' for direct thermal.
func darknessModeChar(mediaType string) byte {
	if strings.HasPrefix(mediaType, "thermal-transfer") {
		return '0'
	}
	return '1'
}
