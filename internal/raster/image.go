package raster

import (
	"image"

	"golang.org/x/image/draw"
)

// Lines converts a decoded image into 8-bit grayscale raster lines of
// widthDots samples each, scaled to fit the label width while preserving
// aspect ratio. The result feeds Normalize with depth 8 and BlackIsOne
// polarity: high values are ink.
func Lines(img image.Image, widthDots int) [][]byte {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 || widthDots <= 0 {
		return nil
	}
	heightDots := bounds.Dy() * widthDots / bounds.Dx()
	if heightDots < 1 {
		heightDots = 1
	}

	gray := image.NewGray(image.Rect(0, 0, widthDots, heightDots))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, bounds, draw.Src, nil)

	lines := make([][]byte, heightDots)
	for y := 0; y < heightDots; y++ {
		row := make([]byte, widthDots)
		for x := 0; x < widthDots; x++ {
			// image.Gray stores luminance; ink is dark, so invert.
			row[x] = 255 - gray.GrayAt(x, y).Y
		}
		lines[y] = row
	}

	return lines
}
