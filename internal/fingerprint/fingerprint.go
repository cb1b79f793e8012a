// Package fingerprint computes perceptual hashes used to flag near-duplicate
// face samples during collection.
package fingerprint

import (
	"fmt"
	"image"
	"image/color"
	"math/bits"

	"golang.org/x/image/draw"
)

// The hash grid has one more column than bits per row.
const (
	gridCols = 9
	gridRows = 8
)

// DHash computes a 64-bit difference hash. Bit i is set when cell i of the
// downscaled grid is brighter than its right neighbour; the first cell maps
// to the most significant bit.
func DHash(img image.Image) uint64 {
	grid := lumaGrid(img)

	var hash uint64
	for _, row := range grid {
		for x := range gridCols - 1 {
			hash <<= 1
			if row[x] > row[x+1] {
				hash |= 1
			}
		}
	}
	return hash
}

// Hex formats a hash as 16 hex characters.
func Hex(hash uint64) string {
	return fmt.Sprintf("%016x", hash)
}

// Distance is the number of differing bits.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two hashes differ in at most threshold bits.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// lumaGrid scales img down to the hash grid and returns its luma, row major.
func lumaGrid(img image.Image) [gridRows][gridCols]float64 {
	small := image.NewRGBA(image.Rect(0, 0, gridCols, gridRows))
	draw.BiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)

	var grid [gridRows][gridCols]float64
	for y := range gridRows {
		for x := range gridCols {
			grid[y][x] = luma(small.RGBAAt(x, y))
		}
	}
	return grid
}

// luma uses the ITU-R BT.601 weights.
func luma(c color.RGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}
