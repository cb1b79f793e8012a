package fingerprint

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     uint64
		expected int
	}{
		{"identical", 0x0, 0x0, 0},
		{"all bits", math.MaxUint64, 0x0, 64},
		{"one bit", 0x1, 0x0, 1},
		{"nibble", 0xF0, 0x0, 4},
		{"interleaved", 0xAAAAAAAAAAAAAAAA, 0x5555555555555555, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.expected {
				t.Errorf("Distance(%x, %x) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	tests := []struct {
		name      string
		b         uint64
		threshold int
		expected  bool
	}{
		{"equal, zero threshold", 0x0, 0, true},
		{"at threshold", 0xF, 4, true},
		{"one over threshold", 0x1F, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similar(0, tt.b, tt.threshold); got != tt.expected {
				t.Errorf("Similar(0, %x, %d) = %v, want %v", tt.b, tt.threshold, got, tt.expected)
			}
		})
	}
}

func TestDHash_Gradients(t *testing.T) {
	rising := DHash(ramp(100, 100, false))
	falling := DHash(ramp(100, 100, true))

	if rising != 0 {
		t.Errorf("left-to-right brightening should hash to zero, got %s", Hex(rising))
	}
	if falling != math.MaxUint64 {
		t.Errorf("left-to-right darkening should set every bit, got %s", Hex(falling))
	}
}

func TestDHash_BitOrder(t *testing.T) {
	// Only the top-left cell is brighter than its neighbour.
	img := image.NewRGBA(image.Rect(0, 0, gridCols, gridRows))
	for y := range gridRows {
		for x := range gridCols {
			img.SetRGBA(x, y, color.RGBA{uint8(10 * x), uint8(10 * x), uint8(10 * x), 255})
		}
	}
	img.SetRGBA(0, 0, color.RGBA{255, 255, 255, 255})

	if got := DHash(img); got != 1<<63 {
		t.Errorf("expected only the most significant bit, got %s", Hex(got))
	}
}

func TestDHash_ScaleInvariant(t *testing.T) {
	small := DHash(ramp(90, 80, true))
	large := DHash(ramp(360, 320, true))

	if !Similar(small, large, 4) {
		t.Errorf("expected rescaled image to be a near duplicate, distance %d", Distance(small, large))
	}
	if DHash(ramp(90, 80, true)) != small {
		t.Error("DHash should be deterministic")
	}
}

func TestHex(t *testing.T) {
	if got := Hex(0xAB); got != "00000000000000ab" {
		t.Errorf("Hex() = %s, want 00000000000000ab", got)
	}
}

func TestLumaGrid(t *testing.T) {
	img := image.NewUniform(color.RGBA{255, 0, 0, 255})

	grid := lumaGrid(&boundedUniform{img, image.Rect(0, 0, 20, 20)})

	want := 0.299 * 255
	for y := range gridRows {
		for x := range gridCols {
			if math.Abs(grid[y][x]-want) > 1 {
				t.Fatalf("cell (%d,%d): expected luma ~%.2f, got %.2f", x, y, want, grid[y][x])
			}
		}
	}
}

// boundedUniform gives a uniform colour finite bounds.
type boundedUniform struct {
	*image.Uniform
	rect image.Rectangle
}

func (b *boundedUniform) Bounds() image.Rectangle { return b.rect }

// ramp builds a horizontal gray ramp, brightening left to right unless
// reversed.
func ramp(width, height int, reversed bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		v := uint8(x * 255 / (width - 1))
		if reversed {
			v = 255 - v
		}
		for y := range height {
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}
