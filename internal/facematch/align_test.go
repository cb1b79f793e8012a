package facematch

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"testing"
)

const epsilon = 1e-9

// splitImage returns a w x h image whose left half is red and right half is blue.
func splitImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := color.RGBA{R: 255, A: 255}
			if x >= w/2 {
				c = color.RGBA{B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func isRed(c color.RGBA) bool  { return c.R > 200 && c.B < 50 }
func isBlue(c color.RGBA) bool { return c.B > 200 && c.R < 50 }

func TestNewAlignment_Angle(t *testing.T) {
	tests := []struct {
		name  string
		left  Point
		right Point
		angle float64
	}{
		{"level eyes", Point{10, 10}, Point{30, 10}, 0},
		{"vertical eyes", Point{10, 10}, Point{10, 30}, math.Pi / 2},
		{"tilted 45", Point{0, 0}, Point{10, 10}, math.Pi / 4},
		{"tilted -45", Point{0, 10}, Point{10, 0}, -math.Pi / 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAlignment(tt.left, tt.right)
			if math.Abs(a.Angle-tt.angle) > epsilon {
				t.Errorf("Angle = %v, want %v", a.Angle, tt.angle)
			}
		})
	}
}

func TestAlignment_ApplyLevelsEyes(t *testing.T) {
	left, right := Point{10, 10}, Point{10, 30}
	a := NewAlignment(left, right)

	l, r := a.Apply(left), a.Apply(right)

	if math.Abs(l.Y-r.Y) > epsilon {
		t.Errorf("expected eyes on one horizontal line, got %v and %v", l, r)
	}
	if math.Abs(l.X-0) > epsilon || math.Abs(l.Y-20) > epsilon {
		t.Errorf("left eye mapped to %v, want (0, 20)", l)
	}
	if math.Abs(r.X-20) > epsilon || math.Abs(r.Y-20) > epsilon {
		t.Errorf("right eye mapped to %v, want (20, 20)", r)
	}
	if l.X >= r.X {
		t.Errorf("expected left eye left of right eye, got %v and %v", l, r)
	}
}

func TestNormalize_ConstantSize(t *testing.T) {
	n := NewNormalizer(160)
	img := splitImage(640, 480)

	regions := []Region{
		{X: 100, Y: 100, Width: 200, Height: 200},
		{X: 300, Y: 50, Width: 40, Height: 90},
		{X: 0, Y: 0, Width: 50, Height: 50},
		{X: 600, Y: 440, Width: 80, Height: 80},
		{X: 200, Y: 150, Width: 120, Height: 120, Landmarks: []Point{{240, 190}, {290, 200}, {265, 220}, {245, 245}, {285, 250}}},
	}

	for _, r := range regions {
		face, err := n.Normalize(img, r)
		if err != nil {
			t.Fatalf("Normalize(%+v) error: %v", r, err)
		}
		if b := face.Image.Bounds(); b.Dx() != 160 || b.Dy() != 160 {
			t.Errorf("Normalize(%+v) size = %dx%d, want 160x160", r, b.Dx(), b.Dy())
		}
	}
}

func TestNormalize_ClampsRegionAtFrameEdge(t *testing.T) {
	n := NewNormalizer(160)
	img := splitImage(100, 100)

	face, err := n.Normalize(img, Region{X: 0, Y: 0, Width: 50, Height: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if face.Crop.X != 0 || face.Crop.Y != 0 {
		t.Errorf("expected crop clamped to origin, got %+v", face.Crop)
	}
	if face.Crop.Width >= 65 || face.Crop.Height >= 65 {
		t.Errorf("expected crop smaller than the expanded box, got %+v", face.Crop)
	}
	if b := face.Image.Bounds(); b.Dx() != 160 || b.Dy() != 160 {
		t.Errorf("expected 160x160, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestNormalize_WithoutLandmarksKeepsOrientation(t *testing.T) {
	n := NewNormalizer(160)
	img := splitImage(100, 100)

	face, err := n.Normalize(img, Region{X: 20, Y: 20, Width: 60, Height: 60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if face.Aligned {
		t.Error("expected unaligned face without landmarks")
	}
	if face.Angle != 0 {
		t.Errorf("expected zero angle, got %v", face.Angle)
	}
	if c := face.Image.RGBAAt(10, 80); !isRed(c) {
		t.Errorf("expected red on the left, got %v", c)
	}
	if c := face.Image.RGBAAt(150, 80); !isBlue(c) {
		t.Errorf("expected blue on the right, got %v", c)
	}
}

func TestNormalize_RotatesVerticalEyes(t *testing.T) {
	n := NewNormalizer(160)
	img := splitImage(100, 100)

	region := Region{
		X: 20, Y: 20, Width: 60, Height: 60,
		Landmarks: []Point{{50, 40}, {50, 60}},
	}
	face, err := n.Normalize(img, region)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !face.Aligned {
		t.Fatal("expected aligned face")
	}
	if math.Abs(face.Angle-math.Pi/2) > epsilon {
		t.Errorf("expected angle pi/2, got %v", face.Angle)
	}
	// Rotating by -90 degrees about the eye midpoint moves the red half to
	// the bottom and the blue half to the top.
	if c := face.Image.RGBAAt(80, 150); !isRed(c) {
		t.Errorf("expected red at the bottom, got %v", c)
	}
	if c := face.Image.RGBAAt(80, 10); !isBlue(c) {
		t.Errorf("expected blue at the top, got %v", c)
	}
}

func TestNormalize_Errors(t *testing.T) {
	n := NewNormalizer(160)
	img := splitImage(100, 100)

	if _, err := n.Normalize(img, Region{X: 200, Y: 200, Width: 10, Height: 10}); !errors.Is(err, ErrEmptyCrop) {
		t.Errorf("expected ErrEmptyCrop, got %v", err)
	}
	if _, err := n.Normalize(img, Region{X: 10, Y: 10}); err == nil {
		t.Error("expected error for zero-sized region")
	}
	if _, err := n.Normalize(nil, Region{Width: 10, Height: 10}); err == nil {
		t.Error("expected error for nil image")
	}
}

func TestNewNormalizer_DefaultSize(t *testing.T) {
	if n := NewNormalizer(0); n.Size != 160 {
		t.Errorf("expected default size 160, got %d", n.Size)
	}
}

func TestAlignedFace_JPEG(t *testing.T) {
	face, err := NewNormalizer(160).Normalize(splitImage(100, 100), Region{X: 20, Y: 20, Width: 60, Height: 60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := face.JPEG()
	if err != nil {
		t.Fatalf("JPEG() error: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 160 || b.Dy() != 160 {
		t.Errorf("expected 160x160 JPEG, got %dx%d", b.Dx(), b.Dy())
	}
}
