package facematch

import (
	"image"
	"math"
	"testing"
)

func TestRegionIoU(t *testing.T) {
	box := func(x1, y1, x2, y2 float64) Region {
		return Region{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
	}

	tests := []struct {
		name     string
		a, b     Region
		expected float64
	}{
		{"identical", box(0, 0, 10, 10), box(0, 0, 10, 10), 1},
		{"disjoint", box(0, 0, 10, 10), box(20, 20, 30, 30), 0},
		{"touching edges", box(0, 0, 10, 10), box(10, 0, 20, 10), 0},
		{"partial", box(0, 0, 10, 10), box(5, 5, 15, 15), 25.0 / 175.0},
		{"nested", box(0, 0, 20, 20), box(5, 5, 15, 15), 100.0 / 400.0},
		{"zero width", box(0, 0, 0, 10), box(0, 0, 10, 10), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.IoU(tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("IoU = %v, want %v", got, tt.expected)
			}
			if rev := tt.b.IoU(tt.a); math.Abs(rev-got) > 1e-9 {
				t.Errorf("IoU not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestRegionFromCorners(t *testing.T) {
	r, ok := RegionFromCorners([]float64{10, 20, 50, 80})
	if !ok {
		t.Fatal("expected valid region")
	}
	if r.X != 10 || r.Y != 20 || r.Width != 40 || r.Height != 60 {
		t.Errorf("unexpected region %+v", r)
	}

	if _, ok := RegionFromCorners([]float64{50, 20, 10, 80}); ok {
		t.Error("expected inverted box to be invalid")
	}
	if _, ok := RegionFromCorners([]float64{1, 2, 3}); ok {
		t.Error("expected short box to be invalid")
	}
	if _, ok := RegionFromCorners([]float64{0, 0, math.NaN(), 10}); ok {
		t.Error("expected NaN box to be invalid")
	}
}

func TestRegionExpand(t *testing.T) {
	r := Region{X: 20, Y: 20, Width: 60, Height: 40}
	got := r.Expand(1.5)

	if got.Center() != r.Center() {
		t.Errorf("expected center to be kept, got %+v want %+v", got.Center(), r.Center())
	}
	if got.Width != 90 || got.Height != 60 {
		t.Errorf("expected 90x60, got %vx%v", got.Width, got.Height)
	}
}

func TestRegionClampTo(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)

	tests := []struct {
		name   string
		region Region
		want   Region
		ok     bool
	}{
		{"inside", Region{X: 10, Y: 10, Width: 20, Height: 20}, Region{X: 10, Y: 10, Width: 20, Height: 20}, true},
		{"top left overflow", Region{X: -10, Y: -5, Width: 30, Height: 25}, Region{X: 0, Y: 0, Width: 20, Height: 20}, true},
		{"bottom right overflow", Region{X: 90, Y: 80, Width: 30, Height: 30}, Region{X: 90, Y: 80, Width: 10, Height: 20}, true},
		{"outside", Region{X: 120, Y: 10, Width: 10, Height: 10}, Region{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.region.ClampTo(bounds)
			if ok != tt.ok {
				t.Fatalf("ClampTo() ok = %v, want %v", ok, tt.ok)
			}
			if ok && (got.X != tt.want.X || got.Y != tt.want.Y || got.Width != tt.want.Width || got.Height != tt.want.Height) {
				t.Errorf("ClampTo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSelectPrimary(t *testing.T) {
	regions := []Region{
		{X: 0, Width: 10, Height: 10, Score: 0.7},
		{X: 20, Width: 10, Height: 10, Score: 0.9},
		{X: 40, Width: 10, Height: 10, Score: 0.9},
	}

	first, ok := SelectPrimary(regions, PrimaryFirst)
	if !ok || first.X != 0 {
		t.Errorf("expected first detected face, got %+v", first)
	}

	best, ok := SelectPrimary(regions, PrimaryConfidence)
	if !ok || best.X != 20 {
		t.Errorf("expected earliest highest-score face, got %+v", best)
	}

	if _, ok := SelectPrimary(nil, PrimaryFirst); ok {
		t.Error("expected no primary face for empty input")
	}
}
