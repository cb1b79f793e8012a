package facematch

import (
	"image"
	"math"
)

// Point is a position in frame pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Region is a detected face box in frame pixel coordinates with optional
// landmarks in detector order.
type Region struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Score     float64 `json:"score,omitempty"`
	Landmarks []Point `json:"landmarks,omitempty"`
}

// RegionFromCorners builds a region from an [x1, y1, x2, y2] box.
func RegionFromCorners(bbox []float64) (Region, bool) {
	if len(bbox) != 4 {
		return Region{}, false
	}
	r := Region{X: bbox[0], Y: bbox[1], Width: bbox[2] - bbox[0], Height: bbox[3] - bbox[1]}
	return r, r.Valid()
}

// Valid reports whether the region has a positive, finite size.
func (r Region) Valid() bool {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width > 0 && r.Height > 0
}

// Center returns the center of the box.
func (r Region) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Expand scales the box by factor k about its center. Landmarks are kept.
func (r Region) Expand(k float64) Region {
	c := r.Center()
	w, h := r.Width*k, r.Height*k
	out := r
	out.X = c.X - w/2
	out.Y = c.Y - h/2
	out.Width = w
	out.Height = h
	return out
}

// ClampTo intersects the box with bounds. The second return value is false
// when nothing of the box is left.
func (r Region) ClampTo(bounds image.Rectangle) (Region, bool) {
	x1 := max(r.X, float64(bounds.Min.X))
	y1 := max(r.Y, float64(bounds.Min.Y))
	x2 := min(r.X+r.Width, float64(bounds.Max.X))
	y2 := min(r.Y+r.Height, float64(bounds.Max.Y))
	if x2 <= x1 || y2 <= y1 {
		return Region{}, false
	}
	out := r
	out.X, out.Y = x1, y1
	out.Width, out.Height = x2-x1, y2-y1
	return out, true
}

// Area returns width times height.
func (r Region) Area() float64 {
	return r.Width * r.Height
}

// IoU returns the intersection over union of two boxes in the same
// coordinate space. Degenerate boxes give 0.
func (r Region) IoU(o Region) float64 {
	if !r.Valid() || !o.Valid() {
		return 0
	}
	w := min(r.X+r.Width, o.X+o.Width) - max(r.X, o.X)
	h := min(r.Y+r.Height, o.Y+o.Height) - max(r.Y, o.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	inter := w * h
	return inter / (r.Area() + o.Area() - inter)
}
