package facematch

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/kozaktomas/rollcall/internal/constants"
)

// ErrEmptyCrop is returned when the expanded face box does not overlap the frame.
var ErrEmptyCrop = errors.New("face box lies outside the frame")

// Alignment rotates frame coordinates about Center by -Angle so that the eye
// axis becomes horizontal.
type Alignment struct {
	Angle  float64 // radians, atan2(dy, dx) of the eye axis
	Center Point   // midpoint between the eyes
}

// NewAlignment computes the alignment for the given eye centers.
func NewAlignment(left, right Point) Alignment {
	return Alignment{
		Angle:  math.Atan2(right.Y-left.Y, right.X-left.X),
		Center: Midpoint(left, right),
	}
}

// Apply maps a source frame point into the rotated frame.
func (a Alignment) Apply(p Point) Point {
	sin, cos := math.Sincos(a.Angle)
	dx, dy := p.X-a.Center.X, p.Y-a.Center.Y
	return Point{
		X: a.Center.X + cos*dx + sin*dy,
		Y: a.Center.Y - sin*dx + cos*dy,
	}
}

// AlignedFace is a canonical, fixed-size face crop.
type AlignedFace struct {
	Image   *image.RGBA
	Crop    Region  // expanded and clamped box in rotated frame coordinates
	Angle   float64 // rotation removed from the frame, zero when unaligned
	Aligned bool    // false when landmarks were missing
}

// JPEG encodes the face for upload.
func (f *AlignedFace) JPEG() ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, f.Image, &jpeg.Options{Quality: constants.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode face: %w", err)
	}
	return buf.Bytes(), nil
}

// Normalizer produces AlignedFace images of a constant size.
type Normalizer struct {
	Size   int
	Expand float64
}

// NewNormalizer creates a normalizer with the given output size and the
// default expand factor. Non-positive sizes fall back to the default.
func NewNormalizer(size int) *Normalizer {
	if size <= 0 {
		size = constants.FaceSize
	}
	return &Normalizer{Size: size, Expand: constants.ExpandFactor}
}

// Normalize expands the region, levels the eyes when landmarks allow it and
// resamples the crop to Size x Size. A box reaching outside the frame is
// clamped rather than rejected.
func (n *Normalizer) Normalize(img image.Image, region Region) (*AlignedFace, error) {
	if img == nil {
		return nil, errors.New("no image to normalize")
	}
	if !region.Valid() {
		return nil, fmt.Errorf("invalid face region %+v", region)
	}

	bounds := img.Bounds()
	crop, ok := region.Expand(n.Expand).ClampTo(bounds)
	if !ok {
		return nil, ErrEmptyCrop
	}

	face := &AlignedFace{Crop: crop}
	var sin, cos float64 = 0, 1
	var center Point
	if left, right, found := EyeCenters(region.Landmarks); found {
		a := NewAlignment(left, right)
		sin, cos = math.Sincos(a.Angle)
		center = a.Center
		face.Angle = a.Angle
		face.Aligned = true
	}

	size := float64(n.Size)
	kx, ky := size/crop.Width, size/crop.Height

	// Rotation about the eye midpoint by -Angle, then crop and scale:
	//   p = C + R(-Angle)(s - C),  d = (p - crop.min) * k
	tx := center.X - cos*center.X - sin*center.Y
	ty := center.Y + sin*center.X - cos*center.Y
	s2d := f64.Aff3{
		cos * kx, sin * kx, (tx - crop.X) * kx,
		-sin * ky, cos * ky, (ty - crop.Y) * ky,
	}

	dst := image.NewRGBA(image.Rect(0, 0, n.Size, n.Size))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.BiLinear.Transform(dst, s2d, img, bounds, draw.Src, nil)

	face.Image = dst
	return face, nil
}
