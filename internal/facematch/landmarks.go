package facematch

// EyeCenters derives the left and right eye centers (in image space, left
// to right) from a landmark set. Supported layouts:
//
//   - 5 points: InsightFace/RetinaFace keypoints (eyes, nose, mouth corners)
//   - 68 points: iBUG 300-W, eyes at 36-41 and 42-47
//   - any other even count: one eye contour per half, left eye first
//
// ok is false for odd or empty layouts.
func EyeCenters(landmarks []Point) (left, right Point, ok bool) {
	switch len(landmarks) {
	case 5:
		left, right = landmarks[0], landmarks[1]
	case 68:
		left = eyeCenter68(landmarks[36:42])
		right = eyeCenter68(landmarks[42:48])
	default:
		n := len(landmarks)
		if n == 0 || n%2 != 0 {
			return Point{}, Point{}, false
		}
		left = centroid(landmarks[:n/2])
		right = centroid(landmarks[n/2:])
	}
	if right.X < left.X {
		left, right = right, left
	}
	return left, right, true
}

// eyeCenter68 takes the six contour points of one eye: x from the corner pair
// (0, 3), y from the lid pair (1, 4).
func eyeCenter68(eye []Point) Point {
	return Point{
		X: (eye[0].X + eye[3].X) / 2,
		Y: (eye[1].Y + eye[4].Y) / 2,
	}
}

func centroid(points []Point) Point {
	var c Point
	for _, p := range points {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(points))
	return Point{X: c.X / n, Y: c.Y / n}
}
