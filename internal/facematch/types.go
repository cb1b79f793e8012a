// Package facematch holds the face geometry shared by the scanner and the
// sample collector: detected regions, eye landmarks, alignment and the
// canonical face crop, plus name handling for sample filenames.
package facematch

// Primary selection strategies for frames with several faces.
const (
	PrimaryFirst      = "first"
	PrimaryConfidence = "confidence"
)

// SelectPrimary picks the face the pipeline works on. "first" keeps the
// detector order; "confidence" takes the highest score, ties going to the
// earlier face. ok is false when regions is empty.
func SelectPrimary(regions []Region, strategy string) (Region, bool) {
	if len(regions) == 0 {
		return Region{}, false
	}
	if strategy != PrimaryConfidence {
		return regions[0], true
	}
	best := 0
	for i := 1; i < len(regions); i++ {
		if regions[i].Score > regions[best].Score {
			best = i
		}
	}
	return regions[best], true
}
