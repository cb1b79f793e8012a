package backend

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/facematch"
)

// Recognizer identifies the person in a face image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, session attendance.Session) (*attendance.Result, error)
}

// Recognize submits one face image. An unknown face is a successful result
// with a nil Identity. It is never retried.
func (c *Client) Recognize(ctx context.Context, image []byte, session attendance.Session) (*attendance.Result, error) {
	parts := []part{jpegFile("file", "frame.jpg", image)}
	if session.Active() {
		session = session.WithDefaults()
		parts = append(parts,
			formField("lecture", session.Lecture),
			formField("slot", strconv.Itoa(session.Slot)),
		)
	}

	body, err := c.doMultipart(ctx, "recognize", "face/recognize", parts...)
	if err != nil {
		return nil, err
	}

	var resp recognizeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{Op: "recognize", Err: fmt.Errorf("could not unmarshal response: %w", err)}
	}

	return resp.result(), nil
}

// recognizeResponse accepts every shape the recognizer is known to answer with:
//
//	{"rollNo": "21", "name": "Alice", "accuracy": 0.93, "status": "success"}
//	{"identity": {"personId": "21", "displayName": "Alice"}, "confidence": 0.93, "alternatives": [...]}
//	{"match": false}
//
// optionally with "box" {x, y, width, height} or "bbox" [x1, y1, x2, y2].
type recognizeResponse struct {
	rollNo       string
	name         string
	status       string
	accuracy     float64
	identity     *attendance.Identity
	confidence   *float64
	match        *bool
	alternatives []attendance.Candidate
	region       *facematch.Region
}

func (r *recognizeResponse) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal recognize response: %w", err)
	}

	r.rollNo = flexString(raw["rollNo"])
	r.name = flexString(raw["name"])
	r.status = flexString(raw["status"])
	_ = json.Unmarshal(raw["accuracy"], &r.accuracy)

	if id, ok := decodeIdentity(raw["identity"]); ok {
		r.identity = &id
	}
	if v, ok := raw["confidence"]; ok {
		var conf float64
		if json.Unmarshal(v, &conf) == nil {
			r.confidence = &conf
		}
	}
	if v, ok := raw["match"]; ok {
		var match bool
		if json.Unmarshal(v, &match) == nil {
			r.match = &match
		}
	}

	var alts []map[string]json.RawMessage
	if err := json.Unmarshal(raw["alternatives"], &alts); err == nil {
		for _, alt := range alts {
			id, ok := decodeIdentity(alt["identity"])
			if !ok {
				id = attendance.Identity{PersonID: flexString(alt["personId"]), DisplayName: flexString(alt["displayName"])}
			}
			if id.PersonID == "" {
				continue
			}
			var conf float64
			_ = json.Unmarshal(alt["confidence"], &conf)
			r.alternatives = append(r.alternatives, attendance.Candidate{Identity: id, Confidence: normalizeConfidence(conf)})
		}
	}

	r.region = decodeRegion(raw["box"], raw["bbox"])
	return nil
}

// result converts the response into a RecognitionResult.
func (r *recognizeResponse) result() *attendance.Result {
	res := &attendance.Result{
		Status:       r.status,
		Region:       r.region,
		Alternatives: r.alternatives,
	}

	conf := r.accuracy
	if r.confidence != nil {
		conf = *r.confidence
	}
	res.Confidence = normalizeConfidence(conf)

	switch {
	case r.match != nil && !*r.match:
		// explicit no-match
	case r.identity != nil && r.identity.PersonID != "":
		id := *r.identity
		res.Identity = &id
	case isKnown(r.rollNo, r.name):
		res.Identity = &attendance.Identity{PersonID: r.rollNo, DisplayName: r.name}
	}

	slices.SortStableFunc(res.Alternatives, func(a, b attendance.Candidate) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return res
}

func isKnown(rollNo, name string) bool {
	rollNo, name = strings.TrimSpace(rollNo), strings.TrimSpace(name)
	if rollNo == "" || strings.EqualFold(rollNo, "N/A") {
		return false
	}
	return name != "" && !strings.EqualFold(name, "Unknown")
}

func decodeIdentity(raw json.RawMessage) (attendance.Identity, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return attendance.Identity{}, false
	}
	id := attendance.Identity{
		PersonID:    flexString(m["personId"]),
		DisplayName: flexString(m["displayName"]),
	}
	if id.PersonID == "" {
		id.PersonID = flexString(m["rollNo"])
	}
	if id.DisplayName == "" {
		id.DisplayName = flexString(m["name"])
	}
	return id, id.PersonID != ""
}

func decodeRegion(box, bbox json.RawMessage) *facematch.Region {
	var b struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := json.Unmarshal(box, &b); err == nil {
		r := facematch.Region{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
		if r.Valid() {
			return &r
		}
	}
	var corners []float64
	if err := json.Unmarshal(bbox, &corners); err == nil {
		if r, ok := facematch.RegionFromCorners(corners); ok {
			return &r
		}
	}
	return nil
}

// flexString decodes a JSON string or number as a string.
func flexString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// normalizeConfidence maps percentages to [0, 1] and clamps the rest.
func normalizeConfidence(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 && v <= 100 {
		v /= 100
	}
	return min(v, 1)
}
