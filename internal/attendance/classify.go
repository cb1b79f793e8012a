package attendance

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrClassificationAmbiguous marks a response that could not be read as a
// clear success or failure. Such responses count as Rejected.
var ErrClassificationAmbiguous = errors.New("ambiguous mark response")

var (
	negativeMarkers = []string{"not ", "fail", "error", "invalid", "denied", "reject"}
	positiveMarkers = []string{"marked", "success", "present", "recorded"}
)

type markResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ClassifyMarkResponse maps a mark response body to an outcome. It is total:
// every input yields an outcome and the message shown to the user. A non-nil
// error wraps ErrClassificationAmbiguous and explains a Rejected outcome that
// was not an explicit failure.
func ClassifyMarkResponse(body string) (Outcome, string, error) {
	text := strings.TrimSpace(body)
	if text == "" {
		return Rejected, "", fmt.Errorf("%w: empty body", ErrClassificationAmbiguous)
	}

	if strings.HasPrefix(text, "{") {
		var resp markResponse
		if err := json.Unmarshal([]byte(text), &resp); err != nil {
			return Rejected, text, fmt.Errorf("%w: malformed JSON: %v", ErrClassificationAmbiguous, err)
		}
		text = strings.TrimSpace(resp.Message)
		if text == "" {
			text = strings.TrimSpace(resp.Status)
		}
		if text == "" {
			return Rejected, "", fmt.Errorf("%w: no message in JSON body", ErrClassificationAmbiguous)
		}
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "already"):
		return AlreadyMarked, text, nil
	case containsAny(lower, negativeMarkers):
		return Rejected, text, nil
	case containsAny(lower, positiveMarkers):
		return Marked, text, nil
	default:
		return Rejected, text, fmt.Errorf("%w: %q", ErrClassificationAmbiguous, text)
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
