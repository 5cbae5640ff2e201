package duration

import (
	"fmt"
	"strconv"
	"strings"
)

// weights for the seconds, minutes and hours segments, right to left
var weights = [...]int{1, 60, 3600}

// FormatError reports a duration label that cannot be converted to seconds.
type FormatError struct {
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed duration %q: %s", e.Text, e.Reason)
}

// Parse converts a colon-delimited duration ("SS", "MM:SS" or "HH:MM:SS",
// optionally followed by a fractional-second suffix such as "01:02.345")
// into whole seconds. The fractional part is ignored.
func Parse(text string) (int, error) {
	whole, _, _ := strings.Cut(text, ".")
	if whole == "" {
		return 0, &FormatError{Text: text, Reason: "empty"}
	}

	segments := strings.Split(whole, ":")
	if len(segments) > len(weights) {
		return 0, &FormatError{Text: text, Reason: fmt.Sprintf("%d segments, at most %d allowed", len(segments), len(weights))}
	}

	seconds := 0
	for i := range segments {
		seg := segments[len(segments)-1-i]
		if seg == "" || strings.TrimLeft(seg, "0123456789") != "" {
			return 0, &FormatError{Text: text, Reason: fmt.Sprintf("non-numeric segment %q", seg)}
		}
		val, err := strconv.Atoi(seg)
		if err != nil {
			return 0, &FormatError{Text: text, Reason: err.Error()}
		}
		seconds += val * weights[i]
	}
	return seconds, nil
}

// Format renders seconds as HH:MM:SS. Hours are not capped at 24.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
