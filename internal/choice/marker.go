package choice

import (
	"errors"
	"fmt"
	"strings"
)

// Marker is a reaction emoji used to pick an option.
type Marker string

const (
	Cancel Marker = "❌"
	Ten    Marker = "🔟"

	keycap   = "\u20e3"
	selector = "\ufe0f"

	// MaxOptions is the number of distinct numbered markers.
	MaxOptions = 10
)

var ErrInvalidChoiceMarker = errors.New("not a choice marker")

// MarkerFor maps option index 0..8 to 1️⃣..9️⃣ and 9 to 🔟.
func MarkerFor(index int) (Marker, error) {
	switch {
	case index >= 0 && index < 9:
		return Marker(fmt.Sprintf("%d%s%s", index+1, selector, keycap)), nil
	case index == 9:
		return Ten, nil
	default:
		return "", fmt.Errorf("no marker for option %d: %w", index, ErrInvalidChoiceMarker)
	}
}

// IndexFor is the inverse of MarkerFor. Keycaps with or without the
// variation selector are accepted.
func IndexFor(m Marker) (int, error) {
	if m == Ten {
		return 9, nil
	}
	s := strings.Replace(string(m), selector, "", 1)
	if len(s) == 1+len(keycap) && strings.HasSuffix(s, keycap) && s[0] >= '1' && s[0] <= '9' {
		return int(s[0] - '1'), nil
	}
	return 0, fmt.Errorf("%q: %w", string(m), ErrInvalidChoiceMarker)
}

// markersFor returns the numbered markers for n options followed by Cancel.
func markersFor(n int) []Marker {
	if n > MaxOptions {
		n = MaxOptions
	}
	markers := make([]Marker, 0, n+1)
	for i := 0; i < n; i++ {
		m, _ := MarkerFor(i)
		markers = append(markers, m)
	}
	return append(markers, Cancel)
}
