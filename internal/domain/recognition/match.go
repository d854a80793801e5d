// Package recognition resolves face crops to identity labels.
package recognition

import (
	"math"

	"github.com/okian/elrobot/internal/domain/model"
)

// DefaultTolerance is the distance under which two signatures are the same
// person.
const DefaultTolerance = 0.6

// Distance is the euclidean distance between two signatures, or +Inf when
// their lengths differ.
func Distance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Matches compares a probe against every known entry. The result is
// parallel to known.
func Matches(known []model.RecognitionEntry, probe []float64, tolerance float64) []bool {
	out := make([]bool, len(known))
	for i, e := range known {
		out[i] = Distance(e.Encoding, probe) <= tolerance
	}
	return out
}

// Tally counts matches per name and returns the most voted one. Ties go to
// the name that entered the tally first while scanning matches in entry
// order.
func Tally(known []model.RecognitionEntry, matches []bool) (string, int, bool) {
	counts := make(map[string]int)
	var order []string
	for i, ok := range matches {
		if !ok || i >= len(known) {
			continue
		}
		name := known[i].Name
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}
	if len(order) == 0 {
		return "", 0, false
	}

	best := order[0]
	for _, name := range order[1:] {
		if counts[name] > counts[best] {
			best = name
		}
	}
	return best, counts[best], true
}
