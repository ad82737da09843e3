package filtergraph

import (
	"fmt"
	"strings"
)

// Volume returns a gain filter; 1 leaves the signal unchanged.
func Volume(gain float64) string {
	return "volume=" + formatNumber(gain)
}

// FadeIn returns an audio fade starting at zero.
func FadeIn(seconds float64) string {
	return fmt.Sprintf("afade=t=in:st=0:d=%s", formatNumber(seconds))
}

// FadeOut returns an audio fade of length seconds that ends at end.
func FadeOut(seconds, end float64) string {
	start := end - seconds
	if start < 0 {
		start = 0
	}
	return fmt.Sprintf("afade=t=out:st=%s:d=%s", formatNumber(start), formatNumber(seconds))
}

// Loop repeats an audio stream indefinitely; pair it with Trim.
func Loop() string {
	return "aloop=loop=-1:size=2e+09"
}

// Trim cuts an audio stream to seconds.
func Trim(seconds float64) string {
	return "atrim=0:" + formatNumber(seconds)
}

func join(filters ...string) string {
	var kept []string
	for _, f := range filters {
		if f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, ",")
}
