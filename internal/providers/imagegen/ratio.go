package imagegen

import (
	"math"
	"strconv"
	"strings"
)

const fallbackRatio = "16:9"

// validRatios are the aspect ratios the image model accepts, in the order the
// nearest-match scan considers them.
var validRatios = []struct {
	label string
	value float64
}{
	{"1:1", 1},
	{"16:9", 16.0 / 9},
	{"9:16", 9.0 / 16},
	{"3:2", 3.0 / 2},
	{"2:3", 2.0 / 3},
	{"4:5", 4.0 / 5},
	{"5:4", 5.0 / 4},
	{"3:4", 3.0 / 4},
	{"4:3", 4.0 / 3},
}

// ToValidRatio maps an arbitrary aspect ratio string to the closest ratio the
// model accepts. Unparsable input falls back to 16:9.
func ToValidRatio(ratio string) string {
	ratio = strings.TrimSpace(ratio)
	for _, vr := range validRatios {
		if vr.label == ratio {
			return ratio
		}
	}

	parts := strings.Split(ratio, ":")
	if len(parts) != 2 {
		return fallbackRatio
	}
	num, errN := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	den, errD := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errN != nil || errD != nil || den == 0 {
		return fallbackRatio
	}
	value := num / den

	closest := fallbackRatio
	minDist := math.Inf(1)
	for _, vr := range validRatios {
		if dist := math.Abs(value - vr.value); dist < minDist {
			minDist = dist
			closest = vr.label
		}
	}
	return closest
}
