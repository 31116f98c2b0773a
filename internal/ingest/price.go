package ingest

import (
	"regexp"
	"strconv"
)

var priceNumberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePriceRange extracts the numeric bounds from a posted price string:
// "$45" → (45, 45), "$35 / $45 / $55" → (35, 55). Strings with no numbers
// return (nil, nil).
func ParsePriceRange(price string) (*float64, *float64) {
	matches := priceNumberRe.FindAllString(price, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	var lo, hi float64
	for i, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		if i == 0 {
			lo, hi = v, v
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return &lo, &hi
}
