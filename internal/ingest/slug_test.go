package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sushi Garden", "sushi-garden"},
		{"Mr. Wong's Noodle Bar!", "mr-wong-s-noodle-bar"},
		{"Café Médina", "caf-m-dina"},
		{"  Zarak  ", "zarak"},
		{"!!!", "restaurant"},
		{"", "restaurant"},
		{"H2 Rotisserie & Bar", "h2-rotisserie-bar"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}

func TestSluggerUnique(t *testing.T) {
	s := NewSlugger()
	assert.Equal(t, "sushi-garden", s.Unique("Sushi Garden"))
	assert.Equal(t, "sushi-garden-2", s.Unique("Sushi Garden"))
	assert.Equal(t, "sushi-garden-3", s.Unique("Sushi  Garden"))
	assert.Equal(t, "nuba", s.Unique("Nuba"))
}

func TestSluggerReserve(t *testing.T) {
	s := NewSlugger()
	s.Reserve("nuba")
	assert.Equal(t, "nuba-2", s.Unique("Nuba"))
}

func TestParsePriceRange(t *testing.T) {
	lo, hi := ParsePriceRange("$45")
	if assert.NotNil(t, lo) && assert.NotNil(t, hi) {
		assert.Equal(t, 45.0, *lo)
		assert.Equal(t, 45.0, *hi)
	}

	lo, hi = ParsePriceRange("$35 / $45 / $55")
	if assert.NotNil(t, lo) {
		assert.Equal(t, 35.0, *lo)
		assert.Equal(t, 55.0, *hi)
	}

	lo, hi = ParsePriceRange("from $29.50 to $59")
	if assert.NotNil(t, lo) {
		assert.Equal(t, 29.5, *lo)
		assert.Equal(t, 59.0, *hi)
	}

	lo, hi = ParsePriceRange("market price")
	assert.Nil(t, lo)
	assert.Nil(t, hi)
}
