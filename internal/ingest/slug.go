package ingest

import (
	"fmt"
	"strings"
)

// Slugify lowercases a name and collapses every non-alphanumeric run to a
// single hyphen. A name with no usable characters falls back to
// "restaurant" so slugs stay non-empty.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "restaurant"
	}
	return slug
}

// Slugger hands out unique slugs within one ingest run, suffixing
// collisions with -2, -3, and so on.
type Slugger struct {
	seen map[string]int
}

func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// Unique returns the slug for name, disambiguated against every slug this
// Slugger has already handed out.
func (s *Slugger) Unique(name string) string {
	base := Slugify(name)
	n := s.seen[base]
	s.seen[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n+1)
}

// Reserve marks a slug as taken without handing it out, so slugs already in
// the store are never reissued.
func (s *Slugger) Reserve(slug string) {
	if s.seen[slug] == 0 {
		s.seen[slug] = 1
	}
}
