package aggregate

import (
	"strings"

	"github.com/vanhalal/halal-cli/internal/model"
)

// menuTypeKeywords are checked in order; the first keyword found in a
// lowercased menu title classifies it.
var menuTypeKeywords = []string{"brunch", "lunch", "dinner", "breakfast", "takeout", "special"}

// MenuTypes classifies each menu title and returns the distinct types in
// first-seen order.
func MenuTypes(menus []model.MenuVariant) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range menus {
		mt := classifyTitle(m.Title)
		if mt == "" {
			continue
		}
		if _, dup := seen[mt]; dup {
			continue
		}
		seen[mt] = struct{}{}
		out = append(out, mt)
	}
	return out
}

func classifyTitle(title string) string {
	lower := strings.ToLower(strings.TrimSpace(title))
	if lower == "" {
		return ""
	}
	for _, kw := range menuTypeKeywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	// No keyword matched; fall back to the title's leading word so menus
	// like "Tasting Menu" still group under something stable.
	return strings.Fields(lower)[0]
}
