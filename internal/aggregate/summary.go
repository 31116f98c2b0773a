package aggregate

import (
	"strings"

	"github.com/vanhalal/halal-cli/internal/model"
)

// maxDisplayDishes caps the halal dish list on summaries; the detail view
// still exposes every tagged dish.
const maxDisplayDishes = 3

// Summarize derives the read-side view of one restaurant from its menus,
// tag sets, and source records. Unions are most-permissive: one "yes"
// anywhere sets the corresponding flag, because a diner needs to know about
// a single pork dish as much as about a fully halal menu.
func Summarize(r model.Restaurant, menus []model.MenuVariant, tags []model.MenuTagSet, sources []model.HalalSourceRecord) model.RestaurantSummary {
	s := model.RestaurantSummary{
		RestaurantID: r.ID,
		Name:         r.Name,
		Slug:         r.Slug,
		City:         r.City,
		Neighborhood: r.Neighborhood,
		Tagged:       len(tags) > 0,
		MenuTypes:    MenuTypes(menus),
		HalalSource:  sourceTier(sources),
	}

	s.FromPrice, s.MaxPrice = priceBounds(menus)

	dishSeen := make(map[string]struct{})
	var dishes []string
	for _, t := range tags {
		s.HalalFriendly = s.HalalFriendly || t.HalalFriendlyMenu == model.TagYes
		s.ContainsPork = s.ContainsPork || t.ContainsPork == model.TagYes
		s.ContainsAlcohol = s.ContainsAlcohol || t.ContainsAlcohol == model.TagYes
		s.HasSeafood = s.HasSeafood || t.HasSeafoodOption == model.TagYes
		s.HasVegetarian = s.HasVegetarian || t.HasVegetarianOption == model.TagYes

		for _, d := range t.HalalDishes {
			key := strings.ToLower(strings.TrimSpace(d))
			if key == "" {
				continue
			}
			if _, dup := dishSeen[key]; dup {
				continue
			}
			dishSeen[key] = struct{}{}
			dishes = append(dishes, strings.TrimSpace(d))
		}
	}
	if len(dishes) > maxDisplayDishes {
		dishes = dishes[:maxDisplayDishes]
	}
	s.HalalDishes = dishes

	return s
}

// priceBounds returns the min of menu minimums and max of menu maximums,
// nil when no menu carries a parsed price.
func priceBounds(menus []model.MenuVariant) (*float64, *float64) {
	var lo, hi *float64
	for _, m := range menus {
		if m.PriceMin != nil && (lo == nil || *m.PriceMin < *lo) {
			v := *m.PriceMin
			lo = &v
		}
		if m.PriceMax != nil && (hi == nil || *m.PriceMax > *hi) {
			v := *m.PriceMax
			hi = &v
		}
	}
	return lo, hi
}

// sourceTier collapses source records into a single confidence tier,
// certified outranking listed.
func sourceTier(sources []model.HalalSourceRecord) string {
	tier := ""
	for _, src := range sources {
		switch src.Status {
		case model.StatusHalalCertified:
			return "certified"
		case model.StatusHalalListed:
			tier = "listed"
		}
	}
	return tier
}
