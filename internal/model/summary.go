package model

// RestaurantSummary is the read-optimized per-restaurant view composed by the
// aggregator from normalized rows on every read. It is what the presentation
// layer lists and filters on.
type RestaurantSummary struct {
	RestaurantID string `json:"restaurant_id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	City         string `json:"city,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`

	FromPrice *float64 `json:"from_price,omitempty"`
	MaxPrice  *float64 `json:"max_price,omitempty"`

	HalalFriendly   bool `json:"halal_friendly"`
	ContainsPork    bool `json:"contains_pork"`
	ContainsAlcohol bool `json:"contains_alcohol"`
	HasSeafood      bool `json:"has_seafood"`
	HasVegetarian   bool `json:"has_vegetarian"`

	HalalDishes []string `json:"halal_dishes,omitempty"`
	MenuTypes   []string `json:"menu_types,omitempty"`

	// HalalSource is the confidence tier: "certified", "listed", or ""
	// when no external directory lists the restaurant.
	HalalSource string `json:"halal_source,omitempty"`

	// Tagged is false when no menu has a current-model tag set; the view
	// then renders as "not enough information", never as an error.
	Tagged bool `json:"tagged"`

	// DistanceKm and OpenNow are derived per request from the caller's
	// location and clock; they are never persisted.
	DistanceKm *float64 `json:"distance_km,omitempty"`
	OpenNow    *bool    `json:"open_now,omitempty"`
}

// RestaurantDetail extends the summary with the rows it was derived from.
type RestaurantDetail struct {
	RestaurantSummary

	Restaurant Restaurant          `json:"restaurant"`
	Menus      []MenuVariant       `json:"menus"`
	Tags       []MenuTagSet        `json:"tags,omitempty"`
	Sources    []HalalSourceRecord `json:"sources,omitempty"`
}
