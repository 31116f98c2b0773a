package model

import "time"

// Restaurant is the canonical identity a record from any source resolves to.
// It is created on first sighting; later sightings from other sources attach
// to it instead of creating duplicates. The slug is immutable once assigned
// and restaurants are never deleted by the pipeline.
type Restaurant struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Slug              string       `json:"slug"`
	DineoutURL        string       `json:"dineout_url,omitempty"`
	Address           string       `json:"address,omitempty"`
	City              string       `json:"city,omitempty"`
	Neighborhood      string       `json:"neighborhood,omitempty"`
	PostalCode        string       `json:"postal_code,omitempty"`
	Coordinates       *Coordinates `json:"coordinates,omitempty"`
	OpeningHours      []DayHours   `json:"opening_hours,omitempty"`
	PermanentlyClosed bool         `json:"permanently_closed,omitempty"`
	TemporarilyClosed bool         `json:"temporarily_closed,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DayHours holds one weekday's opening-hours text as scraped,
// e.g. {Day: "Friday", Hours: "11:30 am to 2 pm, 5 to 10 pm"}.
type DayHours struct {
	Day   string `json:"day"`
	Hours string `json:"hours"`
}

// MenuVariant is one distinct priced menu offering at a restaurant. A single
// scraped block may split into several concurrently-offered variants at
// ingestion time; Variant starts at 1 and increments per split. RawText is
// the exact scraped text and is never overwritten after creation.
type MenuVariant struct {
	ID           string   `json:"id"`
	RestaurantID string   `json:"restaurant_id"`
	Title        string   `json:"menu_title"`
	Variant      int      `json:"menu_variant"`
	Price        string   `json:"menu_price,omitempty"`
	PriceMin     *float64 `json:"menu_price_min,omitempty"`
	PriceMax     *float64 `json:"menu_price_max,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	RawText      string   `json:"menu_raw_text"`
}

// SourceStatus is an external directory's claim about a restaurant.
type SourceStatus string

const (
	StatusHalalCertified SourceStatus = "halal_certified"
	StatusHalalListed    SourceStatus = "halal_listed"
	StatusUnknown        SourceStatus = "unknown"
)

// HalalSourceRecord records one external directory's halal claim for a
// restaurant. At most one record exists per (restaurant, source name).
type HalalSourceRecord struct {
	ID              string       `json:"id"`
	RestaurantID    string       `json:"restaurant_id"`
	SourceName      string       `json:"source_name"`
	SourceURL       string       `json:"source_url,omitempty"`
	Status          SourceStatus `json:"status"`
	EvidenceSnippet string       `json:"evidence_snippet,omitempty"`
	Confidence      float64      `json:"confidence"`
}

// MatchOverride pins a source listing name to a canonical Dine Out name,
// short-circuiting fuzzy matching for known-ambiguous pairs. Overrides are
// entered manually and are append-only.
type MatchOverride struct {
	ID          string `json:"id" yaml:"-"`
	DineoutName string `json:"dineout_name" yaml:"dineout_name"`
	SourceName  string `json:"vancouverfoodies_name" yaml:"vancouverfoodies_name"`
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// SourceCandidate is a record from a non-canonical source awaiting identity
// resolution against the canonical restaurant set.
type SourceCandidate struct {
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	URL        string `json:"url,omitempty"`
}
