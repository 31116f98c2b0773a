package model

import "strings"

// TagValue is a tri-state dietary attribute. Anything the model returns
// outside {yes, no, uncertain} normalizes to uncertain so downstream
// aggregation never treats missing data as a "no".
type TagValue string

const (
	TagYes       TagValue = "yes"
	TagNo        TagValue = "no"
	TagUncertain TagValue = "uncertain"
)

// NormalizeTag maps a raw model answer onto the tri-state domain.
func NormalizeTag(raw string) TagValue {
	switch TagValue(strings.ToLower(strings.TrimSpace(raw))) {
	case TagYes:
		return TagYes
	case TagNo:
		return TagNo
	default:
		return TagUncertain
	}
}

// CourseCoverage describes how many courses offer a halal-compatible option.
type CourseCoverage string

const (
	CoverageNone CourseCoverage = "none"
	CoverageSome CourseCoverage = "some"
	CoverageMost CourseCoverage = "most"
	CoverageAll  CourseCoverage = "all"
)

// NormalizeCoverage maps a raw model answer onto the coverage domain,
// returning "" when the coverage is not derivable.
func NormalizeCoverage(raw string) CourseCoverage {
	switch CourseCoverage(strings.ToLower(strings.TrimSpace(raw))) {
	case CoverageNone:
		return CoverageNone
	case CoverageSome:
		return CoverageSome
	case CoverageMost:
		return CoverageMost
	case CoverageAll:
		return CoverageAll
	default:
		return ""
	}
}

// MenuTagSet is the enrichment record for one menu variant under one model
// version. Rows are additive metadata keyed by a fingerprint of the raw text
// they describe; they are never mutated in place, and a new model version
// producing different tags is a new row rather than an overwrite.
type MenuTagSet struct {
	ID          string `json:"id"`
	MenuID      string `json:"menu_id"`
	Model       string `json:"model"`
	Fingerprint string `json:"fingerprint"`

	ContainsPork                TagValue `json:"contains_pork"`
	ContainsAlcohol             TagValue `json:"contains_alcohol"`
	ContainsNonHalalIngredients TagValue `json:"contains_non_halal_ingredients"`
	HasSeafoodOption            TagValue `json:"has_seafood_option"`
	HasVegetarianOption         TagValue `json:"has_vegetarian_option"`

	CourseCoverage    CourseCoverage `json:"course_coverage,omitempty"`
	HalalFriendlyMenu TagValue       `json:"halal_friendly_menu"`
	HalalDishes       []string       `json:"halal_friendly_dishes,omitempty"`
	Confidence        float64        `json:"confidence"`
	EvidenceSnippets  []string       `json:"evidence_snippets,omitempty"`
}

// UncertainTagSet builds the recoverable-failure fallback: every attribute
// uncertain with zero confidence. Used when the model response cannot be
// parsed, the retry budget is exhausted, or the menu text is empty.
func UncertainTagSet(menuID, modelID, fingerprint string) *MenuTagSet {
	return &MenuTagSet{
		MenuID:                      menuID,
		Model:                       modelID,
		Fingerprint:                 fingerprint,
		ContainsPork:                TagUncertain,
		ContainsAlcohol:             TagUncertain,
		ContainsNonHalalIngredients: TagUncertain,
		HasSeafoodOption:            TagUncertain,
		HasVegetarianOption:         TagUncertain,
		HalalFriendlyMenu:           TagUncertain,
		Confidence:                  0,
	}
}
