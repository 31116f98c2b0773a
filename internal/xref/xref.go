// Package xref cross-references community halal directory listings against
// the canonical restaurant set.
package xref

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/match"
	"github.com/vanhalal/halal-cli/internal/model"
	"github.com/vanhalal/halal-cli/internal/store"
)

const sourceName = "vancouverfoodies"

// certBadges are directory badges that indicate formal certification
// rather than community listing.
var certBadges = map[string]struct{}{
	"halal certified": {},
	"certified halal": {},
	"certified":       {},
}

// Listing is one directory entry: a name, a page URL, and the badges shown
// on the listing.
type Listing struct {
	Name       string   `json:"name"`
	URL        string   `json:"url"`
	PostalCode string   `json:"postal_code"`
	Badges     []string `json:"badges"`
}

// AmbiguousListing is a listing that matched more than one restaurant too
// closely to auto-resolve. It is surfaced for a manual MatchOverride entry.
type AmbiguousListing struct {
	Listing    Listing
	Candidates []match.Candidate
}

// Report summarizes one cross-reference run.
type Report struct {
	Linked    int
	Ambiguous []AmbiguousListing
	Unmatched []string
}

// Job links directory listings to restaurants and records the result as
// halal sources.
type Job struct {
	store  store.Store
	logger *zap.Logger
}

func NewJob(s store.Store, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.L()
	}
	return &Job{store: s, logger: logger}
}

// Run decodes a JSON array of listings and cross-references each one.
// Ambiguous outcomes are reported, never guessed.
func (j *Job) Run(ctx context.Context, r io.Reader) (Report, error) {
	var listings []Listing
	if err := json.NewDecoder(r).Decode(&listings); err != nil {
		return Report{}, eris.Wrap(err, "xref: decode listings")
	}

	restaurants, err := j.store.ListRestaurants(ctx)
	if err != nil {
		return Report{}, eris.Wrap(err, "xref: list restaurants")
	}
	overrides, err := j.store.ListOverrides(ctx)
	if err != nil {
		return Report{}, eris.Wrap(err, "xref: list overrides")
	}
	matcher := match.NewMatcher(restaurants, overrides, j.logger)

	var report Report
	for _, listing := range listings {
		res := matcher.Match(model.SourceCandidate{
			Name:       listing.Name,
			PostalCode: listing.PostalCode,
			URL:        listing.URL,
		})

		switch res.Outcome {
		case match.OutcomeMatched:
			if err := j.link(ctx, res.Best, listing); err != nil {
				return report, err
			}
			report.Linked++
		case match.OutcomeAmbiguous:
			report.Ambiguous = append(report.Ambiguous, AmbiguousListing{
				Listing:    listing,
				Candidates: res.Candidates,
			})
			j.logger.Info("ambiguous directory listing needs a match override",
				zap.String("listing", listing.Name),
				zap.Int("candidates", len(res.Candidates)))
		default:
			report.Unmatched = append(report.Unmatched, listing.Name)
		}
	}

	j.logger.Info("directory cross-reference complete",
		zap.Int("linked", report.Linked),
		zap.Int("ambiguous", len(report.Ambiguous)),
		zap.Int("unmatched", len(report.Unmatched)))
	return report, nil
}

func (j *Job) link(ctx context.Context, cand *match.Candidate, listing Listing) error {
	return j.store.UpsertHalalSource(ctx, model.HalalSourceRecord{
		RestaurantID:    cand.Restaurant.ID,
		SourceName:      sourceName,
		SourceURL:       listing.URL,
		Status:          listingStatus(listing.Badges),
		EvidenceSnippet: evidence(listing.Badges),
		Confidence:      cand.Score,
	})
}

// listingStatus maps directory badges to a source status: a certification
// badge outranks plain presence in the directory.
func listingStatus(badges []string) model.SourceStatus {
	for _, b := range badges {
		if _, ok := certBadges[strings.ToLower(strings.TrimSpace(b))]; ok {
			return model.StatusHalalCertified
		}
	}
	return model.StatusHalalListed
}

func evidence(badges []string) string {
	if len(badges) == 0 {
		return "Vancouver Foodies listing"
	}
	return "Vancouver Foodies listing: " + strings.Join(badges, ", ")
}
