package ingest

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/match"
	"github.com/vanhalal/halal-cli/internal/model"
	"github.com/vanhalal/halal-cli/internal/store"
)

// PlaceListing is one entry in the map-list halal snapshot: a place profile
// with coordinates, posted hours and closed flags.
type PlaceListing struct {
	Name              string            `json:"name"`
	Address           string            `json:"address"`
	PostalCode        string            `json:"postal_code"`
	Lat               *float64          `json:"lat"`
	Lng               *float64          `json:"lng"`
	OpeningHours      []model.DayHours  `json:"opening_hours"`
	PermanentlyClosed bool              `json:"permanently_closed"`
	TemporarilyClosed bool              `json:"temporarily_closed"`
	URL               string            `json:"url"`
	Certified         bool              `json:"halal_certified"`
}

// PlacesReport summarizes one snapshot load.
type PlacesReport struct {
	Attached  int
	Ambiguous []string
	Unmatched []string
}

// PlacesLoader attaches map-list profiles to canonical restaurants through
// the identity matcher and records each listing as a halal source.
type PlacesLoader struct {
	store      store.Store
	sourceName string
	logger     *zap.Logger
}

func NewPlacesLoader(s store.Store, sourceName string, logger *zap.Logger) *PlacesLoader {
	if sourceName == "" {
		sourceName = "halal_map"
	}
	if logger == nil {
		logger = zap.L()
	}
	return &PlacesLoader{store: s, sourceName: sourceName, logger: logger}
}

// Load decodes the snapshot and resolves every listing. Ambiguous and
// unmatched listings are reported for manual review, never auto-resolved.
func (l *PlacesLoader) Load(ctx context.Context, r io.Reader) (PlacesReport, error) {
	var listings []PlaceListing
	if err := json.NewDecoder(r).Decode(&listings); err != nil {
		return PlacesReport{}, eris.Wrap(err, "ingest: decode places snapshot")
	}

	restaurants, err := l.store.ListRestaurants(ctx)
	if err != nil {
		return PlacesReport{}, eris.Wrap(err, "ingest: list restaurants")
	}
	overrides, err := l.store.ListOverrides(ctx)
	if err != nil {
		return PlacesReport{}, eris.Wrap(err, "ingest: list overrides")
	}
	matcher := match.NewMatcher(restaurants, overrides, l.logger)

	var report PlacesReport
	for _, listing := range listings {
		res := matcher.Match(model.SourceCandidate{
			Name:       listing.Name,
			Address:    listing.Address,
			PostalCode: listing.PostalCode,
			URL:        listing.URL,
		})

		switch res.Outcome {
		case match.OutcomeMatched:
			if err := l.attach(ctx, res.Best, listing); err != nil {
				return report, err
			}
			report.Attached++
		case match.OutcomeAmbiguous:
			report.Ambiguous = append(report.Ambiguous, listing.Name)
			l.logger.Info("ambiguous place listing needs a match override",
				zap.String("listing", listing.Name),
				zap.Int("candidates", len(res.Candidates)))
		default:
			report.Unmatched = append(report.Unmatched, listing.Name)
			l.logger.Debug("place listing matched no restaurant",
				zap.String("listing", listing.Name))
		}
	}

	l.logger.Info("places snapshot ingest complete",
		zap.Int("attached", report.Attached),
		zap.Int("ambiguous", len(report.Ambiguous)),
		zap.Int("unmatched", len(report.Unmatched)))
	return report, nil
}

func (l *PlacesLoader) attach(ctx context.Context, cand *match.Candidate, listing PlaceListing) error {
	profile := model.Restaurant{
		Address:           listing.Address,
		PostalCode:        listing.PostalCode,
		OpeningHours:      listing.OpeningHours,
		PermanentlyClosed: listing.PermanentlyClosed,
		TemporarilyClosed: listing.TemporarilyClosed,
	}
	if listing.Lat != nil && listing.Lng != nil {
		profile.Coordinates = &model.Coordinates{Lat: *listing.Lat, Lng: *listing.Lng}
	}
	if err := l.store.AttachProfile(ctx, cand.Restaurant.ID, profile); err != nil {
		return err
	}

	status := model.StatusHalalListed
	if listing.Certified {
		status = model.StatusHalalCertified
	}
	return l.store.UpsertHalalSource(ctx, model.HalalSourceRecord{
		RestaurantID: cand.Restaurant.ID,
		SourceName:   l.sourceName,
		SourceURL:    listing.URL,
		Status:       status,
		Confidence:   cand.Score,
	})
}
