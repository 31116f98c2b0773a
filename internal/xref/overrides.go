package xref

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vanhalal/halal-cli/internal/model"
	"github.com/vanhalal/halal-cli/internal/store"
)

// overrideSeed is the review-curated YAML file mapping directory names to
// canonical Dine Out names:
//
//	overrides:
//	  - dineout_name: Afghan Horsemen Restaurant
//	    vancouverfoodies_name: The Afghan Horsemen
//	    notes: manual review 2026-01
type overrideSeed struct {
	Overrides []model.MatchOverride `yaml:"overrides"`
}

// LoadOverrides reads an override seed file into match_overrides. Entries
// already present (same pair of names) are skipped so the file can be
// re-applied after every review pass.
func LoadOverrides(ctx context.Context, s store.Store, r io.Reader, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.L()
	}

	var seed overrideSeed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		return 0, eris.Wrap(err, "xref: decode override seed")
	}

	existing, err := s.ListOverrides(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "xref: list overrides")
	}
	seen := make(map[[2]string]struct{}, len(existing))
	for _, o := range existing {
		seen[[2]string{o.DineoutName, o.SourceName}] = struct{}{}
	}

	added := 0
	for _, o := range seed.Overrides {
		if o.DineoutName == "" || o.SourceName == "" {
			logger.Warn("skipping incomplete override entry",
				zap.String("dineout_name", o.DineoutName),
				zap.String("vancouverfoodies_name", o.SourceName))
			continue
		}
		if _, dup := seen[[2]string{o.DineoutName, o.SourceName}]; dup {
			continue
		}
		if err := s.AddOverride(ctx, o); err != nil {
			return added, err
		}
		added++
	}

	logger.Info("override seed applied", zap.Int("added", added))
	return added, nil
}
