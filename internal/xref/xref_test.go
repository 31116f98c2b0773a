package xref

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/model"
	"github.com/vanhalal/halal-cli/internal/store"
)

func seed(t *testing.T, names ...string) store.Store {
	t.Helper()
	s := store.NewMemory()
	for _, n := range names {
		_, err := s.UpsertRestaurant(context.Background(), model.Restaurant{
			Name: n,
			Slug: strings.ToLower(strings.ReplaceAll(n, " ", "-")),
		})
		require.NoError(t, err)
	}
	return s
}

func restaurantID(t *testing.T, s store.Store, slug string) string {
	t.Helper()
	r, err := s.GetRestaurantBySlug(context.Background(), slug)
	require.NoError(t, err)
	return r.ID
}

func TestRunLinksCertifiedListing(t *testing.T) {
	s := seed(t, "Afghan Horsemen", "Nuba")
	job := NewJob(s, zap.NewNop())

	report, err := job.Run(context.Background(), strings.NewReader(`[
	  {
	    "name": "The Afghan Horsemen Restaurant",
	    "url": "https://vancouverfoodies.example/afghan-horsemen",
	    "badges": ["Halal Certified", "Family Friendly"]
	  }
	]`))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Linked)
	assert.Empty(t, report.Ambiguous)
	assert.Empty(t, report.Unmatched)

	sources, err := s.ListHalalSources(context.Background(), restaurantID(t, s, "afghan-horsemen"))
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "vancouverfoodies", sources[0].SourceName)
	assert.Equal(t, model.StatusHalalCertified, sources[0].Status)
	assert.Equal(t, "Vancouver Foodies listing: Halal Certified, Family Friendly", sources[0].EvidenceSnippet)
	assert.InDelta(t, 1.0, sources[0].Confidence, 1e-9)
}

func TestRunListingWithoutBadgeIsListed(t *testing.T) {
	s := seed(t, "Nuba")
	job := NewJob(s, zap.NewNop())

	report, err := job.Run(context.Background(),
		strings.NewReader(`[{"name": "Nuba", "badges": []}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Linked)

	sources, err := s.ListHalalSources(context.Background(), restaurantID(t, s, "nuba"))
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, model.StatusHalalListed, sources[0].Status)
	assert.Equal(t, "Vancouver Foodies listing", sources[0].EvidenceSnippet)
}

func TestRunAmbiguousListingIsReportedNotLinked(t *testing.T) {
	s := seed(t, "Sushi Garden Burnaby", "Sushi Garden Richmond")
	job := NewJob(s, zap.NewNop())

	report, err := job.Run(context.Background(),
		strings.NewReader(`[{"name": "Sushi Garden"}]`))
	require.NoError(t, err)
	assert.Zero(t, report.Linked)
	require.Len(t, report.Ambiguous, 1)
	assert.Equal(t, "Sushi Garden", report.Ambiguous[0].Listing.Name)
	assert.Len(t, report.Ambiguous[0].Candidates, 2)

	for _, slug := range []string{"sushi-garden-burnaby", "sushi-garden-richmond"} {
		sources, err := s.ListHalalSources(context.Background(), restaurantID(t, s, slug))
		require.NoError(t, err)
		assert.Empty(t, sources, "ambiguity must never auto-link")
	}
}

func TestRunRerunReplacesSource(t *testing.T) {
	s := seed(t, "Nuba")
	job := NewJob(s, zap.NewNop())

	_, err := job.Run(context.Background(), strings.NewReader(`[{"name": "Nuba"}]`))
	require.NoError(t, err)
	_, err = job.Run(context.Background(),
		strings.NewReader(`[{"name": "Nuba", "badges": ["Halal Certified"]}]`))
	require.NoError(t, err)

	sources, err := s.ListHalalSources(context.Background(), restaurantID(t, s, "nuba"))
	require.NoError(t, err)
	require.Len(t, sources, 1, "one row per (restaurant, source)")
	assert.Equal(t, model.StatusHalalCertified, sources[0].Status)
}

func TestLoadOverrides(t *testing.T) {
	s := store.NewMemory()
	seedYAML := `overrides:
  - dineout_name: Afghan Horsemen Restaurant
    vancouverfoodies_name: The Afghan Horsemen
    notes: manual review 2026-01
  - dineout_name: ""
    vancouverfoodies_name: Broken Entry
`

	added, err := LoadOverrides(context.Background(), s, strings.NewReader(seedYAML), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// re-applying the same seed adds nothing
	added, err = LoadOverrides(context.Background(), s, strings.NewReader(seedYAML), zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, added)

	overrides, err := s.ListOverrides(context.Background())
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "Afghan Horsemen Restaurant", overrides[0].DineoutName)
	assert.Equal(t, "The Afghan Horsemen", overrides[0].SourceName)
	assert.Equal(t, "manual review 2026-01", overrides[0].Notes)
}

func TestLoadOverridesBadYAML(t *testing.T) {
	_, err := LoadOverrides(context.Background(), store.NewMemory(),
		strings.NewReader("overrides: not-a-list"), zap.NewNop())
	assert.Error(t, err)
}
