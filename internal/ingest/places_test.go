package ingest

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

const placesJSON = `[
  {
    "name": "The Afghan Horsemen Restaurant",
    "address": "1833 Anderson St #202",
    "postal_code": "V6H 3V9",
    "lat": 49.2712, "lng": -123.1341,
    "opening_hours": [{"day": "Friday", "hours": "5:00pm - 10:00pm"}],
    "url": "https://halalmap.example/afghan-horsemen",
    "halal_certified": true
  },
  {
    "name": "Sushi Garden",
    "postal_code": "V5C 6P5"
  },
  {
    "name": "Totally Unknown Diner"
  }
]`

func seedCanonical(t *testing.T, s store.Store, names ...string) {
	t.Helper()
	slugger := NewSlugger()
	for _, n := range names {
		_, err := s.UpsertRestaurant(context.Background(), model.Restaurant{
			Name: n,
			Slug: slugger.Unique(n),
		})
		require.NoError(t, err)
	}
}

func TestPlacesLoad(t *testing.T) {
	s := store.NewMemory()
	seedCanonical(t, s, "Afghan Horsemen", "Sushi Garden Burnaby", "Sushi Garden Richmond")
	loader := NewPlacesLoader(s, "halal_map", zap.NewNop())

	report, err := loader.Load(context.Background(), strings.NewReader(placesJSON))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attached)
	assert.Equal(t, []string{"Sushi Garden"}, report.Ambiguous,
		"two matching branches must go to manual review")
	assert.Equal(t, []string{"Totally Unknown Diner"}, report.Unmatched)

	horsemen, err := s.GetRestaurantBySlug(context.Background(), "afghan-horsemen")
	require.NoError(t, err)
	assert.Equal(t, "V6H 3V9", horsemen.PostalCode)
	require.NotNil(t, horsemen.Coordinates)
	assert.InDelta(t, 49.2712, horsemen.Coordinates.Lat, 1e-6)
	require.Len(t, horsemen.OpeningHours, 1)

	sources, err := s.ListHalalSources(context.Background(), horsemen.ID)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "halal_map", sources[0].SourceName)
	assert.Equal(t, model.StatusHalalCertified, sources[0].Status)
	assert.Greater(t, sources[0].Confidence, 0.9)
}

func TestPlacesLoadOverrideResolvesAmbiguity(t *testing.T) {
	s := store.NewMemory()
	seedCanonical(t, s, "Sushi Garden Burnaby", "Sushi Garden Richmond")
	require.NoError(t, s.AddOverride(context.Background(), model.MatchOverride{
		DineoutName: "Sushi Garden Burnaby",
		SourceName:  "Sushi Garden",
	}))
	loader := NewPlacesLoader(s, "halal_map", zap.NewNop())

	report, err := loader.Load(context.Background(),
		strings.NewReader(`[{"name": "Sushi Garden", "halal_certified": false}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attached)
	assert.Empty(t, report.Ambiguous)

	burnaby, err := s.GetRestaurantBySlug(context.Background(), "sushi-garden-burnaby")
	require.NoError(t, err)
	sources, err := s.ListHalalSources(context.Background(), burnaby.ID)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, model.StatusHalalListed, sources[0].Status)
	assert.InDelta(t, 1.0, sources[0].Confidence, 1e-9)
}

func TestPlacesLoadBadJSON(t *testing.T) {
	loader := NewPlacesLoader(store.NewMemory(), "", zap.NewNop())
	_, err := loader.Load(context.Background(), strings.NewReader("{not json"))
	assert.Error(t, err)
}
