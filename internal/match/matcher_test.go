package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/model"
)

func restaurants(names ...string) []model.Restaurant {
	out := make([]model.Restaurant, len(names))
	for i, n := range names {
		out[i] = model.Restaurant{ID: n, Name: n}
	}
	return out
}

func TestMatchExactAfterNormalization(t *testing.T) {
	m := NewMatcher(restaurants("The Afghan Horsemen Restaurant", "Nuba", "Minami"), nil, zap.NewNop())

	res := m.Match(model.SourceCandidate{Name: "Afghan Horsemen"})
	require.Equal(t, OutcomeMatched, res.Outcome)
	require.NotNil(t, res.Best)
	assert.Equal(t, "The Afghan Horsemen Restaurant", res.Best.Restaurant.Name)
	assert.InDelta(t, 1.0, res.Best.Score, 1e-9)
	assert.False(t, res.Best.Overridden)
}

func TestMatchOverrideWins(t *testing.T) {
	m := NewMatcher(
		restaurants("Zarak", "Zakkushi"),
		[]model.MatchOverride{{DineoutName: "Zarak", SourceName: "Zarak by Afghan Kitchen"}},
		zap.NewNop(),
	)

	res := m.Match(model.SourceCandidate{Name: "Zarak by Afghan Kitchen"})
	require.Equal(t, OutcomeMatched, res.Outcome)
	assert.Equal(t, "Zarak", res.Best.Restaurant.Name)
	assert.True(t, res.Best.Overridden)
}

func TestMatchAmbiguousWhenRunnerUpTooClose(t *testing.T) {
	m := NewMatcher(restaurants("Sushi Garden Burnaby", "Sushi Garden Richmond"), nil, zap.NewNop())

	res := m.Match(model.SourceCandidate{Name: "Sushi Garden"})
	require.Equal(t, OutcomeAmbiguous, res.Outcome)
	require.Len(t, res.Candidates, 2)
	assert.InDelta(t, res.Candidates[0].Score, res.Candidates[1].Score, AmbiguityMargin,
		"both branches score within the ambiguity margin")
}

func TestMatchAmbiguousCapsCandidates(t *testing.T) {
	m := NewMatcher(restaurants(
		"Sushi Garden Burnaby",
		"Sushi Garden Richmond",
		"Sushi Garden Metrotown",
		"Sushi Garden Lougheed",
	), nil, zap.NewNop())

	res := m.Match(model.SourceCandidate{Name: "Sushi Garden"})
	require.Equal(t, OutcomeAmbiguous, res.Outcome)
	assert.Len(t, res.Candidates, maxAmbiguousCandidates)
}

func TestMatchPrefixLift(t *testing.T) {
	m := NewMatcher(restaurants("Tandoori Fusion Indian Cuisine", "Miku"), nil, zap.NewNop())

	// Shares the first two normalized tokens; the prefix lift carries it
	// to the accept threshold despite the different tail.
	res := m.Match(model.SourceCandidate{Name: "Tandoori Fusion"})
	require.Equal(t, OutcomeMatched, res.Outcome)
	assert.Equal(t, "Tandoori Fusion Indian Cuisine", res.Best.Restaurant.Name)
	assert.GreaterOrEqual(t, res.Best.Score, AcceptThreshold)
}

func TestMatchFSAAcceptsBelowThreshold(t *testing.T) {
	canonical := []model.Restaurant{{
		ID:         "r-1",
		Name:       "Chopan Kebab Palace",
		PostalCode: "V5K 1A1",
	}}
	m := NewMatcher(canonical, nil, zap.NewNop())

	// "Chopan Kabob Palace" scores below the accept threshold but above
	// the FSA threshold; the matching postal area tips the decision.
	withFSA := m.Match(model.SourceCandidate{Name: "Chopan Kabob Palace", PostalCode: "V5K 2B2"})
	require.Equal(t, OutcomeMatched, withFSA.Outcome)
	assert.Less(t, withFSA.Best.Score, AcceptThreshold)
	assert.GreaterOrEqual(t, withFSA.Best.Score, FSAThreshold)

	withoutFSA := m.Match(model.SourceCandidate{Name: "Chopan Kabob Palace", PostalCode: "V6B 0A1"})
	assert.Equal(t, OutcomeAmbiguous, withoutFSA.Outcome)

	noPostal := m.Match(model.SourceCandidate{Name: "Chopan Kabob Palace"})
	assert.Equal(t, OutcomeAmbiguous, noPostal.Outcome)
}

func TestMatchAmbiguousBetweenFloorAndAccept(t *testing.T) {
	m := NewMatcher(restaurants("Pacifico Pizzeria", "Nuba"), nil, zap.NewNop())

	// A plausible but unconvincing score lands between the floor and the
	// accept bar and is never silently matched or discarded.
	res := m.Match(model.SourceCandidate{Name: "Pacifico Pizza"})
	require.Equal(t, OutcomeAmbiguous, res.Outcome)
	require.NotNil(t, res.Best)
	assert.GreaterOrEqual(t, res.Best.Score, ScoreFloor)
	assert.Less(t, res.Best.Score, AcceptThreshold)
	assert.Equal(t, "Pacifico Pizzeria", res.Best.Restaurant.Name)
	assert.NotEmpty(t, res.Candidates)
}

func TestMatchUnmatchedBelowFloor(t *testing.T) {
	m := NewMatcher(restaurants("Nuba", "Minami", "Zarak"), nil, zap.NewNop())

	res := m.Match(model.SourceCandidate{Name: "Pizzeria Farina"})
	assert.Equal(t, OutcomeUnmatched, res.Outcome)
	assert.Nil(t, res.Best)
}

func TestMatchEmptyNormalizedName(t *testing.T) {
	m := NewMatcher(restaurants("Nuba"), nil, zap.NewNop())

	res := m.Match(model.SourceCandidate{Name: "The Restaurant & Bar"})
	assert.Equal(t, OutcomeUnmatched, res.Outcome)
}

func TestNameScoreLifts(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "sushi garden", "sushi garden", 1.0},
		{"three shared prefix tokens", "zarak afghan eats downtown", "zarak afghan eats gastown", 0.93},
		{"token overlap dominates order", "kitchen corner halal", "halal corner", 0.90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, nameScore(tt.a, tt.b), 1e-9)
		})
	}
}
