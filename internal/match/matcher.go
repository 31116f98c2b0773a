package match

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/model"
)

// Decision thresholds. A candidate is accepted outright at AcceptThreshold,
// or at FSAThreshold when its postal FSA agrees with the restaurant's.
// Scores between ScoreFloor and the accept bar surface as ambiguous for
// manual review, as does a runner-up within AmbiguityMargin of the best.
// Scores below ScoreFloor never match.
const (
	AcceptThreshold = 0.90
	FSAThreshold    = 0.86
	AmbiguityMargin = 0.03
	ScoreFloor      = 0.50

	maxAmbiguousCandidates = 3
)

type Outcome string

const (
	OutcomeMatched   Outcome = "matched"
	OutcomeAmbiguous Outcome = "ambiguous"
	OutcomeUnmatched Outcome = "unmatched"
)

// Candidate is a scored pairing of a source listing against a canonical
// restaurant.
type Candidate struct {
	Restaurant model.Restaurant
	Score      float64
	Overridden bool
}

// Result is the decision for one source listing.
type Result struct {
	Outcome    Outcome
	Best       *Candidate
	Candidates []Candidate // top candidates, populated for ambiguous outcomes
}

// Matcher resolves source listing names against the canonical restaurant set.
type Matcher struct {
	restaurants []model.Restaurant
	normalized  []string
	overrides   map[string]string // lowercased dineout name -> source name (lowercased)
	logger      *zap.Logger
}

// NewMatcher builds a Matcher over the canonical set. Overrides pin a source
// name to a specific canonical name and bypass scoring entirely.
func NewMatcher(restaurants []model.Restaurant, overrides []model.MatchOverride, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.L()
	}
	normalized := make([]string, len(restaurants))
	for i, r := range restaurants {
		normalized[i] = Normalize(r.Name)
	}
	ov := make(map[string]string, len(overrides))
	for _, o := range overrides {
		ov[strings.ToLower(o.DineoutName)] = strings.ToLower(o.SourceName)
	}
	return &Matcher{
		restaurants: restaurants,
		normalized:  normalized,
		overrides:   ov,
		logger:      logger,
	}
}

// Match scores a source candidate against every canonical restaurant and
// returns a decision.
func (m *Matcher) Match(c model.SourceCandidate) Result {
	sourceLower := strings.ToLower(strings.TrimSpace(c.Name))
	sourceNorm := Normalize(c.Name)
	sourceFSA := FSA(c.PostalCode)

	// An explicit override wins regardless of score.
	for i, r := range m.restaurants {
		if target, ok := m.overrides[strings.ToLower(r.Name)]; ok && target == sourceLower {
			m.logger.Debug("match override applied",
				zap.String("source", c.Name),
				zap.String("restaurant", r.Name))
			return Result{
				Outcome: OutcomeMatched,
				Best:    &Candidate{Restaurant: m.restaurants[i], Score: 1.0, Overridden: true},
			}
		}
	}

	if sourceNorm == "" {
		return Result{Outcome: OutcomeUnmatched}
	}

	scored := make([]Candidate, 0, len(m.restaurants))
	for i, r := range m.restaurants {
		score := nameScore(sourceNorm, m.normalized[i])
		if score <= 0 {
			continue
		}
		scored = append(scored, Candidate{Restaurant: r, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) == 0 || scored[0].Score < ScoreFloor {
		return Result{Outcome: OutcomeUnmatched}
	}

	best := scored[0]
	runnerUp := 0.0
	if len(scored) > 1 {
		runnerUp = scored[1].Score
	}

	accept := best.Score >= AcceptThreshold
	if !accept && sourceFSA != "" && sourceFSA == FSA(best.Restaurant.PostalCode) {
		accept = best.Score >= FSAThreshold
	}

	if accept && best.Score-runnerUp >= AmbiguityMargin {
		m.logger.Debug("match accepted",
			zap.String("source", c.Name),
			zap.String("restaurant", best.Restaurant.Name),
			zap.Float64("score", best.Score))
		return Result{Outcome: OutcomeMatched, Best: &best}
	}

	// The best candidate is plausible but not trustworthy: either it never
	// cleared the accept bar, or a runner-up sits too close. Surface the
	// top candidates for manual review.
	top := scored
	if len(top) > maxAmbiguousCandidates {
		top = top[:maxAmbiguousCandidates]
	}
	m.logger.Info("match ambiguous",
		zap.String("source", c.Name),
		zap.Float64("best", best.Score),
		zap.Float64("runner_up", runnerUp))
	return Result{Outcome: OutcomeAmbiguous, Best: &best, Candidates: top}
}

// nameScore combines edit-distance similarity with prefix and token-overlap
// lifts. Lifts reward names that share their leading tokens or most of their
// vocabulary even when trailing words differ.
func nameScore(a, b string) float64 {
	if a == b {
		return 1.0
	}

	score := levenshtein.Similarity(a, b, nil)
	if s := prefixScore(strings.Fields(a), strings.Fields(b)); s > score {
		score = s
	}
	if s := overlapScore(strings.Fields(a), strings.Fields(b)); s > score {
		score = s
	}
	return score
}

func prefixScore(a, b []string) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	common := 0
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			break
		}
		common++
	}
	switch {
	case common >= 3:
		return 0.93
	case common >= 2:
		return 0.90
	default:
		return 0
	}
}

func overlapScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	shared := 0
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := setB[t]; dup {
			continue
		}
		setB[t] = struct{}{}
		if _, ok := setA[t]; ok {
			shared++
		}
	}
	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	if smaller == 0 {
		return 0
	}
	if float64(shared)/float64(smaller) >= 0.75 {
		return 0.90
	}
	return 0
}
