package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/model"
	"github.com/vanhalal/halal-cli/pkg/anthropic"
)

// ErrParseFailure marks a model response that could not be decoded into the
// tag schema. It is recoverable: the caller retries and eventually falls
// back to an all-uncertain row.
var ErrParseFailure = errors.New("enrich: unparseable model response")

const taggingPrompt = `You are a food-safety analyst helping Muslim diners evaluate restaurant menus.

You will receive the raw text of one restaurant menu. Classify it and respond with ONLY a JSON object, no markdown fences, no commentary, with exactly these keys:

{
  "contains_pork": "yes" | "no" | "uncertain",
  "contains_alcohol": "yes" | "no" | "uncertain",
  "contains_non_halal_ingredients": "yes" | "no" | "uncertain",
  "has_seafood_option": "yes" | "no" | "uncertain",
  "has_vegetarian_option": "yes" | "no" | "uncertain",
  "course_coverage": "none" | "some" | "most" | "all",
  "halal_friendly_menu": "yes" | "no" | "uncertain",
  "halal_friendly_dishes": ["dish name", ...],
  "confidence": 0.0,
  "evidence_snippets": ["short quote from the menu", ...]
}

Rules:
- "contains_pork": yes if any dish contains pork, bacon, ham, prosciutto, chorizo, pancetta, lard or gelatin of unstated origin.
- "contains_alcohol": yes if any dish is cooked with or served alongside wine, beer, spirits, mirin or liqueur, or if the menu lists alcoholic drinks.
- "contains_non_halal_ingredients": yes for any non-halal meat or ingredient beyond pork and alcohol.
- "course_coverage": the share of courses with at least one halal-friendly choice.
- "halal_friendly_menu": yes only when a diner avoiding pork and alcohol can assemble a full meal.
- "halal_friendly_dishes": up to ten specific dish names from the menu that are halal-friendly.
- "confidence" is your overall confidence in this classification, between 0 and 1.
- "evidence_snippets": short verbatim fragments supporting the riskiest findings.
- When the text is truncated or ambiguous, answer "uncertain" rather than guessing.`

// Tagger classifies one menu's raw text through the model collaborator.
type Tagger interface {
	Tag(ctx context.Context, rawText string) (model.MenuTagSet, error)
}

// ModelTagger implements Tagger on an Anthropic client.
type ModelTagger struct {
	client    anthropic.Client
	modelID   string
	maxTokens int64
	logger    *zap.Logger
}

func NewModelTagger(client anthropic.Client, modelID string, maxTokens int64, logger *zap.Logger) *ModelTagger {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if logger == nil {
		logger = zap.L()
	}
	return &ModelTagger{client: client, modelID: modelID, maxTokens: maxTokens, logger: logger}
}

// Prime warms the prompt cache with one sequential request so the worker
// pool's parallel calls hit the cached system prompt instead of each paying
// the cache write.
func (t *ModelTagger) Prime(ctx context.Context) error {
	_, err := anthropic.PrimerRequest(ctx, t.client, anthropic.MessageRequest{
		Model:     t.modelID,
		MaxTokens: 1,
		System:    anthropic.BuildCachedSystemBlocks(taggingPrompt),
		Messages:  []anthropic.Message{{Role: "user", Content: "ok"}},
	})
	if err != nil {
		return eris.Wrap(err, "enrich: prime prompt cache")
	}
	return nil
}

// rawTags mirrors the JSON schema the prompt demands.
type rawTags struct {
	ContainsPork                string   `json:"contains_pork"`
	ContainsAlcohol             string   `json:"contains_alcohol"`
	ContainsNonHalalIngredients string   `json:"contains_non_halal_ingredients"`
	HasSeafoodOption            string   `json:"has_seafood_option"`
	HasVegetarianOption         string   `json:"has_vegetarian_option"`
	CourseCoverage              string   `json:"course_coverage"`
	HalalFriendlyMenu           string   `json:"halal_friendly_menu"`
	HalalFriendlyDishes         []string `json:"halal_friendly_dishes"`
	Confidence                  float64  `json:"confidence"`
	EvidenceSnippets            []string `json:"evidence_snippets"`
}

func (t *ModelTagger) Tag(ctx context.Context, rawText string) (model.MenuTagSet, error) {
	temp := 0.0
	resp, err := t.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       t.modelID,
		MaxTokens:   t.maxTokens,
		System:      anthropic.BuildCachedSystemBlocks(taggingPrompt),
		Messages:    []anthropic.Message{{Role: "user", Content: rawText}},
		Temperature: &temp,
	})
	if err != nil {
		return model.MenuTagSet{}, eris.Wrap(err, "enrich: tag menu")
	}
	resp.Usage.LogCost(t.modelID, "menu_tagging")

	tags, err := parseTagResponse(resp.Text())
	if err != nil {
		t.logger.Warn("model response failed tag schema",
			zap.String("model", t.modelID),
			zap.Error(err))
		return model.MenuTagSet{}, err
	}
	tags.Model = t.modelID
	return tags, nil
}

// parseTagResponse decodes the model's JSON, tolerating markdown fences the
// prompt forbids but models occasionally emit anyway.
func parseTagResponse(text string) (model.MenuTagSet, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	// Some responses wrap the object in prose; cut to the outermost braces.
	if start := strings.Index(cleaned, "{"); start >= 0 {
		if end := strings.LastIndex(cleaned, "}"); end > start {
			cleaned = cleaned[start : end+1]
		}
	}

	var raw rawTags
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return model.MenuTagSet{}, eris.Wrap(ErrParseFailure, err.Error())
	}

	confidence := raw.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return model.MenuTagSet{
		ContainsPork:                model.NormalizeTag(raw.ContainsPork),
		ContainsAlcohol:             model.NormalizeTag(raw.ContainsAlcohol),
		ContainsNonHalalIngredients: model.NormalizeTag(raw.ContainsNonHalalIngredients),
		HasSeafoodOption:            model.NormalizeTag(raw.HasSeafoodOption),
		HasVegetarianOption:         model.NormalizeTag(raw.HasVegetarianOption),
		CourseCoverage:              model.NormalizeCoverage(raw.CourseCoverage),
		HalalFriendlyMenu:           model.NormalizeTag(raw.HalalFriendlyMenu),
		HalalDishes:                 raw.HalalFriendlyDishes,
		Confidence:                  confidence,
		EvidenceSnippets:            raw.EvidenceSnippets,
	}, nil
}
