package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/model"
	"github.com/vanhalal/halal-cli/internal/store"
)

// Cache is the fingerprint-keyed tag cache. Every enrichment goes through
// it so a menu's text is only ever sent to the model once per model ID.
type Cache struct {
	store  store.Store
	tagger Tagger
	logger *zap.Logger
}

func NewCache(s store.Store, tagger Tagger, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.L()
	}
	return &Cache{store: s, tagger: tagger, logger: logger}
}

// Prime warms the tagger's prompt cache when the tagger supports it. Taggers
// without priming (mocks, future local models) are a no-op.
func (c *Cache) Prime(ctx context.Context) error {
	p, ok := c.tagger.(interface{ Prime(context.Context) error })
	if !ok {
		return nil
	}
	return p.Prime(ctx)
}

// GetOrEnrich returns the tag set for a menu variant under modelID. A cache
// hit returns the stored row without a model call. On a miss the tagger
// runs and the result is inserted; losing an insert race to a concurrent
// worker is harmless because both rows carry the same fingerprint, so the
// surviving row is re-read and returned.
func (c *Cache) GetOrEnrich(ctx context.Context, variant model.MenuVariant, modelID string) (*model.MenuTagSet, bool, error) {
	fp := Fingerprint(variant.RawText)

	cached, err := c.store.GetTagSet(ctx, variant.ID, modelID, fp)
	if err != nil {
		return nil, false, eris.Wrap(err, "enrich: cache lookup")
	}
	if cached != nil {
		c.logger.Debug("tag cache hit",
			zap.String("menu_id", variant.ID),
			zap.String("model", modelID))
		return cached, true, nil
	}

	tags, err := c.tagger.Tag(ctx, variant.RawText)
	if err != nil {
		return nil, false, err
	}
	tags.MenuID = variant.ID
	tags.Model = modelID
	tags.Fingerprint = fp

	if err := c.store.InsertTagSet(ctx, tags); err != nil {
		return nil, false, eris.Wrap(err, "enrich: cache insert")
	}

	stored, err := c.store.GetTagSet(ctx, variant.ID, modelID, fp)
	if err != nil {
		return nil, false, eris.Wrap(err, "enrich: cache read-back")
	}
	if stored == nil {
		return &tags, false, nil
	}
	return stored, false, nil
}

// StoreFallback records the all-uncertain zero-confidence row used when a
// menu is empty or its retry budget is exhausted.
func (c *Cache) StoreFallback(ctx context.Context, variant model.MenuVariant, modelID string) (*model.MenuTagSet, error) {
	fp := Fingerprint(variant.RawText)
	fallback := model.UncertainTagSet(variant.ID, modelID, fp)
	if err := c.store.InsertTagSet(ctx, *fallback); err != nil {
		return nil, eris.Wrap(err, "enrich: store fallback")
	}
	return fallback, nil
}
