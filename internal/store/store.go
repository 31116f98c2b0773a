// Package store defines the persistence interface for the reconciliation and
// enrichment pipeline, with Postgres, SQLite, and in-memory implementations.
// All derived views are computed from these normalized rows at read time.
package store

import (
	"context"

	"github.com/vanhalal/halal-cli/internal/model"
)

// Store is the row store the pipeline depends on. Writes happen only through
// the ingestion/enrichment commands; read-path consumers are read-only.
type Store interface {
	// Restaurants. UpsertRestaurant inserts keyed by slug; when the slug
	// already exists the insert is treated as "already matched" and the
	// existing row is re-read and returned instead of failing.
	UpsertRestaurant(ctx context.Context, r model.Restaurant) (*model.Restaurant, error)
	GetRestaurantBySlug(ctx context.Context, slug string) (*model.Restaurant, error)
	GetRestaurantByURL(ctx context.Context, dineoutURL string) (*model.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]model.Restaurant, error)
	// AttachProfile fills optional profile fields (address, coordinates,
	// opening hours, closed flags) from a secondary source without touching
	// name or slug. Empty incoming fields leave the stored value alone.
	AttachProfile(ctx context.Context, restaurantID string, profile model.Restaurant) error

	// Menu variants. Upserts are keyed by (restaurant_id, menu_title,
	// menu_variant); menu_raw_text is written on insert and never updated.
	UpsertMenus(ctx context.Context, menus []model.MenuVariant) (int64, error)
	ListMenus(ctx context.Context, restaurantID string) ([]model.MenuVariant, error)
	ListMenusMissingTags(ctx context.Context, modelID string, limit int) ([]model.MenuVariant, error)

	// Menu tag sets. Insert is idempotent per (menu_id, model, fingerprint):
	// a duplicate write is a benign no-op. Rows are never updated or deleted.
	GetTagSet(ctx context.Context, menuID, modelID, fingerprint string) (*model.MenuTagSet, error)
	InsertTagSet(ctx context.Context, ts model.MenuTagSet) error
	ListTagSets(ctx context.Context, restaurantID, modelID string) ([]model.MenuTagSet, error)

	// Halal source records, at most one per (restaurant_id, source_name).
	UpsertHalalSource(ctx context.Context, rec model.HalalSourceRecord) error
	ListHalalSources(ctx context.Context, restaurantID string) ([]model.HalalSourceRecord, error)

	// Match overrides, append-only.
	ListOverrides(ctx context.Context) ([]model.MatchOverride, error)
	AddOverride(ctx context.Context, o model.MatchOverride) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
