package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/vanhalal/halal-cli/internal/db"
	"github.com/vanhalal/halal-cli/internal/model"
	"github.com/vanhalal/halal-cli/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	// The database may still be coming up when the CLI starts; give it a
	// few attempts before failing.
	pingCfg := resilience.DefaultRetryConfig()
	pingCfg.ShouldRetry = func(error) bool { return true }
	pingCfg.OnRetry = resilience.RetryLogger("postgres", "ping")
	if err := resilience.Do(ctx, pingCfg, pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS restaurants (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name               TEXT NOT NULL,
	slug               TEXT NOT NULL UNIQUE,
	dineout_url        TEXT UNIQUE,
	address            TEXT,
	city               TEXT,
	neighborhood       TEXT,
	postal_code        TEXT,
	lat                DOUBLE PRECISION,
	lng                DOUBLE PRECISION,
	opening_hours      JSONB,
	permanently_closed BOOLEAN NOT NULL DEFAULT false,
	temporarily_closed BOOLEAN NOT NULL DEFAULT false,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS menus (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	restaurant_id  TEXT NOT NULL REFERENCES restaurants(id),
	menu_title     TEXT NOT NULL,
	menu_variant   INTEGER NOT NULL DEFAULT 1,
	menu_price     TEXT,
	menu_price_min DOUBLE PRECISION,
	menu_price_max DOUBLE PRECISION,
	currency       TEXT NOT NULL DEFAULT 'CAD',
	menu_raw_text  TEXT NOT NULL,
	UNIQUE (restaurant_id, menu_title, menu_variant)
);

CREATE TABLE IF NOT EXISTS menu_tags (
	id                             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	menu_id                        TEXT NOT NULL REFERENCES menus(id),
	model                          TEXT NOT NULL,
	fingerprint                    TEXT NOT NULL,
	contains_pork                  TEXT NOT NULL DEFAULT 'uncertain',
	contains_alcohol               TEXT NOT NULL DEFAULT 'uncertain',
	contains_non_halal_ingredients TEXT NOT NULL DEFAULT 'uncertain',
	has_seafood_option             TEXT NOT NULL DEFAULT 'uncertain',
	has_vegetarian_option          TEXT NOT NULL DEFAULT 'uncertain',
	course_coverage                TEXT,
	halal_friendly_menu            TEXT NOT NULL DEFAULT 'uncertain',
	halal_friendly_dishes          JSONB,
	confidence                     DOUBLE PRECISION NOT NULL DEFAULT 0,
	evidence_snippets              JSONB,
	created_at                     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (menu_id, model, fingerprint)
);

CREATE TABLE IF NOT EXISTS halal_sources (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	restaurant_id    TEXT NOT NULL REFERENCES restaurants(id),
	source_name      TEXT NOT NULL,
	source_url       TEXT,
	status           TEXT NOT NULL DEFAULT 'unknown',
	evidence_snippet TEXT,
	confidence       DOUBLE PRECISION NOT NULL DEFAULT 0,
	UNIQUE (restaurant_id, source_name)
);

CREATE TABLE IF NOT EXISTS match_overrides (
	id                    TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	dineout_name          TEXT NOT NULL,
	vancouverfoodies_name TEXT NOT NULL,
	notes                 TEXT
);

CREATE INDEX IF NOT EXISTS idx_menus_restaurant_id ON menus(restaurant_id);
CREATE INDEX IF NOT EXISTS idx_menu_tags_menu_id ON menu_tags(menu_id);
CREATE INDEX IF NOT EXISTS idx_menu_tags_model ON menu_tags(model);
CREATE INDEX IF NOT EXISTS idx_halal_sources_restaurant_id ON halal_sources(restaurant_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const restaurantColumns = `id, name, slug, dineout_url, address, city, neighborhood, postal_code,
	lat, lng, opening_hours, permanently_closed, temporarily_closed, created_at`

func (s *PostgresStore) UpsertRestaurant(ctx context.Context, r model.Restaurant) (*model.Restaurant, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	hoursJSON, err := marshalHours(r.OpeningHours)
	if err != nil {
		return nil, err
	}

	var lat, lng *float64
	if r.Coordinates != nil {
		lat, lng = &r.Coordinates.Lat, &r.Coordinates.Lng
	}

	// ON CONFLICT DO NOTHING + re-read: a racing duplicate insert means the
	// restaurant is already matched, so the existing row wins.
	_, err = s.pool.Exec(ctx,
		`INSERT INTO restaurants (id, name, slug, dineout_url, address, city, neighborhood, postal_code,
		  lat, lng, opening_hours, permanently_closed, temporarily_closed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (slug) DO NOTHING`,
		r.ID, r.Name, r.Slug, nullIfEmpty(r.DineoutURL), nullIfEmpty(r.Address),
		nullIfEmpty(r.City), nullIfEmpty(r.Neighborhood), nullIfEmpty(r.PostalCode),
		lat, lng, hoursJSON, r.PermanentlyClosed, r.TemporarilyClosed, r.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert restaurant %s", r.Slug)
	}

	return s.GetRestaurantBySlug(ctx, r.Slug)
}

func (s *PostgresStore) GetRestaurantBySlug(ctx context.Context, slug string) (*model.Restaurant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE slug = $1`, slug)
	r, err := scanRestaurant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get restaurant by slug %s", slug)
	}
	return r, nil
}

func (s *PostgresStore) GetRestaurantByURL(ctx context.Context, dineoutURL string) (*model.Restaurant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE dineout_url = $1`, dineoutURL)
	r, err := scanRestaurant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get restaurant by url")
	}
	return r, nil
}

func (s *PostgresStore) ListRestaurants(ctx context.Context) ([]model.Restaurant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list restaurants")
	}
	defer rows.Close()

	var out []model.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan restaurant")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list restaurants iterate")
}

func (s *PostgresStore) AttachProfile(ctx context.Context, restaurantID string, p model.Restaurant) error {
	hoursJSON, err := marshalHours(p.OpeningHours)
	if err != nil {
		return err
	}

	var lat, lng *float64
	if p.Coordinates != nil {
		lat, lng = &p.Coordinates.Lat, &p.Coordinates.Lng
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE restaurants SET
		   address            = COALESCE(NULLIF($1, ''), address),
		   city               = COALESCE(NULLIF($2, ''), city),
		   neighborhood       = COALESCE(NULLIF($3, ''), neighborhood),
		   postal_code        = COALESCE(NULLIF($4, ''), postal_code),
		   lat                = COALESCE($5, lat),
		   lng                = COALESCE($6, lng),
		   opening_hours      = COALESCE($7, opening_hours),
		   permanently_closed = permanently_closed OR $8,
		   temporarily_closed = temporarily_closed OR $9
		 WHERE id = $10`,
		p.Address, p.City, p.Neighborhood, p.PostalCode,
		lat, lng, hoursJSON, p.PermanentlyClosed, p.TemporarilyClosed, restaurantID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: attach profile %s", restaurantID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("restaurant not found: %s", restaurantID)
	}
	return nil
}

var menuColumns = []string{
	"id", "restaurant_id", "menu_title", "menu_variant",
	"menu_price", "menu_price_min", "menu_price_max", "currency", "menu_raw_text",
}

// menuUpdateCols excludes menu_raw_text: raw scraped text is immutable once
// inserted, re-ingestion only refreshes pricing.
var menuUpdateCols = []string{"menu_price", "menu_price_min", "menu_price_max", "currency"}

func (s *PostgresStore) UpsertMenus(ctx context.Context, menus []model.MenuVariant) (int64, error) {
	if len(menus) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(menus))
	for _, m := range menus {
		id := m.ID
		if id == "" {
			id = uuid.New().String()
		}
		currency := m.Currency
		if currency == "" {
			currency = "CAD"
		}
		rows = append(rows, []any{
			id, m.RestaurantID, m.Title, m.Variant,
			nullIfEmpty(m.Price), m.PriceMin, m.PriceMax, currency, m.RawText,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "menus",
		Columns:      menuColumns,
		ConflictKeys: []string{"restaurant_id", "menu_title", "menu_variant"},
		UpdateCols:   menuUpdateCols,
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert menus")
	}
	return n, nil
}

func (s *PostgresStore) ListMenus(ctx context.Context, restaurantID string) ([]model.MenuVariant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, restaurant_id, menu_title, menu_variant, menu_price, menu_price_min,
		        menu_price_max, currency, menu_raw_text
		 FROM menus WHERE restaurant_id = $1
		 ORDER BY menu_title, menu_variant`,
		restaurantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list menus")
	}
	defer rows.Close()
	return collectMenus(rows)
}

func (s *PostgresStore) ListMenusMissingTags(ctx context.Context, modelID string, limit int) ([]model.MenuVariant, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT m.id, m.restaurant_id, m.menu_title, m.menu_variant, m.menu_price,
		        m.menu_price_min, m.menu_price_max, m.currency, m.menu_raw_text
		 FROM menus m
		 WHERE NOT EXISTS (
		   SELECT 1 FROM menu_tags t WHERE t.menu_id = m.id AND t.model = $1
		 )
		 ORDER BY m.restaurant_id, m.menu_title, m.menu_variant
		 LIMIT $2`,
		modelID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list menus missing tags")
	}
	defer rows.Close()
	return collectMenus(rows)
}

const tagColumns = `id, menu_id, model, fingerprint, contains_pork, contains_alcohol,
	contains_non_halal_ingredients, has_seafood_option, has_vegetarian_option,
	course_coverage, halal_friendly_menu, halal_friendly_dishes, confidence, evidence_snippets`

func (s *PostgresStore) GetTagSet(ctx context.Context, menuID, modelID, fingerprint string) (*model.MenuTagSet, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tagColumns+` FROM menu_tags
		 WHERE menu_id = $1 AND model = $2 AND fingerprint = $3`,
		menuID, modelID, fingerprint,
	)
	ts, err := scanTagSet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get tag set")
	}
	return ts, nil
}

func (s *PostgresStore) InsertTagSet(ctx context.Context, ts model.MenuTagSet) error {
	if ts.ID == "" {
		ts.ID = uuid.New().String()
	}

	dishesJSON, err := json.Marshal(ts.HalalDishes)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal halal dishes")
	}
	snippetsJSON, err := json.Marshal(ts.EvidenceSnippets)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal evidence snippets")
	}

	// Concurrent writes for the same fingerprint carry identical content,
	// so losing the conflict race is a no-op rather than an error.
	_, err = s.pool.Exec(ctx,
		`INSERT INTO menu_tags (id, menu_id, model, fingerprint, contains_pork, contains_alcohol,
		   contains_non_halal_ingredients, has_seafood_option, has_vegetarian_option,
		   course_coverage, halal_friendly_menu, halal_friendly_dishes, confidence, evidence_snippets)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (menu_id, model, fingerprint) DO NOTHING`,
		ts.ID, ts.MenuID, ts.Model, ts.Fingerprint,
		string(ts.ContainsPork), string(ts.ContainsAlcohol), string(ts.ContainsNonHalalIngredients),
		string(ts.HasSeafoodOption), string(ts.HasVegetarianOption),
		nullIfEmpty(string(ts.CourseCoverage)), string(ts.HalalFriendlyMenu),
		dishesJSON, ts.Confidence, snippetsJSON,
	)
	return eris.Wrap(err, "postgres: insert tag set")
}

func (s *PostgresStore) ListTagSets(ctx context.Context, restaurantID, modelID string) ([]model.MenuTagSet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.id, t.menu_id, t.model, t.fingerprint, t.contains_pork, t.contains_alcohol,
		        t.contains_non_halal_ingredients, t.has_seafood_option, t.has_vegetarian_option,
		        t.course_coverage, t.halal_friendly_menu, t.halal_friendly_dishes, t.confidence, t.evidence_snippets
		 FROM menu_tags t
		 JOIN menus m ON m.id = t.menu_id
		 WHERE m.restaurant_id = $1 AND t.model = $2`,
		restaurantID, modelID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tag sets")
	}
	defer rows.Close()

	var out []model.MenuTagSet
	for rows.Next() {
		ts, err := scanTagSet(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan tag set")
		}
		out = append(out, *ts)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list tag sets iterate")
}

func (s *PostgresStore) UpsertHalalSource(ctx context.Context, rec model.HalalSourceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO halal_sources (id, restaurant_id, source_name, source_url, status, evidence_snippet, confidence)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (restaurant_id, source_name) DO UPDATE SET
		   source_url = EXCLUDED.source_url,
		   status = EXCLUDED.status,
		   evidence_snippet = EXCLUDED.evidence_snippet,
		   confidence = EXCLUDED.confidence`,
		rec.ID, rec.RestaurantID, rec.SourceName, nullIfEmpty(rec.SourceURL),
		string(rec.Status), nullIfEmpty(rec.EvidenceSnippet), rec.Confidence,
	)
	return eris.Wrap(err, "postgres: upsert halal source")
}

func (s *PostgresStore) ListHalalSources(ctx context.Context, restaurantID string) ([]model.HalalSourceRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, restaurant_id, source_name, source_url, status, evidence_snippet, confidence
		 FROM halal_sources WHERE restaurant_id = $1 ORDER BY source_name`,
		restaurantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list halal sources")
	}
	defer rows.Close()

	var out []model.HalalSourceRecord
	for rows.Next() {
		var rec model.HalalSourceRecord
		var sourceURL, evidence, status *string
		if err := rows.Scan(&rec.ID, &rec.RestaurantID, &rec.SourceName, &sourceURL,
			&status, &evidence, &rec.Confidence); err != nil {
			return nil, eris.Wrap(err, "postgres: scan halal source")
		}
		if sourceURL != nil {
			rec.SourceURL = *sourceURL
		}
		if evidence != nil {
			rec.EvidenceSnippet = *evidence
		}
		if status != nil {
			rec.Status = model.SourceStatus(*status)
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list halal sources iterate")
}

func (s *PostgresStore) ListOverrides(ctx context.Context) ([]model.MatchOverride, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, dineout_name, vancouverfoodies_name, notes FROM match_overrides`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list overrides")
	}
	defer rows.Close()

	var out []model.MatchOverride
	for rows.Next() {
		var o model.MatchOverride
		var notes *string
		if err := rows.Scan(&o.ID, &o.DineoutName, &o.SourceName, &notes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan override")
		}
		if notes != nil {
			o.Notes = *notes
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list overrides iterate")
}

func (s *PostgresStore) AddOverride(ctx context.Context, o model.MatchOverride) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO match_overrides (id, dineout_name, vancouverfoodies_name, notes)
		 VALUES ($1, $2, $3, $4)`,
		o.ID, o.DineoutName, o.SourceName, nullIfEmpty(o.Notes),
	)
	return eris.Wrap(err, "postgres: add override")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRestaurant(row scannable) (*model.Restaurant, error) {
	var r model.Restaurant
	var dineoutURL, address, city, neighborhood, postal *string
	var lat, lng *float64
	var hoursJSON []byte

	err := row.Scan(&r.ID, &r.Name, &r.Slug, &dineoutURL, &address, &city,
		&neighborhood, &postal, &lat, &lng, &hoursJSON,
		&r.PermanentlyClosed, &r.TemporarilyClosed, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	if dineoutURL != nil {
		r.DineoutURL = *dineoutURL
	}
	if address != nil {
		r.Address = *address
	}
	if city != nil {
		r.City = *city
	}
	if neighborhood != nil {
		r.Neighborhood = *neighborhood
	}
	if postal != nil {
		r.PostalCode = *postal
	}
	if lat != nil && lng != nil {
		r.Coordinates = &model.Coordinates{Lat: *lat, Lng: *lng}
	}
	if len(hoursJSON) > 0 {
		if err := json.Unmarshal(hoursJSON, &r.OpeningHours); err != nil {
			return nil, eris.Wrap(err, "unmarshal opening hours")
		}
	}
	return &r, nil
}

func collectMenus(rows pgx.Rows) ([]model.MenuVariant, error) {
	var out []model.MenuVariant
	for rows.Next() {
		var m model.MenuVariant
		var price, currency *string
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Title, &m.Variant,
			&price, &m.PriceMin, &m.PriceMax, &currency, &m.RawText); err != nil {
			return nil, eris.Wrap(err, "postgres: scan menu")
		}
		if price != nil {
			m.Price = *price
		}
		if currency != nil {
			m.Currency = *currency
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: menus iterate")
}

func scanTagSet(row scannable) (*model.MenuTagSet, error) {
	var ts model.MenuTagSet
	var pork, alcohol, nonHalal, seafood, veg, friendly string
	var coverage *string
	var dishesJSON, snippetsJSON []byte

	err := row.Scan(&ts.ID, &ts.MenuID, &ts.Model, &ts.Fingerprint,
		&pork, &alcohol, &nonHalal, &seafood, &veg,
		&coverage, &friendly, &dishesJSON, &ts.Confidence, &snippetsJSON)
	if err != nil {
		return nil, err
	}

	ts.ContainsPork = model.TagValue(pork)
	ts.ContainsAlcohol = model.TagValue(alcohol)
	ts.ContainsNonHalalIngredients = model.TagValue(nonHalal)
	ts.HasSeafoodOption = model.TagValue(seafood)
	ts.HasVegetarianOption = model.TagValue(veg)
	ts.HalalFriendlyMenu = model.TagValue(friendly)
	if coverage != nil {
		ts.CourseCoverage = model.CourseCoverage(*coverage)
	}
	if len(dishesJSON) > 0 {
		if err := json.Unmarshal(dishesJSON, &ts.HalalDishes); err != nil {
			return nil, eris.Wrap(err, "unmarshal halal dishes")
		}
	}
	if len(snippetsJSON) > 0 {
		if err := json.Unmarshal(snippetsJSON, &ts.EvidenceSnippets); err != nil {
			return nil, eris.Wrap(err, "unmarshal evidence snippets")
		}
	}
	return &ts, nil
}

func marshalHours(hours []model.DayHours) ([]byte, error) {
	if len(hours) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(hours)
	return b, eris.Wrap(err, "marshal opening hours")
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
