package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/vanhalal/halal-cli/internal/model"
)

// SQLiteStore implements Store on a local SQLite file. It is the default
// backend for single-machine runs and keeps the CLI usable without Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a SQLite database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: open %s", path)
	}

	// Single writer; WAL keeps readers unblocked during ingest.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS restaurants (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	slug               TEXT NOT NULL UNIQUE,
	dineout_url        TEXT UNIQUE,
	address            TEXT,
	city               TEXT,
	neighborhood       TEXT,
	postal_code        TEXT,
	lat                REAL,
	lng                REAL,
	opening_hours      TEXT,
	permanently_closed INTEGER NOT NULL DEFAULT 0,
	temporarily_closed INTEGER NOT NULL DEFAULT 0,
	created_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS menus (
	id             TEXT PRIMARY KEY,
	restaurant_id  TEXT NOT NULL REFERENCES restaurants(id),
	menu_title     TEXT NOT NULL,
	menu_variant   INTEGER NOT NULL DEFAULT 1,
	menu_price     TEXT,
	menu_price_min REAL,
	menu_price_max REAL,
	currency       TEXT NOT NULL DEFAULT 'CAD',
	menu_raw_text  TEXT NOT NULL,
	UNIQUE (restaurant_id, menu_title, menu_variant)
);

CREATE TABLE IF NOT EXISTS menu_tags (
	id                             TEXT PRIMARY KEY,
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
	halal_friendly_dishes          TEXT,
	confidence                     REAL NOT NULL DEFAULT 0,
	evidence_snippets              TEXT,
	created_at                     TEXT NOT NULL DEFAULT (datetime('now')),
	UNIQUE (menu_id, model, fingerprint)
);

CREATE TABLE IF NOT EXISTS halal_sources (
	id               TEXT PRIMARY KEY,
	restaurant_id    TEXT NOT NULL REFERENCES restaurants(id),
	source_name      TEXT NOT NULL,
	source_url       TEXT,
	status           TEXT NOT NULL DEFAULT 'unknown',
	evidence_snippet TEXT,
	confidence       REAL NOT NULL DEFAULT 0,
	UNIQUE (restaurant_id, source_name)
);

CREATE TABLE IF NOT EXISTS match_overrides (
	id                    TEXT PRIMARY KEY,
	dineout_name          TEXT NOT NULL,
	vancouverfoodies_name TEXT NOT NULL,
	notes                 TEXT
);

CREATE INDEX IF NOT EXISTS idx_menus_restaurant_id ON menus(restaurant_id);
CREATE INDEX IF NOT EXISTS idx_menu_tags_menu_id ON menu_tags(menu_id);
CREATE INDEX IF NOT EXISTS idx_halal_sources_restaurant_id ON halal_sources(restaurant_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return eris.Wrap(s.db.Close(), "sqlite: close")
}

func (s *SQLiteStore) UpsertRestaurant(ctx context.Context, r model.Restaurant) (*model.Restaurant, error) {
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO restaurants (id, name, slug, dineout_url, address, city, neighborhood, postal_code,
		   lat, lng, opening_hours, permanently_closed, temporarily_closed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (slug) DO NOTHING`,
		r.ID, r.Name, r.Slug, nullIfEmpty(r.DineoutURL), nullIfEmpty(r.Address),
		nullIfEmpty(r.City), nullIfEmpty(r.Neighborhood), nullIfEmpty(r.PostalCode),
		lat, lng, nullableJSON(hoursJSON), boolInt(r.PermanentlyClosed), boolInt(r.TemporarilyClosed),
		r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert restaurant %s", r.Slug)
	}

	return s.GetRestaurantBySlug(ctx, r.Slug)
}

func (s *SQLiteStore) GetRestaurantBySlug(ctx context.Context, slug string) (*model.Restaurant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE slug = ?`, slug)
	r, err := scanSQLiteRestaurant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get restaurant by slug %s", slug)
	}
	return r, nil
}

func (s *SQLiteStore) GetRestaurantByURL(ctx context.Context, dineoutURL string) (*model.Restaurant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE dineout_url = ?`, dineoutURL)
	r, err := scanSQLiteRestaurant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get restaurant by url")
	}
	return r, nil
}

func (s *SQLiteStore) ListRestaurants(ctx context.Context) ([]model.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list restaurants")
	}
	defer rows.Close()

	var out []model.Restaurant
	for rows.Next() {
		r, err := scanSQLiteRestaurant(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan restaurant")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list restaurants iterate")
}

func (s *SQLiteStore) AttachProfile(ctx context.Context, restaurantID string, p model.Restaurant) error {
	hoursJSON, err := marshalHours(p.OpeningHours)
	if err != nil {
		return err
	}
	var lat, lng *float64
	if p.Coordinates != nil {
		lat, lng = &p.Coordinates.Lat, &p.Coordinates.Lng
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE restaurants SET
		   address            = COALESCE(NULLIF(?, ''), address),
		   city               = COALESCE(NULLIF(?, ''), city),
		   neighborhood       = COALESCE(NULLIF(?, ''), neighborhood),
		   postal_code        = COALESCE(NULLIF(?, ''), postal_code),
		   lat                = COALESCE(?, lat),
		   lng                = COALESCE(?, lng),
		   opening_hours      = COALESCE(?, opening_hours),
		   permanently_closed = permanently_closed OR ?,
		   temporarily_closed = temporarily_closed OR ?
		 WHERE id = ?`,
		p.Address, p.City, p.Neighborhood, p.PostalCode,
		lat, lng, nullableJSON(hoursJSON), boolInt(p.PermanentlyClosed), boolInt(p.TemporarilyClosed),
		restaurantID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: attach profile %s", restaurantID)
	}
	return checkRowsAffected(res, restaurantID)
}

func (s *SQLiteStore) UpsertMenus(ctx context.Context, menus []model.MenuVariant) (int64, error) {
	if len(menus) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert menus")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO menus (id, restaurant_id, menu_title, menu_variant, menu_price,
		   menu_price_min, menu_price_max, currency, menu_raw_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (restaurant_id, menu_title, menu_variant) DO UPDATE SET
		   menu_price = excluded.menu_price,
		   menu_price_min = excluded.menu_price_min,
		   menu_price_max = excluded.menu_price_max,
		   currency = excluded.currency`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert menus")
	}
	defer stmt.Close()

	var total int64
	for _, m := range menus {
		id := m.ID
		if id == "" {
			id = uuid.New().String()
		}
		currency := m.Currency
		if currency == "" {
			currency = "CAD"
		}
		res, err := stmt.ExecContext(ctx,
			id, m.RestaurantID, m.Title, m.Variant,
			nullIfEmpty(m.Price), m.PriceMin, m.PriceMax, currency, m.RawText,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert menu %s/%d", m.Title, m.Variant)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert menus")
	}
	return total, nil
}

func (s *SQLiteStore) ListMenus(ctx context.Context, restaurantID string) ([]model.MenuVariant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, restaurant_id, menu_title, menu_variant, menu_price, menu_price_min,
		        menu_price_max, currency, menu_raw_text
		 FROM menus WHERE restaurant_id = ?
		 ORDER BY menu_title, menu_variant`,
		restaurantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list menus")
	}
	defer rows.Close()
	return collectSQLiteMenus(rows)
}

func (s *SQLiteStore) ListMenusMissingTags(ctx context.Context, modelID string, limit int) ([]model.MenuVariant, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.restaurant_id, m.menu_title, m.menu_variant, m.menu_price,
		        m.menu_price_min, m.menu_price_max, m.currency, m.menu_raw_text
		 FROM menus m
		 WHERE NOT EXISTS (
		   SELECT 1 FROM menu_tags t WHERE t.menu_id = m.id AND t.model = ?
		 )
		 ORDER BY m.restaurant_id, m.menu_title, m.menu_variant
		 LIMIT ?`,
		modelID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list menus missing tags")
	}
	defer rows.Close()
	return collectSQLiteMenus(rows)
}

func (s *SQLiteStore) GetTagSet(ctx context.Context, menuID, modelID, fingerprint string) (*model.MenuTagSet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM menu_tags
		 WHERE menu_id = ? AND model = ? AND fingerprint = ?`,
		menuID, modelID, fingerprint,
	)
	ts, err := scanTagSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get tag set")
	}
	return ts, nil
}

func (s *SQLiteStore) InsertTagSet(ctx context.Context, ts model.MenuTagSet) error {
	if ts.ID == "" {
		ts.ID = uuid.New().String()
	}
	dishesJSON, err := json.Marshal(ts.HalalDishes)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal halal dishes")
	}
	snippetsJSON, err := json.Marshal(ts.EvidenceSnippets)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal evidence snippets")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO menu_tags (id, menu_id, model, fingerprint, contains_pork, contains_alcohol,
		   contains_non_halal_ingredients, has_seafood_option, has_vegetarian_option,
		   course_coverage, halal_friendly_menu, halal_friendly_dishes, confidence, evidence_snippets)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (menu_id, model, fingerprint) DO NOTHING`,
		ts.ID, ts.MenuID, ts.Model, ts.Fingerprint,
		string(ts.ContainsPork), string(ts.ContainsAlcohol), string(ts.ContainsNonHalalIngredients),
		string(ts.HasSeafoodOption), string(ts.HasVegetarianOption),
		nullIfEmpty(string(ts.CourseCoverage)), string(ts.HalalFriendlyMenu),
		string(dishesJSON), ts.Confidence, string(snippetsJSON),
	)
	return eris.Wrap(err, "sqlite: insert tag set")
}

func (s *SQLiteStore) ListTagSets(ctx context.Context, restaurantID, modelID string) ([]model.MenuTagSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.menu_id, t.model, t.fingerprint, t.contains_pork, t.contains_alcohol,
		        t.contains_non_halal_ingredients, t.has_seafood_option, t.has_vegetarian_option,
		        t.course_coverage, t.halal_friendly_menu, t.halal_friendly_dishes, t.confidence, t.evidence_snippets
		 FROM menu_tags t
		 JOIN menus m ON m.id = t.menu_id
		 WHERE m.restaurant_id = ? AND t.model = ?`,
		restaurantID, modelID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tag sets")
	}
	defer rows.Close()

	var out []model.MenuTagSet
	for rows.Next() {
		ts, err := scanTagSet(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tag set")
		}
		out = append(out, *ts)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list tag sets iterate")
}

func (s *SQLiteStore) UpsertHalalSource(ctx context.Context, rec model.HalalSourceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO halal_sources (id, restaurant_id, source_name, source_url, status, evidence_snippet, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (restaurant_id, source_name) DO UPDATE SET
		   source_url = excluded.source_url,
		   status = excluded.status,
		   evidence_snippet = excluded.evidence_snippet,
		   confidence = excluded.confidence`,
		rec.ID, rec.RestaurantID, rec.SourceName, nullIfEmpty(rec.SourceURL),
		string(rec.Status), nullIfEmpty(rec.EvidenceSnippet), rec.Confidence,
	)
	return eris.Wrap(err, "sqlite: upsert halal source")
}

func (s *SQLiteStore) ListHalalSources(ctx context.Context, restaurantID string) ([]model.HalalSourceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, restaurant_id, source_name, source_url, status, evidence_snippet, confidence
		 FROM halal_sources WHERE restaurant_id = ? ORDER BY source_name`,
		restaurantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list halal sources")
	}
	defer rows.Close()

	var out []model.HalalSourceRecord
	for rows.Next() {
		var rec model.HalalSourceRecord
		var sourceURL, evidence, status sql.NullString
		if err := rows.Scan(&rec.ID, &rec.RestaurantID, &rec.SourceName, &sourceURL,
			&status, &evidence, &rec.Confidence); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan halal source")
		}
		rec.SourceURL = sourceURL.String
		rec.EvidenceSnippet = evidence.String
		rec.Status = model.SourceStatus(status.String)
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list halal sources iterate")
}

func (s *SQLiteStore) ListOverrides(ctx context.Context) ([]model.MatchOverride, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dineout_name, vancouverfoodies_name, notes FROM match_overrides`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list overrides")
	}
	defer rows.Close()

	var out []model.MatchOverride
	for rows.Next() {
		var o model.MatchOverride
		var notes sql.NullString
		if err := rows.Scan(&o.ID, &o.DineoutName, &o.SourceName, &notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan override")
		}
		o.Notes = notes.String
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list overrides iterate")
}

func (s *SQLiteStore) AddOverride(ctx context.Context, o model.MatchOverride) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO match_overrides (id, dineout_name, vancouverfoodies_name, notes)
		 VALUES (?, ?, ?, ?)`,
		o.ID, o.DineoutName, o.SourceName, nullIfEmpty(o.Notes),
	)
	return eris.Wrap(err, "sqlite: add override")
}

// helpers

func scanSQLiteRestaurant(row scannable) (*model.Restaurant, error) {
	var r model.Restaurant
	var dineoutURL, address, city, neighborhood, postal, hoursJSON sql.NullString
	var lat, lng sql.NullFloat64
	var permClosed, tempClosed int
	var createdAt string

	err := row.Scan(&r.ID, &r.Name, &r.Slug, &dineoutURL, &address, &city,
		&neighborhood, &postal, &lat, &lng, &hoursJSON,
		&permClosed, &tempClosed, &createdAt)
	if err != nil {
		return nil, err
	}

	r.DineoutURL = dineoutURL.String
	r.Address = address.String
	r.City = city.String
	r.Neighborhood = neighborhood.String
	r.PostalCode = postal.String
	r.PermanentlyClosed = permClosed != 0
	r.TemporarilyClosed = tempClosed != 0
	if lat.Valid && lng.Valid {
		r.Coordinates = &model.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	if hoursJSON.Valid && hoursJSON.String != "" {
		if err := json.Unmarshal([]byte(hoursJSON.String), &r.OpeningHours); err != nil {
			return nil, eris.Wrap(err, "unmarshal opening hours")
		}
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		r.CreatedAt = t
	}
	return &r, nil
}

func collectSQLiteMenus(rows *sql.Rows) ([]model.MenuVariant, error) {
	var out []model.MenuVariant
	for rows.Next() {
		var m model.MenuVariant
		var price, currency sql.NullString
		var pmin, pmax sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Title, &m.Variant,
			&price, &pmin, &pmax, &currency, &m.RawText); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan menu")
		}
		m.Price = price.String
		m.Currency = currency.String
		if pmin.Valid {
			m.PriceMin = &pmin.Float64
		}
		if pmax.Valid {
			m.PriceMax = &pmax.Float64
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: menus iterate")
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("restaurant not found: %s", id)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableJSON(b []byte) *string {
	if len(b) == 0 {
		return nil
	}
	s := string(b)
	return &s
}
