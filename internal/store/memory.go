package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/vanhalal/halal-cli/internal/model"
)

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu          sync.RWMutex
	restaurants map[string]model.Restaurant // keyed by slug
	menus       map[string]model.MenuVariant
	tags        map[string]model.MenuTagSet // keyed by menu_id|model|fingerprint
	sources     map[string]model.HalalSourceRecord
	overrides   []model.MatchOverride
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		restaurants: make(map[string]model.Restaurant),
		menus:       make(map[string]model.MenuVariant),
		tags:        make(map[string]model.MenuTagSet),
		sources:     make(map[string]model.HalalSourceRecord),
	}
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Ping(context.Context) error    { return nil }
func (s *MemoryStore) Close() error                  { return nil }

func (s *MemoryStore) UpsertRestaurant(_ context.Context, r model.Restaurant) (*model.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.restaurants[r.Slug]; ok {
		return &existing, nil
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.restaurants[r.Slug] = r
	return &r, nil
}

func (s *MemoryStore) GetRestaurantBySlug(_ context.Context, slug string) (*model.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.restaurants[slug]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *MemoryStore) GetRestaurantByURL(_ context.Context, dineoutURL string) (*model.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.restaurants {
		if r.DineoutURL == dineoutURL {
			return &r, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListRestaurants(context.Context) ([]model.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Restaurant, 0, len(s.restaurants))
	for _, r := range s.restaurants {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) AttachProfile(_ context.Context, restaurantID string, p model.Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slug, r := range s.restaurants {
		if r.ID != restaurantID {
			continue
		}
		if p.Address != "" {
			r.Address = p.Address
		}
		if p.City != "" {
			r.City = p.City
		}
		if p.Neighborhood != "" {
			r.Neighborhood = p.Neighborhood
		}
		if p.PostalCode != "" {
			r.PostalCode = p.PostalCode
		}
		if p.Coordinates != nil {
			r.Coordinates = p.Coordinates
		}
		if len(p.OpeningHours) > 0 {
			r.OpeningHours = p.OpeningHours
		}
		r.PermanentlyClosed = r.PermanentlyClosed || p.PermanentlyClosed
		r.TemporarilyClosed = r.TemporarilyClosed || p.TemporarilyClosed
		s.restaurants[slug] = r
		return nil
	}
	return eris.Errorf("restaurant not found: %s", restaurantID)
}

func menuKey(m model.MenuVariant) string {
	return strings.Join([]string{m.RestaurantID, m.Title, strconv.Itoa(m.Variant)}, "|")
}

func (s *MemoryStore) UpsertMenus(_ context.Context, menus []model.MenuVariant) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, m := range menus {
		key := menuKey(m)
		if existing, ok := s.menus[key]; ok {
			// raw text is immutable once stored
			m.ID = existing.ID
			m.RawText = existing.RawText
		} else if m.ID == "" {
			m.ID = uuid.New().String()
		}
		s.menus[key] = m
		n++
	}
	return n, nil
}

func (s *MemoryStore) ListMenus(_ context.Context, restaurantID string) ([]model.MenuVariant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.MenuVariant
	for _, m := range s.menus {
		if m.RestaurantID == restaurantID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].Variant < out[j].Variant
	})
	return out, nil
}

func (s *MemoryStore) ListMenusMissingTags(_ context.Context, modelID string, limit int) ([]model.MenuVariant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tagged := make(map[string]bool)
	for _, t := range s.tags {
		if t.Model == modelID {
			tagged[t.MenuID] = true
		}
	}

	var out []model.MenuVariant
	for _, m := range s.menus {
		if !tagged[m.ID] {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func tagKey(menuID, modelID, fingerprint string) string {
	return menuID + "|" + modelID + "|" + fingerprint
}

func (s *MemoryStore) GetTagSet(_ context.Context, menuID, modelID, fingerprint string) (*model.MenuTagSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ts, ok := s.tags[tagKey(menuID, modelID, fingerprint)]; ok {
		return &ts, nil
	}
	return nil, nil
}

func (s *MemoryStore) InsertTagSet(_ context.Context, ts model.MenuTagSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tagKey(ts.MenuID, ts.Model, ts.Fingerprint)
	if _, ok := s.tags[key]; ok {
		return nil
	}
	if ts.ID == "" {
		ts.ID = uuid.New().String()
	}
	s.tags[key] = ts
	return nil
}

func (s *MemoryStore) ListTagSets(_ context.Context, restaurantID, modelID string) ([]model.MenuTagSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	menuIDs := make(map[string]bool)
	for _, m := range s.menus {
		if m.RestaurantID == restaurantID {
			menuIDs[m.ID] = true
		}
	}

	var out []model.MenuTagSet
	for _, t := range s.tags {
		if t.Model == modelID && menuIDs[t.MenuID] {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MenuID < out[j].MenuID })
	return out, nil
}

func (s *MemoryStore) UpsertHalalSource(_ context.Context, rec model.HalalSourceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rec.RestaurantID + "|" + rec.SourceName
	if existing, ok := s.sources[key]; ok {
		rec.ID = existing.ID
	} else if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	s.sources[key] = rec
	return nil
}

func (s *MemoryStore) ListHalalSources(_ context.Context, restaurantID string) ([]model.HalalSourceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.HalalSourceRecord
	for _, rec := range s.sources {
		if rec.RestaurantID == restaurantID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceName < out[j].SourceName })
	return out, nil
}

func (s *MemoryStore) ListOverrides(context.Context) ([]model.MatchOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.MatchOverride(nil), s.overrides...), nil
}

func (s *MemoryStore) AddOverride(_ context.Context, o model.MatchOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	s.overrides = append(s.overrides, o)
	return nil
}
