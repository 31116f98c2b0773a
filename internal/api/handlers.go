package api

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/aggregate"
	"github.com/vanhalal/halal-cli/internal/geo"
	"github.com/vanhalal/halal-cli/internal/model"
)

// listFilters holds the parsed query parameters for the list endpoint.
type listFilters struct {
	origin        *model.Coordinates
	radiusKm      float64
	openNow       bool
	halalFriendly bool
	menuType      string
}

func parseListFilters(r *http.Request) (listFilters, string) {
	q := r.URL.Query()
	var f listFilters

	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if (latStr == "") != (lngStr == "") {
		return f, "lat and lng must be provided together"
	}
	if latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return f, "invalid lat"
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return f, "invalid lng"
		}
		f.origin = &model.Coordinates{Lat: lat, Lng: lng}
	}

	if v := q.Get("radius_km"); v != "" {
		radius, err := strconv.ParseFloat(v, 64)
		if err != nil || radius <= 0 {
			return f, "invalid radius_km"
		}
		if f.origin == nil {
			return f, "radius_km requires lat and lng"
		}
		f.radiusKm = radius
	}

	if v := q.Get("open_now"); v != "" {
		open, err := strconv.ParseBool(v)
		if err != nil {
			return f, "invalid open_now"
		}
		f.openNow = open
	}

	if v := q.Get("halal_friendly"); v != "" {
		hf, err := strconv.ParseBool(v)
		if err != nil {
			return f, "invalid halal_friendly"
		}
		f.halalFriendly = hf
	}

	f.menuType = strings.ToLower(strings.TrimSpace(q.Get("menu_type")))

	return f, ""
}

func (s *Server) handleListRestaurants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filters, badParam := parseListFilters(r)
	if badParam != "" {
		s.writeError(w, http.StatusBadRequest, badParam)
		return
	}

	restaurants, err := s.store.ListRestaurants(ctx)
	if err != nil {
		s.logger.Error("list restaurants", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := s.now()
	summaries := make([]model.RestaurantSummary, 0, len(restaurants))
	for _, rest := range restaurants {
		summary, err := s.composeSummary(r, rest)
		if err != nil {
			s.logger.Error("compose summary",
				zap.String("slug", rest.Slug),
				zap.Error(err),
			)
			s.writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if filters.origin != nil {
			dist := geo.Distance(*filters.origin, rest.Coordinates)
			if !math.IsInf(dist, 1) {
				summary.DistanceKm = &dist
			}
			if filters.radiusKm > 0 && !geo.WithinRadius(*filters.origin, rest.Coordinates, filters.radiusKm) {
				continue
			}
		}

		open := geo.IsOpenNow(rest, now, s.tz)
		summary.OpenNow = &open
		if filters.openNow && !open {
			continue
		}

		if filters.halalFriendly && !summary.HalalFriendly {
			continue
		}
		if filters.menuType != "" && !containsMenuType(summary.MenuTypes, filters.menuType) {
			continue
		}

		summaries = append(summaries, summary)
	}

	sortSummaries(summaries, filters.origin != nil)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"restaurants": summaries,
		"count":       len(summaries),
	})
}

func (s *Server) handleGetRestaurant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	rest, err := s.store.GetRestaurantBySlug(ctx, slug)
	if err != nil {
		s.logger.Error("get restaurant", zap.String("slug", slug), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rest == nil {
		s.writeError(w, http.StatusNotFound, "restaurant not found")
		return
	}

	menus, err := s.store.ListMenus(ctx, rest.ID)
	if err != nil {
		s.logger.Error("list menus", zap.String("slug", slug), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	tags, err := s.store.ListTagSets(ctx, rest.ID, s.modelID)
	if err != nil {
		s.logger.Error("list tag sets", zap.String("slug", slug), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	sources, err := s.store.ListHalalSources(ctx, rest.ID)
	if err != nil {
		s.logger.Error("list halal sources", zap.String("slug", slug), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	summary := aggregate.Summarize(*rest, menus, tags, sources)
	open := geo.IsOpenNow(*rest, s.now(), s.tz)
	summary.OpenNow = &open

	s.writeJSON(w, http.StatusOK, model.RestaurantDetail{
		RestaurantSummary: summary,
		Restaurant:        *rest,
		Menus:             menus,
		Tags:              tags,
		Sources:           sources,
	})
}

func (s *Server) composeSummary(r *http.Request, rest model.Restaurant) (model.RestaurantSummary, error) {
	ctx := r.Context()

	menus, err := s.store.ListMenus(ctx, rest.ID)
	if err != nil {
		return model.RestaurantSummary{}, err
	}
	tags, err := s.store.ListTagSets(ctx, rest.ID, s.modelID)
	if err != nil {
		return model.RestaurantSummary{}, err
	}
	sources, err := s.store.ListHalalSources(ctx, rest.ID)
	if err != nil {
		return model.RestaurantSummary{}, err
	}

	return aggregate.Summarize(rest, menus, tags, sources), nil
}

func containsMenuType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// sortSummaries orders by distance when an origin was given, otherwise by
// name. Summaries without coordinates sort last.
func sortSummaries(summaries []model.RestaurantSummary, byDistance bool) {
	sort.SliceStable(summaries, func(i, j int) bool {
		if byDistance {
			di, dj := summaries[i].DistanceKm, summaries[j].DistanceKm
			switch {
			case di != nil && dj != nil:
				return *di < *dj
			case di != nil:
				return true
			case dj != nil:
				return false
			}
		}
		return summaries[i].Name < summaries[j].Name
	})
}
