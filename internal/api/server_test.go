package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/model"
	"github.com/vanhalal/halal-cli/internal/store"
)

const testModel = "claude-haiku-4-5-20251001"

// newTestServer seeds three restaurants: one halal-friendly with coordinates
// and Friday hours, one tagged-but-not-friendly with coordinates, and one
// with no coordinates or tags.
func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	zarak, err := mem.UpsertRestaurant(ctx, model.Restaurant{
		Name:        "Zarak",
		Slug:        "zarak",
		City:        "Vancouver",
		Coordinates: &model.Coordinates{Lat: 49.2642, Lng: -123.1002},
		OpeningHours: []model.DayHours{
			{Day: "Friday", Hours: "11 am to 10 pm"},
		},
	})
	require.NoError(t, err)

	_, err = mem.UpsertMenus(ctx, []model.MenuVariant{{
		RestaurantID: zarak.ID,
		Title:        "Dinner",
		Variant:      1,
		PriceMin:     floatPtr(55),
		PriceMax:     floatPtr(55),
		RawText:      "Chapli kebab, lamb tikka",
	}})
	require.NoError(t, err)

	menus, err := mem.ListMenus(ctx, zarak.ID)
	require.NoError(t, err)
	require.Len(t, menus, 1)

	ts := model.UncertainTagSet(menus[0].ID, testModel, "fp-zarak")
	ts.HalalFriendlyMenu = model.TagYes
	ts.ContainsPork = model.TagNo
	ts.HalalDishes = []string{"Chapli Kebab"}
	ts.Confidence = 0.9
	require.NoError(t, mem.InsertTagSet(ctx, *ts))

	require.NoError(t, mem.UpsertHalalSource(ctx, model.HalalSourceRecord{
		RestaurantID: zarak.ID,
		SourceName:   "halal_map",
		Status:       model.StatusHalalCertified,
		Confidence:   1.0,
	}))

	bistro, err := mem.UpsertRestaurant(ctx, model.Restaurant{
		Name:        "Ask For Luigi",
		Slug:        "ask-for-luigi",
		City:        "Vancouver",
		Coordinates: &model.Coordinates{Lat: 49.2846, Lng: -123.0895},
	})
	require.NoError(t, err)

	_, err = mem.UpsertMenus(ctx, []model.MenuVariant{{
		RestaurantID: bistro.ID,
		Title:        "Brunch",
		Variant:      1,
		RawText:      "Pork belly, prosecco",
	}})
	require.NoError(t, err)

	bistroMenus, err := mem.ListMenus(ctx, bistro.ID)
	require.NoError(t, err)
	bts := model.UncertainTagSet(bistroMenus[0].ID, testModel, "fp-bistro")
	bts.ContainsPork = model.TagYes
	bts.HalalFriendlyMenu = model.TagNo
	require.NoError(t, mem.InsertTagSet(ctx, *bts))

	_, err = mem.UpsertRestaurant(ctx, model.Restaurant{
		Name: "Mystery Cafe",
		Slug: "mystery-cafe",
	})
	require.NoError(t, err)

	srv := NewServer(mem, testModel, zap.NewNop())
	return srv, mem
}

func floatPtr(f float64) *float64 { return &f }

type listResponse struct {
	Restaurants []model.RestaurantSummary `json:"restaurants"`
	Count       int                       `json:"count"`
}

func doList(t *testing.T, srv *Server, query string) (*httptest.ResponseRecorder, listResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/restaurants"+query, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var body listResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListAllSortedByName(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, body := doList(t, srv, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, body.Count)

	assert.Equal(t, "Ask For Luigi", body.Restaurants[0].Name)
	assert.Equal(t, "Mystery Cafe", body.Restaurants[1].Name)
	assert.Equal(t, "Zarak", body.Restaurants[2].Name)

	// No origin given, so no distances
	for _, s := range body.Restaurants {
		assert.Nil(t, s.DistanceKm)
	}
}

func TestListAggregatesTags(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := doList(t, srv, "")
	byName := summariesByName(body.Restaurants)

	zarak := byName["Zarak"]
	assert.True(t, zarak.Tagged)
	assert.True(t, zarak.HalalFriendly)
	assert.False(t, zarak.ContainsPork)
	assert.Equal(t, []string{"Chapli Kebab"}, zarak.HalalDishes)
	assert.Equal(t, "certified", zarak.HalalSource)

	luigi := byName["Ask For Luigi"]
	assert.True(t, luigi.Tagged)
	assert.False(t, luigi.HalalFriendly)
	assert.True(t, luigi.ContainsPork)

	mystery := byName["Mystery Cafe"]
	assert.False(t, mystery.Tagged)
	assert.False(t, mystery.HalalFriendly)
}

func TestListDistanceSort(t *testing.T) {
	srv, _ := newTestServer(t)

	// Origin next to Zarak
	rec, body := doList(t, srv, "?lat=49.2640&lng=-123.1000")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, body.Count)

	assert.Equal(t, "Zarak", body.Restaurants[0].Name)
	assert.Equal(t, "Ask For Luigi", body.Restaurants[1].Name)
	require.NotNil(t, body.Restaurants[0].DistanceKm)
	require.NotNil(t, body.Restaurants[1].DistanceKm)
	assert.Less(t, *body.Restaurants[0].DistanceKm, *body.Restaurants[1].DistanceKm)

	// Restaurant without coordinates sorts last with no distance
	assert.Equal(t, "Mystery Cafe", body.Restaurants[2].Name)
	assert.Nil(t, body.Restaurants[2].DistanceKm)
}

func TestListRadiusFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, body := doList(t, srv, "?lat=49.2640&lng=-123.1000&radius_km=1")
	require.Equal(t, http.StatusOK, rec.Code)

	// Zarak is within 1km; Luigi (~2.4km) and coordinate-less Mystery Cafe
	// are filtered out.
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Zarak", body.Restaurants[0].Name)
}

func TestListHalalFriendlyFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, body := doList(t, srv, "?halal_friendly=true")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Zarak", body.Restaurants[0].Name)
}

func TestListMenuTypeFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, body := doList(t, srv, "?menu_type=brunch")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Ask For Luigi", body.Restaurants[0].Name)
}

func TestListOpenNowFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	// Friday 2026-09-04 noon Vancouver time: Zarak (11 am to 10 pm) is open,
	// the others have no hours and count as closed.
	srv.now = func() time.Time {
		return time.Date(2026, 9, 4, 12, 0, 0, 0, srv.tz)
	}

	rec, body := doList(t, srv, "?open_now=true")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Zarak", body.Restaurants[0].Name)
	require.NotNil(t, body.Restaurants[0].OpenNow)
	assert.True(t, *body.Restaurants[0].OpenNow)
}

func TestListBadParams(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []string{
		"?lat=49.2",                        // lat without lng
		"?lat=abc&lng=-123.1",              // non-numeric lat
		"?lat=49.2&lng=-123.1&radius_km=0", // non-positive radius
		"?radius_km=5",                     // radius without origin
		"?open_now=maybe",                  // non-boolean
	}
	for _, q := range cases {
		rec, _ := doList(t, srv, q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestGetRestaurantDetail(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/restaurants/zarak", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var detail model.RestaurantDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))

	assert.Equal(t, "Zarak", detail.Restaurant.Name)
	assert.True(t, detail.HalalFriendly)
	require.Len(t, detail.Menus, 1)
	assert.Equal(t, "Dinner", detail.Menus[0].Title)
	require.Len(t, detail.Tags, 1)
	assert.Equal(t, model.TagYes, detail.Tags[0].HalalFriendlyMenu)
	require.Len(t, detail.Sources, 1)
	assert.Equal(t, "halal_map", detail.Sources[0].SourceName)
}

func TestGetRestaurantNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/restaurants/nope", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func summariesByName(summaries []model.RestaurantSummary) map[string]model.RestaurantSummary {
	out := make(map[string]model.RestaurantSummary, len(summaries))
	for _, s := range summaries {
		out[s.Name] = s
	}
	return out
}
