package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/store"
)

const dineOutCSV = `restaurant_name,restaurant_page_url,menu_title,menu_variant,menu_price,currency,menu_raw_text
Nuba,https://dineout.example/nuba,Dine Out Dinner Menu,1,$45,CAD,"Appetizer: hummus..."
Nuba,https://dineout.example/nuba,Dine Out Dinner Menu,2,$45,CAD,"Appetizer: falafel..."
Zarak,https://dineout.example/zarak,Dinner,1,$35 / $45,CAD,"Family style..."
,https://dineout.example/ghost,Dinner,1,$30,CAD,"orphan row"
Minami,https://dineout.example/minami,,1,$55,CAD,"no title"
`

func TestDineOutLoad(t *testing.T) {
	s := store.NewMemory()
	loader := NewDineOutLoader(s, zap.NewNop())

	report, err := loader.Load(context.Background(), strings.NewReader(dineOutCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Restaurants)
	assert.EqualValues(t, 3, report.Menus)
	assert.Equal(t, 2, report.Skipped)

	nuba, err := s.GetRestaurantBySlug(context.Background(), "nuba")
	require.NoError(t, err)
	require.NotNil(t, nuba)
	assert.Equal(t, "https://dineout.example/nuba", nuba.DineoutURL)
	assert.Equal(t, "Vancouver", nuba.City)

	menus, err := s.ListMenus(context.Background(), nuba.ID)
	require.NoError(t, err)
	require.Len(t, menus, 2)
	assert.Equal(t, 1, menus[0].Variant)
	assert.Equal(t, 2, menus[1].Variant)

	zarak, err := s.GetRestaurantBySlug(context.Background(), "zarak")
	require.NoError(t, err)
	require.NotNil(t, zarak)
	zmenus, err := s.ListMenus(context.Background(), zarak.ID)
	require.NoError(t, err)
	require.Len(t, zmenus, 1)
	require.NotNil(t, zmenus[0].PriceMin)
	assert.Equal(t, 35.0, *zmenus[0].PriceMin)
	assert.Equal(t, 45.0, *zmenus[0].PriceMax)
}

func TestDineOutLoadIsIdempotent(t *testing.T) {
	s := store.NewMemory()
	loader := NewDineOutLoader(s, zap.NewNop())

	_, err := loader.Load(context.Background(), strings.NewReader(dineOutCSV))
	require.NoError(t, err)
	report, err := loader.Load(context.Background(), strings.NewReader(dineOutCSV))
	require.NoError(t, err)

	assert.Zero(t, report.Restaurants, "second load reuses existing restaurants by url")

	all, err := s.ListRestaurants(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDineOutReloadWithoutURLReusesRestaurant(t *testing.T) {
	csv := `restaurant_name,restaurant_page_url,menu_title,menu_variant,menu_price,currency,menu_raw_text
Sushi Garden,,Dinner,1,$30,CAD,"miso, rolls"
`
	s := store.NewMemory()
	loader := NewDineOutLoader(s, zap.NewNop())

	_, err := loader.Load(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	report, err := loader.Load(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Zero(t, report.Restaurants, "second load reuses existing restaurants by slug")

	all, err := s.ListRestaurants(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "sushi-garden", all[0].Slug)
}

func TestDineOutLoadSlugCollision(t *testing.T) {
	csv := `restaurant_name,restaurant_page_url,menu_title,menu_variant,menu_price,currency,menu_raw_text
Sushi Garden,https://dineout.example/sg-burnaby,Dinner,1,$30,CAD,"text a"
Sushi Garden,https://dineout.example/sg-richmond,Dinner,1,$30,CAD,"text b"
`
	s := store.NewMemory()
	loader := NewDineOutLoader(s, zap.NewNop())

	report, err := loader.Load(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Restaurants)

	first, err := s.GetRestaurantBySlug(context.Background(), "sushi-garden")
	require.NoError(t, err)
	require.NotNil(t, first)
	second, err := s.GetRestaurantBySlug(context.Background(), "sushi-garden-2")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStreamCSVShortRows(t *testing.T) {
	csv := "a,b,c\n1,2\n"
	recCh, errCh := StreamCSV(context.Background(), strings.NewReader(csv), CSVOptions{})

	rec := <-recCh
	require.NoError(t, <-errCh)
	assert.Equal(t, "1", rec["a"])
	assert.Equal(t, "2", rec["b"])
	assert.Equal(t, "", rec["c"])
}
