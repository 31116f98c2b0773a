package ingest

import (
	"context"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/model"
	"github.com/vanhalal/halal-cli/internal/store"
)

// DineOutReport summarizes one Dine Out CSV load.
type DineOutReport struct {
	Restaurants int
	Menus       int64
	Skipped     int
}

// DineOutLoader ingests the Dine Out scraper's CSV export. The festival
// listing is the canonical restaurant set: every other source resolves
// against the restaurants created here.
type DineOutLoader struct {
	store  store.Store
	logger *zap.Logger
}

func NewDineOutLoader(s store.Store, logger *zap.Logger) *DineOutLoader {
	if logger == nil {
		logger = zap.L()
	}
	return &DineOutLoader{store: s, logger: logger}
}

// Load streams the CSV and upserts restaurants and menu variants. Rows
// missing a restaurant name or menu title are skipped and logged, never
// fatal. Restaurants are keyed by detail-page URL first so a renamed
// listing keeps its identity, then by slug.
func (l *DineOutLoader) Load(ctx context.Context, r io.Reader) (DineOutReport, error) {
	recCh, errCh := StreamCSV(ctx, r, CSVOptions{LazyQuotes: true})

	var report DineOutReport
	slugger := NewSlugger()
	seenIDs := make(map[string]string) // detail URL or slug -> restaurant ID
	var pendingMenus []model.MenuVariant

	existing, err := l.store.ListRestaurants(ctx)
	if err != nil {
		return report, eris.Wrap(err, "ingest: list existing restaurants")
	}
	for _, e := range existing {
		slugger.Reserve(e.Slug)
	}

	for rec := range recCh {
		name := rec["restaurant_name"]
		title := rec["menu_title"]
		if name == "" || title == "" {
			report.Skipped++
			l.logger.Warn("skipping malformed dine out row",
				zap.String("restaurant_name", name),
				zap.String("menu_title", title))
			continue
		}

		url := rec["restaurant_page_url"]
		restaurantID, err := l.resolveRestaurant(ctx, name, url, slugger, seenIDs, &report)
		if err != nil {
			return report, err
		}

		variant := 1
		if v, err := strconv.Atoi(rec["menu_variant"]); err == nil && v > 0 {
			variant = v
		}
		lo, hi := ParsePriceRange(rec["menu_price"])
		pendingMenus = append(pendingMenus, model.MenuVariant{
			RestaurantID: restaurantID,
			Title:        title,
			Variant:      variant,
			Price:        rec["menu_price"],
			PriceMin:     lo,
			PriceMax:     hi,
			Currency:     rec["currency"],
			RawText:      rec["menu_raw_text"],
		})
	}
	if err := <-errCh; err != nil {
		return report, eris.Wrap(err, "ingest: dine out csv")
	}

	n, err := l.store.UpsertMenus(ctx, pendingMenus)
	if err != nil {
		return report, err
	}
	report.Menus = n

	l.logger.Info("dine out ingest complete",
		zap.Int("restaurants", report.Restaurants),
		zap.Int64("menus", report.Menus),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (l *DineOutLoader) resolveRestaurant(ctx context.Context, name, url string, slugger *Slugger, seenIDs map[string]string, report *DineOutReport) (string, error) {
	key := url
	if key == "" {
		key = Slugify(name)
	}
	if id, ok := seenIDs[key]; ok {
		return id, nil
	}

	if url != "" {
		known, err := l.store.GetRestaurantByURL(ctx, url)
		if err != nil {
			return "", eris.Wrap(err, "ingest: lookup by url")
		}
		if known != nil {
			seenIDs[key] = known.ID
			return known.ID, nil
		}
	} else {
		// No detail URL to key on: a re-run recomputes the same slug, so
		// reuse the stored row instead of minting a suffixed duplicate.
		known, err := l.store.GetRestaurantBySlug(ctx, key)
		if err != nil {
			return "", eris.Wrap(err, "ingest: lookup by slug")
		}
		if known != nil {
			seenIDs[key] = known.ID
			return known.ID, nil
		}
	}

	created, err := l.store.UpsertRestaurant(ctx, model.Restaurant{
		Name:       name,
		Slug:       slugger.Unique(name),
		DineoutURL: url,
		City:       "Vancouver",
	})
	if err != nil {
		return "", err
	}
	seenIDs[key] = created.ID
	report.Restaurants++
	return created.ID, nil
}
