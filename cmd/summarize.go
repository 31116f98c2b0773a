package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/vanhalal/halal-cli/internal/aggregate"
	"github.com/vanhalal/halal-cli/internal/model"
)

var summarizeModel string

var summarizeCmd = &cobra.Command{
	Use:   "summarize [slug]",
	Short: "Print aggregated restaurant summaries as JSON",
	Long:  "Composes the read-side view from normalized rows. With no argument every restaurant is summarized; with a slug only that restaurant is.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		modelID := summarizeModel
		if modelID == "" {
			modelID = cfg.Anthropic.Model
		}

		var restaurants []model.Restaurant
		if len(args) == 1 {
			r, err := st.GetRestaurantBySlug(ctx, args[0])
			if err != nil {
				return eris.Wrap(err, "get restaurant")
			}
			if r == nil {
				return eris.Errorf("no restaurant with slug %q", args[0])
			}
			restaurants = []model.Restaurant{*r}
		} else {
			restaurants, err = st.ListRestaurants(ctx)
			if err != nil {
				return eris.Wrap(err, "list restaurants")
			}
		}

		summaries := make([]model.RestaurantSummary, 0, len(restaurants))
		for _, r := range restaurants {
			menus, err := st.ListMenus(ctx, r.ID)
			if err != nil {
				return eris.Wrap(err, "list menus")
			}
			tags, err := st.ListTagSets(ctx, r.ID, modelID)
			if err != nil {
				return eris.Wrap(err, "list tag sets")
			}
			sources, err := st.ListHalalSources(ctx, r.ID)
			if err != nil {
				return eris.Wrap(err, "list halal sources")
			}
			summaries = append(summaries, aggregate.Summarize(r, menus, tags, sources))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeModel, "model", "", "tag model ID to aggregate (default from config)")
	rootCmd.AddCommand(summarizeCmd)
}
