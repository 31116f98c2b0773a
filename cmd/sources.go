package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/ingest"
	"github.com/vanhalal/halal-cli/internal/xref"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Attach external halal directory data to restaurants",
}

var placesJSONPath string

var sourcesPlacesCmd = &cobra.Command{
	Use:   "places",
	Short: "Load a halal map snapshot and attach profiles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		f, err := os.Open(placesJSONPath)
		if err != nil {
			return eris.Wrap(err, "open snapshot")
		}
		defer f.Close()

		report, err := ingest.NewPlacesLoader(st, "halal_map", zap.L()).Load(ctx, f)
		if err != nil {
			return eris.Wrap(err, "load places")
		}

		zap.L().Info("places snapshot loaded",
			zap.Int("attached", report.Attached),
			zap.Int("ambiguous", len(report.Ambiguous)),
			zap.Int("unmatched", len(report.Unmatched)),
		)
		for _, name := range report.Ambiguous {
			zap.L().Warn("ambiguous listing needs manual review", zap.String("name", name))
		}
		for _, name := range report.Unmatched {
			zap.L().Info("unmatched listing", zap.String("name", name))
		}
		return nil
	},
}

var xrefJSONPath string

var sourcesXrefCmd = &cobra.Command{
	Use:   "xref",
	Short: "Cross-reference directory listings against restaurants",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		f, err := os.Open(xrefJSONPath)
		if err != nil {
			return eris.Wrap(err, "open listings")
		}
		defer f.Close()

		report, err := xref.NewJob(st, zap.L()).Run(ctx, f)
		if err != nil {
			return eris.Wrap(err, "xref run")
		}

		zap.L().Info("cross-reference complete",
			zap.Int("linked", report.Linked),
			zap.Int("ambiguous", len(report.Ambiguous)),
			zap.Int("unmatched", len(report.Unmatched)),
		)
		for _, amb := range report.Ambiguous {
			names := make([]string, 0, len(amb.Candidates))
			for _, c := range amb.Candidates {
				names = append(names, c.Restaurant.Name)
			}
			zap.L().Warn("ambiguous listing needs an override",
				zap.String("listing", amb.Listing.Name),
				zap.Strings("candidates", names),
			)
		}
		return nil
	},
}

var overridesYAMLPath string

var sourcesOverridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "Seed manual match overrides from a YAML file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		f, err := os.Open(overridesYAMLPath)
		if err != nil {
			return eris.Wrap(err, "open overrides")
		}
		defer f.Close()

		added, err := xref.LoadOverrides(ctx, st, f, zap.L())
		if err != nil {
			return eris.Wrap(err, "load overrides")
		}

		zap.L().Info("overrides seeded", zap.Int("added", added))
		return nil
	},
}

func init() {
	sourcesPlacesCmd.Flags().StringVar(&placesJSONPath, "json", "", "path to halal map snapshot JSON (required)")
	_ = sourcesPlacesCmd.MarkFlagRequired("json")

	sourcesXrefCmd.Flags().StringVar(&xrefJSONPath, "json", "", "path to directory listings JSON (required)")
	_ = sourcesXrefCmd.MarkFlagRequired("json")

	sourcesOverridesCmd.Flags().StringVar(&overridesYAMLPath, "yaml", "", "path to overrides YAML (required)")
	_ = sourcesOverridesCmd.MarkFlagRequired("yaml")

	sourcesCmd.AddCommand(sourcesPlacesCmd, sourcesXrefCmd, sourcesOverridesCmd)
	rootCmd.AddCommand(sourcesCmd)
}
