package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/ingest"
)

var ingestCSVPath string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest the Dine Out menu CSV",
	Long:  "Loads the Dine Out Vancouver scraper's CSV export, creating canonical restaurants and menu variants. Re-running on a newer export is safe: identities and raw menu text are preserved.",
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

		f, err := os.Open(ingestCSVPath)
		if err != nil {
			return eris.Wrap(err, "open csv")
		}
		defer f.Close()

		report, err := ingest.NewDineOutLoader(st, zap.L()).Load(ctx, f)
		if err != nil {
			return eris.Wrap(err, "ingest dineout")
		}

		zap.L().Info("ingest complete",
			zap.Int("restaurants", report.Restaurants),
			zap.Int64("menus", report.Menus),
			zap.Int("skipped", report.Skipped),
			zap.String("csv", ingestCSVPath),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCSVPath, "csv", "", "path to Dine Out CSV export (required)")
	_ = ingestCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(ingestCmd)
}
