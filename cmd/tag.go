package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/enrich"
	"github.com/vanhalal/halal-cli/pkg/anthropic"
)

var (
	tagModel  string
	tagLimit  int
	tagDryRun bool
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Tag untagged menus via Claude",
	Long:  "Selects menus with no tag set for the target model, sends each through the classifier, and caches results by raw-text fingerprint. Already-tagged menus are skipped, so re-running is cheap.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		// A dry run touches only the store, so the API key is not needed.
		mode := "tag"
		if tagDryRun {
			mode = "ingest"
		}
		if err := cfg.Validate(mode); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		modelID := tagModel
		if modelID == "" {
			modelID = cfg.Anthropic.Model
		}

		if tagDryRun {
			menus, err := st.ListMenusMissingTags(ctx, modelID, tagLimit)
			if err != nil {
				return eris.Wrap(err, "tag dry run")
			}
			zap.L().Info("dry run: menus that would be tagged",
				zap.String("model", modelID),
				zap.Int("count", len(menus)))
			for _, m := range menus {
				zap.L().Info("would tag",
					zap.String("menu_id", m.ID),
					zap.String("title", m.Title),
					zap.Int("variant", m.Variant))
			}
			return nil
		}

		client := anthropic.NewClient(cfg.Anthropic.Key)
		tagger := enrich.NewModelTagger(client, modelID, int64(cfg.Anthropic.MaxTokens), zap.L())
		cache := enrich.NewCache(st, tagger, zap.L())

		orch := enrich.NewOrchestrator(st, cache, enrich.OrchestratorConfig{
			ModelID:        modelID,
			Workers:        cfg.Enrich.Workers,
			BatchSize:      cfg.Enrich.BatchSize,
			RequestsPerSec: cfg.Enrich.RequestsPerSec,
			MenuTimeout:    time.Duration(cfg.Enrich.MenuTimeoutSecs) * time.Second,
			MaxAttempts:    cfg.Enrich.MaxAttempts,
		}, zap.L())

		report, err := orch.Run(ctx, tagLimit)
		if err != nil {
			return eris.Wrap(err, "tag run")
		}

		zap.L().Info("tagging complete",
			zap.String("model", modelID),
			zap.Int("selected", report.Selected),
			zap.Int64("tagged", report.Tagged),
			zap.Int64("cache_hits", report.CacheHits),
			zap.Int64("fallbacks", report.Fallbacks),
		)
		return nil
	},
}

func init() {
	tagCmd.Flags().StringVar(&tagModel, "model", "", "target model ID (default from config)")
	tagCmd.Flags().IntVar(&tagLimit, "limit", 0, "max menus to select (0 = no limit)")
	tagCmd.Flags().BoolVar(&tagDryRun, "dry-run", false, "list menus that would be tagged without calling the model")
	rootCmd.AddCommand(tagCmd)
}
