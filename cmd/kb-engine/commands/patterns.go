package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-kb/internal/services"
)

var patternsFlags struct {
	project string
	pack    string
}

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List a project's pattern catalog, optionally applying a pattern pack first",
	RunE:  runPatterns,
}

func init() {
	patternsCmd.Flags().StringVar(&patternsFlags.project, "project", "", "Project whose catalog to list")
	patternsCmd.Flags().StringVar(&patternsFlags.pack, "pack", "", "YAML pattern pack to upsert before listing")
	_ = patternsCmd.MarkFlagRequired("project")
}

func runPatterns(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pack := patternsFlags.pack
	if pack == "" {
		pack = cfg.Patterns.PackPath
	}

	ctx := cmd.Context()
	svc, closeFn, logger, err := openService(ctx, cfg, services.Options{})
	if err != nil {
		return err
	}
	defer closeFn()

	if pack != "" {
		applied, err := svc.ApplyPack(ctx, patternsFlags.project, pack)
		if err != nil {
			return err
		}
		logger.Info("pattern pack applied", slog.String("path", pack), slog.Int("patterns", applied))
	}

	all, err := svc.ListPatterns(ctx, patternsFlags.project)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), all)
}
