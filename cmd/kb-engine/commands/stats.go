package commands

import (
	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-kb/internal/services"
)

var statsProject string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print knowledge base statistics for a project",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsProject, "project", "", "Project to summarise")
	_ = statsCmd.MarkFlagRequired("project")
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, closeFn, _, err := openService(ctx, cfg, services.Options{})
	if err != nil {
		return err
	}
	defer closeFn()

	stats, err := svc.Stats(ctx, statsProject)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), stats)
}
