package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-kb/internal/collectors"
	"github.com/miradorstack/mirador-kb/internal/models"
	"github.com/miradorstack/mirador-kb/internal/services"
)

var analyzeFlags struct {
	project    string
	bundle     string
	incidentID string
	k8s        bool
	namespace  string
	gitDir     string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse a project's telemetry and print the result as JSON",
	Long: `Analyse collects logs, commits, metrics, reports and optionally Kubernetes state
for a project, or replays a stored incident with --incident. A pre-assembled telemetry
bundle can be supplied with --bundle.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFlags.project, "project", "", "Project to analyse")
	analyzeCmd.Flags().StringVar(&analyzeFlags.bundle, "bundle", "", "Path to a telemetry bundle JSON file")
	analyzeCmd.Flags().StringVar(&analyzeFlags.incidentID, "incident", "", "Replay a stored incident instead of collecting telemetry")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.k8s, "k8s", false, "Include Kubernetes events and pod status")
	analyzeCmd.Flags().StringVar(&analyzeFlags.namespace, "namespace", "", "Kubernetes namespace")
	analyzeCmd.Flags().StringVar(&analyzeFlags.gitDir, "git", "", "Git repository to read recent commits from")
	_ = analyzeCmd.MarkFlagRequired("project")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if analyzeFlags.bundle != "" && analyzeFlags.incidentID != "" {
		return errors.New("--bundle and --incident are mutually exclusive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if analyzeFlags.gitDir != "" {
		cfg.Collectors.GitDir = analyzeFlags.gitDir
	}

	var opts services.Options
	if analyzeFlags.bundle != "" {
		static, err := collectors.LoadBundleFile(analyzeFlags.bundle)
		if err != nil {
			return err
		}
		opts.Collector = static
	}

	ctx := cmd.Context()
	svc, closeFn, _, err := openService(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := svc.Analyze(ctx, analyzeFlags.project, models.AnalyzeOptions{
		IncludeK8s: analyzeFlags.k8s,
		Namespace:  analyzeFlags.namespace,
		IncidentID: analyzeFlags.incidentID,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}
