package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/services"
	"github.com/miradorstack/mirador-kb/internal/utils"
)

const Version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "kb-engine",
	Short: "Incident knowledge base and root-cause analysis engine",
	Long: `kb-engine records incidents and fixes per project, keeps a catalog of known
failure patterns, and analyses live telemetry to explain what is going wrong.`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(patternsCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	return cfg, nil
}

// openService wires the knowledge base for one-shot commands, logging to stderr so
// stdout carries only the JSON result.
func openService(ctx context.Context, cfg *config.Config, opts services.Options) (*services.KnowledgeBaseService, func() error, *slog.Logger, error) {
	logger := utils.NewLoggerTo(os.Stderr, cfg.Logging.Level, cfg.Logging.JSON)
	svc, closeFn, err := services.Build(ctx, cfg, logger, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	return svc, closeFn, logger, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
