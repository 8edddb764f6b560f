package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

var (
	configPath   string
	rootDir      string
	providerName string
	logLevel     string

	cfg    *common.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "certificates-batch",
		Short: "Extract, deduplicate and rename scanned training certificates",
		Long: `certificates-batch walks a certificates root, reads every document with OCR,
asks a language model for the certificate fields, renames files with their dates,
moves duplicates aside and writes a report per folder.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CERT_CONFIG_FILE"), "optional YAML config overlay")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "certificates root directory (overrides CERT_ROOT)")
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "inference provider: openai, anthropic or gemini")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(runCmd, watchCmd, extractCmd, inferCmd)
}

func loadConfig(_ *cobra.Command, _ []string) error {
	cfg = common.LoadConfig()
	if err := cfg.ApplyFile(configPath); err != nil {
		return err
	}
	if rootDir != "" {
		cfg.Batch.Root = rootDir
	}
	if providerName != "" {
		cfg.LLM.Provider = strings.ToLower(providerName)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	return cfg.Validate()
}

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}
