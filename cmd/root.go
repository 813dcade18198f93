package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/picwrite/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "picwrite",
	Short: "Evaluate a learner's paragraph about an image",
	Long: "picwrite describes an image with a vision model, then grades a paragraph " +
		"the learner wrote about it against the CEFR scale.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides WRITING_EVAL_LOG_LEVEL)")
	rootCmd.PersistentFlags().Bool("pretty", false, "Human-readable console logs instead of JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads configuration and builds the root logger, honouring
// the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("load configuration: %w", err)
	}

	level := cfg.LogLevel
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		level = l
	}
	pretty, _ := cmd.Flags().GetBool("pretty")

	logger, err := newLogger(level, pretty)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

func newLogger(level string, pretty bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	base := zerolog.New(os.Stderr)
	if pretty {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return base.Level(lvl).With().Timestamp().Str("service", "picwrite").Logger(), nil
}
