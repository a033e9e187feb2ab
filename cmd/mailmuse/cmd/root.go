package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nhle/mailmuse/internal/model"
)

var (
	cfgFile  string
	seedPath string
	logFile  string
	verbose  bool
	cfg      *model.AppConfig
	logger   *slog.Logger

	// logOut is closed by Execute once the command returns.
	logOut io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "mailmuse",
	Short: "Terminal inbox with an AI assistant",
	Long: `mailmuse is a terminal inbox for triaging email. It filters and
searches the mailbox, tracks pending and resolved messages, and asks Claude
for summaries and draft replies.

Emails come from the built-in sample inbox, a YAML fixture file or a
directory of .eml files (see --seed). The Anthropic API key is read from
ANTHROPIC_API_KEY or the system keyring; without one, AI actions are
disabled.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, logOut, err = setupLogger(logFile, verbose)
		if err != nil {
			return err
		}

		path := configPath()
		cfg, err = model.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if seedPath != "" {
			cfg.Mailbox.SeedPath = seedPath
		}
		logger.Debug("config loaded", "path", path, "seed", cfg.Mailbox.SeedPath)
		return nil
	},
	RunE: runTUI,
}

// setupLogger writes logs to path so they do not corrupt the terminal UI.
// An empty path discards them.
func setupLogger(path string, debug bool) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), f, nil
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return model.DefaultConfigPath()
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context,
// enabling graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	defer func() {
		if logOut != nil {
			_ = logOut.Close()
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/mailmuse/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&seedPath, "seed", "", "YAML fixture file or directory of .eml files (default: sample inbox)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", model.DefaultLogPath(), "log file; empty disables logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
