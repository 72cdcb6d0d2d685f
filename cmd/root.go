package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/kpimarks/internal/config"
	"github.com/fakeyudi/kpimarks/internal/logger"
	"github.com/fakeyudi/kpimarks/internal/profile"
	"github.com/fakeyudi/kpimarks/internal/session"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg = config.Defaults()

// activeProfile holds the loaded user profile.
var activeProfile *profile.Profile

// appLog is the debug logger; a no-op unless --debug is set.
var appLog = zap.NewNop()

var debug bool

var rootCmd = &cobra.Command{
	Use:           "kpimarks",
	Short:         "Annotate KPI trend charts with events, spans and suggested dates",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initLogger(); err != nil {
			return err
		}

		// First-run: profile missing → run setup wizard automatically.
		// Only do this when stdin is an interactive terminal.
		if !profile.Exists() && term.IsTerminal(os.Stdin.Fd()) {
			fmt.Println()
			fmt.Println("  Welcome to kpimarks! Looks like this is your first time.")
			if err := runSetup(cmd, true); err != nil {
				return err
			}
		}

		// The profile is optional in non-interactive environments.
		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		} else {
			activeProfile = nil
		}

		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)

		// Profile values fill in config gaps.
		if activeProfile != nil {
			defaults := config.Defaults()
			if cfg.DefaultFormat == defaults.DefaultFormat && activeProfile.DefaultFormat != "" {
				cfg.DefaultFormat = activeProfile.DefaultFormat
			}
			if cfg.OutputDir == defaults.OutputDir && activeProfile.OutputDir != "" {
				cfg.OutputDir = activeProfile.OutputDir
			}
			if cfg.DefaultColor == defaults.DefaultColor && activeProfile.Color != "" {
				cfg.DefaultColor = activeProfile.Color
			}
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		appLog.Debug("config loaded",
			zap.String("format", cfg.DefaultFormat),
			zap.String("output_dir", cfg.OutputDir),
			zap.String("mode", cfg.DisplayMode),
			zap.Bool("profile", activeProfile != nil))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync(appLog)
	},
}

// initLogger points appLog at the debug log under the data directory.
func initLogger() error {
	dir, err := session.DataDir()
	if err != nil {
		return err
	}
	l, err := logger.New(debug, filepath.Join(dir, logger.FileName))
	if err != nil {
		return fmt.Errorf("opening debug log: %w", err)
	}
	appLog = l
	return nil
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// GetProfile returns the active user profile.
func GetProfile() *profile.Profile {
	return activeProfile
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write a debug log to the data directory")
}
