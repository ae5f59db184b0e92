package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/meetbook/internal/config"
	"github.com/teemow/meetbook/internal/logging"
)

// rootCmd represents the base command for the meetbook application
var rootCmd = &cobra.Command{
	Use:   "meetbook",
	Short: "Schedules meetings with Google Meet links",
	Long: `meetbook accepts meeting requests, creates Google Calendar events with
Google Meet conferences for them and emails the requester and administrators.

When Google access is unavailable a placeholder Meet link is generated so
requests are never lost. Operators can regenerate links later.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

var (
	envFile   string
	logLevel  string
	logFormat string
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "meetbook version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Environment file loaded before reading configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error. Overrides LOG_LEVEL.")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json. Overrides LOG_FORMAT.")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newMeetingsCmd())
	rootCmd.AddCommand(newAdminTokenCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig reads the configuration and applies the global flag overrides.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
