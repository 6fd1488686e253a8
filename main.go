package main

import (
	"fmt"
	"os"

	"github.com/hkipo-research/hkipo/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Global config, loaded before any command runs
var cfg *config.Config

// app is built lazily from cfg by the commands that need upstream access
var app *application

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hkipo",
	Short: "Hong Kong IPO research data tool",
	Long: `hkipo extracts Hong Kong IPO data from public sources: open offerings,
prospectus details, listing history, sponsor track records, index sentiment and
social-media posts. Output is JSON unless a text view is requested.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.LogLevel = level
		}

		runID := config.SetupLogging(cfg)
		logrus.WithFields(logrus.Fields{
			"command": cmd.CommandPath(),
			"run_id":  runID,
		}).Debug("Starting command")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.logMetrics()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (YAML, optional)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(sentimentCmd)
	rootCmd.AddCommand(tweetsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
}

// currentApp builds the service graph on first use
func currentApp() *application {
	if app == nil {
		app = newApplication(cfg)
	}
	return app
}
