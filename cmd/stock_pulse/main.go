package main

import (
	"fmt"
	"os"
	"strings"

	"stock_pulse/internal/config"
	"stock_pulse/internal/logger"

	"github.com/spf13/cobra"
)

const VersionFile = "version.latest"

var (
	stateDir string
	logLevel string
)

// main is the entry point of the application.
func main() {
	rootCmd := &cobra.Command{
		Use:   "stock_pulse",
		Short: "Stock dashboard with a simulated portfolio",
		Long: `stock_pulse follows a watchlist, overlays live trades on polled quotes
and keeps a simulated buy/sell portfolio with P&L.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "Directory of the persisted records (overrides STATE_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: INFO or DEBUG (overrides LOG_LEVEL)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(execCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig() *config.Config {
	cfg := config.Load()
	cfg.Version = readVersion()
	if stateDir != "" {
		cfg.StateDir = stateDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stock_pulse version %s\n", readVersion())
		},
	}
}

func readVersion() string {
	version, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return strings.TrimSpace(string(version))
}
