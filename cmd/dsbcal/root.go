package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"dsbcal/internal/config"
	"dsbcal/internal/convert"
	appLog "dsbcal/internal/log"
)

var (
	configPath string
	logLevel   string

	// cfg is loaded once in PersistentPreRunE for every subcommand.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dsbcal",
	Short: "Convert DSB train tickets into calendar events",
	Long: `dsbcal reads a DSB ticket (PDF or extracted text), pulls out the journey
and writes it as an iCalendar (.ics) event. It can also serve the same
conversion over HTTP.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default <user config dir>/dsbcal/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	defer appLog.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+describeError(err))
		appLog.Sync()
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		appLog.Warn("could not read .env", "err", err)
	}

	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return fmt.Errorf("locate config: %w", err)
		}
		path = p
	}

	c, err := config.Load(path)
	if err != nil {
		if c == nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		// First-run save failed; defaults are still usable.
		appLog.Warn("could not write default config", "path", path, "err", err)
	}
	if logLevel != "" {
		c.LogLevel = strings.ToLower(logLevel)
	}
	appLog.SetLevel(appLog.Level(strings.ToUpper(c.LogLevel)))
	appLog.Debug("config loaded", "path", path, "timezone", c.Timezone, "command", cmd.Name())

	cfg = c
	return nil
}

func newConverter() (*convert.Converter, error) {
	return convert.New(convert.Options{
		Timezone:  cfg.Timezone,
		ProductID: cfg.ProductID,
		UIDDomain: cfg.UIDDomain,
		Category:  cfg.Category,
	})
}
