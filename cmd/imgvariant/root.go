package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lewtec/imgvariant/variant"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imgvariant",
	Short: "Derive resized and shape cut image variants",
	Long: strings.TrimSpace(`
Walk a folder of source images, derive a fixed catalog of resized, square
cropped, grayscale and shape cut variants for each, and store the ones that
changed on the local filesystem and/or an S3 compatible object store.
    `),
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("console", false, "Human readable log output instead of JSON")
}

func loggerFor(cmd *cobra.Command) zerolog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	console, _ := cmd.Flags().GetBool("console")
	return variant.NewLoggerTo(cmd.ErrOrStderr(), level, console)
}

// loadConfig accepts a folder or a config file. A folder without a config
// gets the sample one.
func loadConfig(logger zerolog.Logger, args []string) (*variant.Config, error) {
	arg := "."
	if len(args) > 0 {
		arg = args[0]
	}
	if stat, err := os.Stat(arg); err == nil && stat.IsDir() {
		configFile := filepath.Join(arg, variant.ConfigFileName)
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			logger.Info().Str("path", configFile).Msg("Creating default config")
			if err := createSampleConfig(configFile); err != nil {
				return nil, fmt.Errorf("failed to create config: %w", err)
			}
		}
		arg = configFile
	}
	cfg, err := variant.LoadConfig(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Debug().Str("path", cfg.Path).Msg("config loaded")
	return cfg, nil
}
