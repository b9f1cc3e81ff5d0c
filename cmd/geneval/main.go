// Package main provides the geneval command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "geneval",
		Short: "geneval - gene prediction evaluator",
		Long: `geneval scores a predicted gene annotation against a truth annotation,
exon by exon: perfect, truncated, partial, missed and mispredicted exons,
plus the number of truth genes overlapped by a prediction.

Examples:
  geneval compare --truth reference.gtf --test predicted.gtf
  geneval compare --truth reference.gtf --test predicted.gtf --format yaml -o results.yaml
  geneval show --gtf predicted.gtf --format gff
  geneval runs --db results.duckdb`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ~/.geneval.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console, json")

	rootCmd.AddCommand(
		newCompareCmd(),
		newShowCmd(),
		newRunsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// initConfig reads the config file and GENEVAL_* environment variables.
// A missing default config file is not an error.
func initConfig(cfgFile string) error {
	viper.SetEnvPrefix("geneval")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.SetConfigFile(filepath.Join(home, ".geneval.yaml"))
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// setting returns the value of flag if it was given on the command line,
// otherwise the config value under key, otherwise the flag default.
func setting(cmd *cobra.Command, flag, key string) string {
	f := cmd.Flags().Lookup(flag)
	if f == nil {
		return viper.GetString(key)
	}
	if f.Changed || !viper.IsSet(key) {
		return f.Value.String()
	}
	return viper.GetString(key)
}

// commandLogger builds the logger for a command from --log-level/--log-format
// or the log.level and log.format settings.
func commandLogger(cmd *cobra.Command) (*zap.Logger, error) {
	return newLogger(setting(cmd, "log-level", "log.level"), setting(cmd, "log-format", "log.format"))
}

// newLogger builds a zap logger. JSON output uses the production encoder,
// console output the development one.
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q (want console or json)", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "geneval %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
