package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/inodb/geneval/internal/evaluate"
)

// configKey is a setting read by the commands, with a normalizer that
// rejects values the command would fail on.
type configKey struct {
	key       string
	usage     string
	normalize func(string) (string, error)
}

func anyValue(v string) (string, error) { return v, nil }

func oneOf(allowed ...string) func(string) (string, error) {
	return func(v string) (string, error) {
		v = strings.ToLower(strings.TrimSpace(v))
		if !slices.Contains(allowed, v) {
			return "", fmt.Errorf("want one of %s", strings.Join(allowed, ", "))
		}
		return v, nil
	}
}

var configKeys = []configKey{
	{"compare.format", "report format (text, yaml)", oneOf("text", "yaml")},
	{"compare.strand-policy", "opposite-strand pairs (mismatch, ignore)", func(v string) (string, error) {
		p, err := evaluate.ParseStrandPolicy(v)
		return p.String(), err
	}},
	{"compare.match-policy", "overlapping test exons (first, max-overlap)", func(v string) (string, error) {
		p, err := evaluate.ParseMatchPolicy(v)
		return p.String(), err
	}},
	{"compare.workers", "comparison workers, 0 for all CPUs", func(v string) (string, error) {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return "", fmt.Errorf("want a non-negative integer")
		}
		return strconv.Itoa(n), nil
	}},
	{"compare.exon-feature", "GTF feature read as exons", func(v string) (string, error) {
		if strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("must not be empty")
		}
		return strings.TrimSpace(v), nil
	}},
	{"compare.canonical", "canonical transcript overrides TSV", anyValue},
	{"compare.cache-dir", "parsed annotation cache directory", anyValue},
	{"compare.db", "DuckDB results file, also used by runs", anyValue},
	{"log.level", "debug, info, warn, error", func(v string) (string, error) {
		lvl, err := zapcore.ParseLevel(v)
		return lvl.String(), err
	}},
	{"log.format", "console, json", oneOf("console", "json")},
}

func lookupConfigKey(key string) (configKey, bool) {
	i := slices.IndexFunc(configKeys, func(k configKey) bool { return k.key == key })
	if i < 0 {
		return configKey{}, false
	}
	return configKeys[i], true
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage geneval configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.geneval.yaml.
Values are checked before they are written; "geneval config keys" lists them.`,
		Example: `  geneval config
  geneval config keys
  geneval config set compare.match-policy max-overlap
  geneval config get compare.match-policy`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "keys",
			Short: "List the settings geneval reads",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return listConfigKeys(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Check and store a configuration value",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return setConfig(cmd.OutOrStdout(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print a configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				val := viper.Get(args[0])
				if val == nil {
					return fmt.Errorf("key %q is not set", args[0])
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), val)
				return err
			},
		},
	)
	return cmd
}

func showConfig(w io.Writer) error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		_, err := fmt.Fprintln(w, "# No configuration set. Config file: ~/.geneval.yaml")
		return err
	}
	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func listConfigKeys(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range configKeys {
		val := "-"
		if viper.IsSet(k.key) {
			val = viper.GetString(k.key)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k.key, val, k.usage)
	}
	return tw.Flush()
}

func setConfig(w io.Writer, key, value string) error {
	k, ok := lookupConfigKey(key)
	if !ok {
		return fmt.Errorf("unknown setting %q (see geneval config keys)", key)
	}
	value, err := k.normalize(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	viper.Set(key, value)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".geneval.yaml")
	}
	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	_, err = fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, cfgFile)
	return err
}
