// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the confharvest CLI.
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
	"github.com/spf13/viper"

	"github.com/pdiddy/confharvest/internal/logging"
	"github.com/pdiddy/confharvest/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is the configuration loaded before any subcommand runs.
var cfg types.Config

// rootCmd is the base command for the confharvest CLI.
var rootCmd = &cobra.Command{
	Use:   "confharvest",
	Short: "Bulk-download the accepted papers of a conference",
	Long: `confharvest scrapes a conference listing, resolves every paper to a
verified PDF and stores it locally. A paper's direct review link is tried
first; when it is missing or broken the paper is looked up on arXiv and
downloaded if a confident match is found.

Each run writes PDFs, metadata JSON, a summary report and a run log into
the output directory, and records its outcomes in harvest.db there.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			c.Log.Level = lvl
		}
		if _, err := logging.ParseLevel(c.Log.Level); err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", fmt.Sprintf("config file (default: ./%s.yaml or ~/.config/confharvest/%s.yaml)", configName, configName))
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

// configName is the config file base name looked up in each search directory.
const configName = "confharvest"

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	searchConfig(viper.GetViper(), cfgFile, configDirs())
	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configDirs lists the directories searched when --config is not set.
func configDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "confharvest"))
	}
	return dirs
}

// searchConfig points v at cfgFile, or at confharvest.yaml in dirs.
func searchConfig(v *viper.Viper, cfgFile string, dirs []string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return
	}
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
}

// bindEnv maps CONFHARVEST_SECTION_KEY variables onto section.key.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CONFHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadConfig layers the file and environment values held by v over the
// built-in defaults and validates the result.
func loadConfig(v *viper.Viper) (types.Config, error) {
	setDefaults(v, types.DefaultConfig())
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// setDefaults registers every key so that environment variables can
// override keys absent from the config file.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.retries", d.HTTP.Retries)
	v.SetDefault("http.retry_backoff", d.HTTP.RetryBackoff)
	v.SetDefault("http.proxy", d.HTTP.Proxy)

	v.SetDefault("search.enabled", d.Search.Enabled)
	v.SetDefault("search.endpoint", d.Search.Endpoint)
	v.SetDefault("search.interval", d.Search.Interval)
	v.SetDefault("search.jitter_min", d.Search.JitterMin)
	v.SetDefault("search.jitter_max", d.Search.JitterMax)
	v.SetDefault("search.max_results", d.Search.MaxResults)
	v.SetDefault("search.timeout", d.Search.Timeout)

	v.SetDefault("match.title_weight", d.Match.TitleWeight)
	v.SetDefault("match.author_weight", d.Match.AuthorWeight)
	v.SetDefault("match.threshold", d.Match.Threshold)
	v.SetDefault("match.jaccard_weight", d.Match.JaccardWeight)
	v.SetDefault("match.sequence_weight", d.Match.SequenceWeight)

	v.SetDefault("download.timeout", d.Download.Timeout)
	v.SetDefault("download.min_size", d.Download.MinSize)
	v.SetDefault("download.existing_min_size", d.Download.ExistingMinSize)

	v.SetDefault("reference.pdf_template", d.Reference.PDFTemplate)

	v.SetDefault("harvest.workers", d.Harvest.Workers)
	v.SetDefault("harvest.output_dir", d.Harvest.OutputDir)

	v.SetDefault("log.level", d.Log.Level)

	v.SetDefault("pipeline.jobs", d.Pipeline.Jobs)
}

// consoleLogger is the stderr logger used outside an output directory.
func consoleLogger() zerolog.Logger {
	lvl, _ := logging.ParseLevel(cfg.Log.Level)
	return logging.Console(os.Stderr, lvl)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
