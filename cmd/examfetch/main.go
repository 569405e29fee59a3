// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the examfetch CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/examfetch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultTimeout = 60 * time.Second

// rootCmd downloads exams for the courses named on the command line.
var rootCmd = &cobra.Command{
	Use:   "examfetch [flags] course...",
	Short: "Download past exams and their solutions for one or more courses",
	Long: `examfetch searches the TBP and HKN exam archives for each course given on
the command line and downloads the exam/solution files it finds into a
folder per course (e.g. "CS 170"). By default only exams that have a
matching solution are downloaded; files already on disk are skipped.

Failures are appended to an error log and do not stop the remaining courses.`,
	Example: `  examfetch 170 162
  examfetch -v -u 61A
  examfetch --exams --hkn 188`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runFetch,
}

// flagKeys maps root flags to their configuration keys.
var flagKeys = map[string]string{
	"verbose":     "verbose",
	"unpaired":    "unpaired",
	"exams":       "exams_only",
	"solutions":   "solutions_only",
	"tbp":         "enable_tbp",
	"hkn":         "enable_hkn",
	"department":  "department",
	"out-dir":     "out_dir",
	"error-log":   "error_log",
	"concurrency": "concurrency",
	"chunk-size":  "chunk_size",
	"timeout":     "timeout",
	"max-retries": "max_retries",
	"user-agent":  "user_agent",
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./examfetch.yaml or ~/.config/examfetch/examfetch.yaml)")
	pf.String("history", "", "download history database (empty disables history)")

	f := rootCmd.Flags()
	f.BoolP("verbose", "v", false, "provide more detail on download progress")
	f.BoolP("unpaired", "u", false, "consider unpaired exam/solution files")
	f.BoolP("exams", "e", false, "download only exam files")
	f.BoolP("solutions", "s", false, "download only solution files")
	f.BoolP("hkn", "k", false, "search only on HKN's database")
	f.BoolP("tbp", "t", false, "search only on TBP's database")
	f.String("department", types.DefaultDepartment, "department prefix for folders and listing URLs")
	f.String("out-dir", ".", "directory in which course folders are created")
	f.String("error-log", types.DefaultErrorLog, "file that failures are appended to")
	f.Int("concurrency", types.DefaultConcurrency, "maximum concurrent downloads (0 = unbounded)")
	f.Int("chunk-size", types.DefaultChunkSize, "download copy buffer size in bytes")
	f.Duration("timeout", defaultTimeout, "connect/header timeout, listing page timeout, and idle limit while streaming files (0 = none)")
	f.Int("max-retries", 0, "retries for HTTP 429/503 responses")
	f.String("user-agent", types.DefaultUserAgent, "User-Agent header for HTTP requests")

	rootCmd.MarkFlagsMutuallyExclusive("exams", "solutions")
	rootCmd.MarkFlagsMutuallyExclusive("hkn", "tbp")

	for flag, key := range flagKeys {
		viper.BindPFlag(key, f.Lookup(flag))
	}
	viper.BindPFlag("history_db", pf.Lookup("history"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("examfetch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "examfetch"))
		}
	}

	viper.SetEnvPrefix("EXAMFETCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig resolves flags, environment, and config file into a
// normalized, validated FetchConfig.
func loadConfig() (types.FetchConfig, error) {
	var cfg types.FetchConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger returns the console logger: Info and above when verbose,
// otherwise warnings and errors only.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
