// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/examfetch/internal/history"
	"github.com/pdiddy/examfetch/internal/httputil"
	"github.com/pdiddy/examfetch/internal/pipeline"
)

func runFetch(cmd *cobra.Command, args []string) error {
	for _, course := range args {
		if strings.TrimSpace(course) == "" {
			return fmt.Errorf("course identifiers must not be empty")
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Verbose)

	runner := pipeline.New(cfg, httputil.NewClient(cfg.HTTPConfig), logger)
	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()
		runner.History = store
	}

	sum := runner.Run(cmd.Context(), args)
	logger.Info("run complete",
		"courses", sum.Courses,
		"downloaded", sum.Downloads.Downloaded,
		"skipped", sum.Downloads.Skipped,
		"failed", sum.Downloads.Failed,
		"failed_courses", sum.FailedCourses,
	)
	if len(sum.FailedCourses) > 0 || sum.Downloads.Failed > 0 {
		logger.Warn("some downloads failed; see error log", "path", cfg.ErrorLog)
	}
	return nil
}
