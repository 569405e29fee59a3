// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/examfetch/internal/history"
	"github.com/pdiddy/examfetch/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded downloads from the history database",
	Long: `History lists download outcomes recorded by previous runs that had a
history database configured (--history or history_db in the config file).
Newest records are listed first.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("course", "", "filter by course identifier")
	historyCmd.Flags().String("site", "", "filter by site: TBP or HKN")
	historyCmd.Flags().String("status", "", "filter by status: downloaded, skipped, failed")
	historyCmd.Flags().String("run", "", "filter by run ID")
	historyCmd.Flags().Int("limit", 50, "maximum number of records")
	historyCmd.Flags().Bool("yaml", false, "output records as YAML")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	dbPath := viper.GetString("history_db")
	if dbPath == "" {
		return fmt.Errorf("no history database configured: pass --history or set history_db")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("history database %s: %w", dbPath, err)
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	course, _ := cmd.Flags().GetString("course")
	site, _ := cmd.Flags().GetString("site")
	status, _ := cmd.Flags().GetString("status")
	runID, _ := cmd.Flags().GetString("run")
	limit, _ := cmd.Flags().GetInt("limit")
	asYAML, _ := cmd.Flags().GetBool("yaml")

	records, err := store.List(cmd.Context(), history.Filter{
		RunID:  runID,
		Course: course,
		Site:   types.Site(strings.ToUpper(site)),
		Status: types.DownloadStatus(strings.ToLower(status)),
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	if asYAML {
		return history.Export(cmd.OutOrStdout(), records)
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No records found.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"When", "Course", "Site", "Semester", "Exam", "Content", "Status", "Path"})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.RecordedAt.Local().Format("2006-01-02 15:04"),
			r.Course, r.Site, r.Semester, r.ExamType, r.Content, r.Status, r.Path,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}
