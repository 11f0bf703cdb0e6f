package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/display"
)

var historyFlags struct {
	limit   int
	project string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded build and push runs, newest first",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.IntVar(&historyFlags.limit, "limit", 20, "Max runs to list (0 = all)")
	f.StringVar(&historyFlags.project, "project", "", "Only runs for this destination project")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	journal, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()

	runs, err := journal.ListRuns(historyFlags.limit)
	if historyFlags.project != "" {
		runs, err = journal.ListRunsByProject(resolvePath(historyFlags.project), historyFlags.limit)
	}
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return nil
	}
	for _, r := range runs {
		line := fmt.Sprintf("#%-4d %s  %-7s %-18s", r.ID, r.CreatedAt, display.Stage(r.Stage), display.Bundle(r.Bundle))
		if r.Project != "" {
			line += "  " + r.Project
		}
		line += fmt.Sprintf("  %d written, %d deleted, %d preserved  %s",
			r.Written, r.Deleted, r.Preserved, display.Outcome(r.Outcome))
		if r.Detail != "" {
			line += "  (" + r.Detail + ")"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
