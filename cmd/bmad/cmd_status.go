package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bmad/internal/display"
	"bmad/internal/layout"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, built bundles, and the last run per project",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source:  %s\n", cfg.SourceDir)
	fmt.Fprintf(out, "Dist:    %s\n", cfg.DistDir)

	fmt.Fprintf(out, "Bundles:\n")
	distDir := resolvePath(cfg.DistDir)
	for _, name := range layout.Names() {
		built := "not built"
		if _, err := os.Stat(filepath.Join(distDir, name)); err == nil {
			built = "built"
		}
		fmt.Fprintf(out, "  %-20s %s\n", display.BundleWithCode(name), built)
	}

	if len(cfg.Projects) == 0 {
		fmt.Fprintf(out, "Projects: none configured\n")
		return nil
	}

	journal, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()

	fmt.Fprintf(out, "Projects:\n")
	resolved := resolveProjects(cfg)
	for i, project := range cfg.Projects {
		runs, err := journal.ListRunsByProject(resolved[i], 1)
		if err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintf(out, "  %s: never pushed\n", project)
			continue
		}
		r := runs[0]
		fmt.Fprintf(out, "  %s: %s %s at %s (%s)\n",
			project, display.Stage(r.Stage), display.Bundle(r.Bundle), r.CreatedAt, display.Outcome(r.Outcome))
	}
	return nil
}
