package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/display"
	"bmad/internal/drift"
)

var driftFlags struct {
	quiet bool
}

var driftCmd = &cobra.Command{
	Use:   "drift [target]",
	Short: "Compare staged github/root bundles against live repo files",
	Long: `Drift checks that the staged copies of the repo's own files (the github
and root bundles) still match what is live in the repo. A non-zero exit means
someone edited the live files without updating the staging area, or vice
versa. Intended as a CI gate.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDrift,
}

func init() {
	driftCmd.Flags().BoolVar(&driftFlags.quiet, "quiet", false, "One compact line per drifted file, no summary (CI mode)")
}

func runDrift(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	targets := drift.Targets()
	if len(args) == 1 {
		targets = []string{args[0]}
	}

	out := cmd.OutOrStdout()
	var total int
	for _, target := range targets {
		report, err := drift.Check(target, resolvePath(cfg.SourceDir), resolvePath("."))
		if err != nil {
			return fmt.Errorf("drift %s: %w", target, err)
		}
		total += len(report.Entries)
		for _, e := range report.Entries {
			if driftFlags.quiet {
				fmt.Fprintf(out, "%s %s/%s\n", e.Kind, target, e.Rel)
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", display.Bundle(target), e.String())
		}
	}

	if total > 0 {
		return fmt.Errorf("%d path(s) have drifted", total)
	}
	if !driftFlags.quiet {
		fmt.Fprintln(out, "no drift")
	}
	return nil
}
