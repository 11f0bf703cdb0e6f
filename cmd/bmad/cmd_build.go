package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bmad/internal/build"
	"bmad/internal/display"
	"bmad/internal/history"
	"bmad/internal/validate"
)

var buildFlags struct {
	watch    bool
	debounce time.Duration
	skipped  []string
}

var buildCmd = &cobra.Command{
	Use:   "build [bundle...]",
	Short: "Rebuild dist/ bundles from the staging area",
	Long: `Build validates the staging area, then recreates dist/<bundle> for each
named bundle (or all of them). The claude bundle additionally generates
settings.json from settings.template.json.

With --watch, build reruns automatically whenever the staging area changes.`,
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.BoolVar(&buildFlags.watch, "watch", false, "Rebuild on staging area changes until interrupted")
	f.DurationVar(&buildFlags.debounce, "debounce", 300*time.Millisecond, "Quiet period before a watch rebuild")
	f.StringArrayVar(&buildFlags.skipped, "skip", nil, "Extra gitignore-style pattern to exclude from every bundle (repeatable)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	srcDir := resolvePath(cfg.SourceDir)

	report, err := validate.Run(srcDir)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if !report.OK() {
		for _, f := range report.Findings {
			fmt.Fprintln(cmd.OutOrStdout(), f.String())
		}
		return fmt.Errorf("refusing to build: %d validation finding(s)", len(report.Findings))
	}

	b := &build.Builder{
		SrcDir:    srcDir,
		DistDir:   resolvePath(cfg.DistDir),
		ExtraSkip: buildFlags.skipped,
		Version:   version,
	}

	if buildFlags.watch {
		return b.Watch(cmd.Context(), args, buildFlags.debounce)
	}

	results, err := b.Build(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(out, "built %s: %d file(s)\n", display.Bundle(r.Bundle), r.Files)
	}

	journal, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()
	for _, r := range results {
		if _, err := journal.RecordRun(&history.Run{
			Stage: history.StageBuild, Bundle: r.Bundle,
			Written: r.Files, Outcome: history.OutcomeOK,
		}); err != nil {
			return fmt.Errorf("record build: %w", err)
		}
	}
	return nil
}
