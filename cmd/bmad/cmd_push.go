package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/config"
	"bmad/internal/display"
	"bmad/internal/history"
	"bmad/internal/push"
)

var pushFlags struct {
	dryRun   bool
	parallel int
	projects []string
}

var pushCmd = &cobra.Command{
	Use:   "push [bundle...]",
	Short: "Sync built bundles into destination projects",
	Long: `Push applies dist/<bundle> to every configured project. Replace-mode
bundles are recreated from dist/; the root bundle is merged into the project
root, with stale files cleaned up via the sync manifest. Local-only paths are
backed up before the sync and restored after it, so they always survive.

With --dry-run, push prints the file plan without writing anything.`,
	RunE: runPush,
}

func init() {
	f := pushCmd.Flags()
	f.BoolVar(&pushFlags.dryRun, "dry-run", false, "Print the file plan without writing")
	f.IntVar(&pushFlags.parallel, "parallel", 0, "Concurrent project syncs (0 = config value)")
	f.StringArrayVar(&pushFlags.projects, "project", nil, "Destination project root, overriding config (repeatable)")
}

func runPush(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	projects := resolveProjects(cfg)
	if len(pushFlags.projects) > 0 {
		projects = pushFlags.projects
	}
	parallel := cfg.Parallel
	if pushFlags.parallel > 0 {
		parallel = pushFlags.parallel
	}

	p := &push.Pusher{
		DistDir:        resolvePath(cfg.DistDir),
		Projects:       projects,
		ExtraLocalOnly: cfg.LocalOnly,
		Parallel:       parallel,
		DryRun:         pushFlags.dryRun,
		Version:        version,
	}

	results, err := p.Push(cmd.Context(), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(out, "%s: %s: %v\n", res.Project, display.Outcome(history.OutcomeError), res.Err)
			continue
		}
		for _, br := range res.Bundles {
			if pushFlags.dryRun {
				fmt.Fprintf(out, "%s: %s (plan)\n", res.Project, display.Bundle(br.Bundle))
				for _, e := range br.Plan {
					fmt.Fprintf(out, "  %-10s %s\n", display.Action(string(e.Action)), e.Rel)
				}
				continue
			}
			fmt.Fprintf(out, "%s: %s: %d written, %d deleted, %d %s\n",
				res.Project, display.Bundle(br.Bundle),
				br.Written, br.Deleted, br.Preserved, display.Action(string(push.ActionPreserve)))
		}
	}

	if !pushFlags.dryRun {
		if err := journalPush(cfg, results); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("push failed for %d project(s)", failed)
	}
	return nil
}

// journalPush records one run row per bundle per project, and one error row
// per failed project.
func journalPush(cfg *config.Config, results []push.ProjectResult) error {
	journal, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()

	for _, res := range results {
		if res.Err != nil {
			if _, err := journal.RecordRun(&history.Run{
				Stage: history.StagePush, Project: res.Project,
				Outcome: history.OutcomeError, Detail: res.Err.Error(),
			}); err != nil {
				return fmt.Errorf("record push: %w", err)
			}
			continue
		}
		for _, br := range res.Bundles {
			if _, err := journal.RecordRun(&history.Run{
				Stage: history.StagePush, Bundle: br.Bundle, Project: res.Project,
				Written: br.Written, Deleted: br.Deleted, Preserved: br.Preserved,
				Outcome: history.OutcomeOK,
			}); err != nil {
				return fmt.Errorf("record push: %w", err)
			}
		}
	}
	return nil
}
