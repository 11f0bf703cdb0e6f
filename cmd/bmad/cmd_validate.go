package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the staging area: required layout, secret scan, codex policy",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report, err := validate.Run(resolvePath(cfg.SourceDir))
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	out := cmd.OutOrStdout()
	if report.OK() {
		fmt.Fprintln(out, "staging area is clean")
		return nil
	}
	for _, f := range report.Findings {
		fmt.Fprintln(out, f.String())
	}
	return fmt.Errorf("%d validation finding(s)", len(report.Findings))
}
