package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bmad/internal/scaffold"
)

var createFlags struct {
	title       string
	description string
	author      string
}

var createModuleCmd = &cobra.Command{
	Use:   "create-module <name>",
	Short: "Scaffold a new methodology module in the staging area",
	Long: `Create-module lays down src/modules/<name>/ with a module manifest, a
starter agent, a default workflow, and a review checklist. The name must be
lower-kebab-case.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreateModule,
}

func init() {
	f := createModuleCmd.Flags()
	f.StringVar(&createFlags.title, "title", "", "Module title (default derived from name)")
	f.StringVar(&createFlags.description, "description", "", "Module description")
	f.StringVar(&createFlags.author, "author", "", "Module author")
}

func runCreateModule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir, err := scaffold.Create(resolvePath(cfg.SourceDir), scaffold.Params{
		Name:        args[0],
		Title:       createFlags.title,
		Description: createFlags.description,
		Author:      createFlags.author,
		Date:        time.Now().UTC().Format("2006-01-02"),
	})
	if err != nil {
		return fmt.Errorf("create module: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", dir)
	return nil
}
