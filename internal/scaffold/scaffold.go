// Package scaffold generates the skeleton for a new method module under
// src/modules/<name>: a module manifest plus starter agent, workflow, and
// checklist files. The generated content is plain prompt text for the
// assistant runtimes; the pipeline itself never interprets it.
package scaffold

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	yaml "gopkg.in/yaml.v3"

	"bmad/internal/logging"
)

// modulesSubdir is where modules live inside the staging area.
const modulesSubdir = "modules"

// nameRE constrains module names to safe path segments.
var nameRE = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Params feeds the skeleton templates.
type Params struct {
	Name        string
	Title       string
	Description string
	Author      string
	Date        string
}

// moduleManifest is the generated module.yaml.
type moduleManifest struct {
	Name        string   `yaml:"name"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Author      string   `yaml:"author,omitempty"`
	Created     string   `yaml:"created"`
	Agents      []string `yaml:"agents"`
	Workflows   []string `yaml:"workflows"`
	Checklists  []string `yaml:"checklists"`
}

var agentTemplate = template.Must(template.New("agent").Parse(`# {{.Title}} Agent

You are the lead agent for the {{.Title}} module.

## Persona

Describe the persona here: voice, priorities, boundaries.

## Responsibilities

- Own the {{.Name}} workflows end to end
- Escalate anything outside this module's scope
`))

var workflowTemplate = template.Must(template.New("workflow").Parse(`# {{.Title}} Workflow

## Steps

1. Gather inputs for {{.Name}}
2. Produce the deliverable
3. Run the review checklist
`))

var checklistTemplate = template.Must(template.New("checklist").Parse(`# {{.Title}} Review Checklist

- [ ] Deliverable matches the workflow's stated output
- [ ] No open questions remain unanswered
- [ ] Follow-ups recorded
`))

// Create generates the module skeleton under srcDir. Refuses to overwrite an
// existing module. Returns the module directory.
func Create(srcDir string, p Params) (string, error) {
	if !nameRE.MatchString(p.Name) {
		return "", fmt.Errorf("invalid module name %q (want lowercase letters, digits, hyphens)", p.Name)
	}
	if p.Title == "" {
		p.Title = titleFromName(p.Name)
	}
	if p.Date == "" {
		p.Date = time.Now().UTC().Format("2006-01-02")
	}

	moduleDir := filepath.Join(srcDir, modulesSubdir, p.Name)
	if _, err := os.Stat(moduleDir); err == nil {
		return "", fmt.Errorf("module %s already exists at %s", p.Name, moduleDir)
	}

	files := map[string]*template.Template{
		filepath.Join("agents", p.Name+".md"):    agentTemplate,
		filepath.Join("workflows", "default.md"): workflowTemplate,
		filepath.Join("checklists", "review.md"): checklistTemplate,
	}
	for rel, tmpl := range files {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, p); err != nil {
			return "", fmt.Errorf("render %s: %w", rel, err)
		}
		path := filepath.Join(moduleDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", rel, err)
		}
	}

	m := moduleManifest{
		Name:        p.Name,
		Title:       p.Title,
		Description: p.Description,
		Author:      p.Author,
		Created:     p.Date,
		Agents:      []string{"agents/" + p.Name + ".md"},
		Workflows:   []string{"workflows/default.md"},
		Checklists:  []string{"checklists/review.md"},
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return "", fmt.Errorf("marshal module manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(moduleDir, "module.yaml"), data, 0o644); err != nil {
		return "", fmt.Errorf("write module.yaml: %w", err)
	}

	logging.New("scaffold").Info("module created", "name", p.Name, "dir", moduleDir)
	return moduleDir, nil
}

// titleFromName turns "story-review" into "Story Review".
func titleFromName(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
