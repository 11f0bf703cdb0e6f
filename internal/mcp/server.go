// Package mcp exposes the build/push pipeline as MCP tools over stdio, so
// coding agents can validate, build, and sync bundles without shelling out.
package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"bmad/internal/build"
	"bmad/internal/config"
	"bmad/internal/drift"
	"bmad/internal/history"
	"bmad/internal/layout"
	"bmad/internal/logging"
	"bmad/internal/push"
	"bmad/internal/validate"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server around the pipeline.
type Server struct {
	MCPServer *sdkmcp.Server
	// Root is the repo root; SourceDir/DistDir/projects resolve against it.
	Root    string
	Config  *config.Config
	Version string

	mu      sync.Mutex
	journal history.Store
}

// NewServer creates an MCP server rooted at the current working directory.
// journal may be nil; applied pushes are then not recorded.
func NewServer(cfg *config.Config, version string, journal history.Store) *Server {
	cwd, _ := os.Getwd()
	s := &Server{Root: cwd, Config: cfg, Version: version, journal: journal}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "bmad", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_validate",
		Description: "Validate the staging area: required layout, secret scan, codex policy. Returns findings; empty means clean.",
	}, s.handleValidate)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_build",
		Description: "Rebuild dist/ bundles from the staging area. Validates first and refuses on findings.",
	}, s.handleBuild)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_push",
		Description: "Sync dist/ bundles into destination projects. Dry-run by default: returns the file plan without writing. Pass apply=true to write.",
	}, s.handlePush)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "check_drift",
		Description: "Compare staged github/root bundles against the live repo files and report missing, modified, and untracked paths.",
	}, s.handleCheckDrift)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_status",
		Description: "Report configured projects, registered bundles, and the most recent build/push runs from the journal.",
	}, s.handleGetStatus)
}

// --- Tool input/output types ---

type validateInput struct{}

type validateOutput struct {
	OK       bool     `json:"ok"`
	Findings []string `json:"findings,omitempty"`
}

type buildInput struct {
	Bundles []string `json:"bundles,omitempty" jsonschema:"bundle names to build (empty = all)"`
}

type buildOutput struct {
	Results []build.Result `json:"results"`
}

type pushInput struct {
	Bundles  []string `json:"bundles,omitempty" jsonschema:"bundle names to push (empty = all)"`
	Projects []string `json:"projects,omitempty" jsonschema:"destination project roots (empty = configured projects)"`
	Apply    bool     `json:"apply,omitempty" jsonschema:"write changes; false (default) returns the plan only"`
}

type pushProjectOutput struct {
	Project string              `json:"project"`
	Bundles []push.BundleResult `json:"bundles,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type pushOutput struct {
	DryRun   bool                `json:"dry_run"`
	Projects []pushProjectOutput `json:"projects"`
}

type checkDriftInput struct {
	Target string `json:"target,omitempty" jsonschema:"drift target: github or root (empty = both)"`
}

type checkDriftOutput struct {
	Clean   bool     `json:"clean"`
	Entries []string `json:"entries,omitempty"`
}

type getStatusInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"max journal rows to return (default 10)"`
}

type getStatusOutput struct {
	Projects []string       `json:"projects"`
	Bundles  []string       `json:"bundles"`
	Runs     []*history.Run `json:"runs,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleValidate(ctx context.Context, _ *sdkmcp.CallToolRequest, _ validateInput) (*sdkmcp.CallToolResult, validateOutput, error) {
	report, err := validate.Run(s.srcDir())
	if err != nil {
		return nil, validateOutput{}, fmt.Errorf("run_validate: %w", err)
	}
	out := validateOutput{OK: report.OK()}
	for _, f := range report.Findings {
		out.Findings = append(out.Findings, f.String())
	}
	return nil, out, nil
}

func (s *Server) handleBuild(ctx context.Context, _ *sdkmcp.CallToolRequest, input buildInput) (*sdkmcp.CallToolResult, buildOutput, error) {
	report, err := validate.Run(s.srcDir())
	if err != nil {
		return nil, buildOutput{}, fmt.Errorf("run_build: %w", err)
	}
	if !report.OK() {
		return nil, buildOutput{}, fmt.Errorf("staging area has %d validation findings; run run_validate for details", len(report.Findings))
	}

	b := &build.Builder{
		SrcDir:  s.srcDir(),
		DistDir: s.distDir(),
		Version: s.Version,
	}
	results, err := b.Build(input.Bundles)
	if err != nil {
		return nil, buildOutput{}, fmt.Errorf("run_build: %w", err)
	}
	s.record(func(st history.Store) {
		for _, r := range results {
			_, _ = st.RecordRun(&history.Run{
				Stage: history.StageBuild, Bundle: r.Bundle,
				Written: r.Files, Outcome: history.OutcomeOK,
			})
		}
	})
	return nil, buildOutput{Results: results}, nil
}

func (s *Server) handlePush(ctx context.Context, _ *sdkmcp.CallToolRequest, input pushInput) (*sdkmcp.CallToolResult, pushOutput, error) {
	projects := input.Projects
	if len(projects) == 0 {
		projects = s.Config.Projects
	}
	resolved := make([]string, len(projects))
	for i, p := range projects {
		resolved[i] = s.resolvePath(p)
	}

	pusher := &push.Pusher{
		DistDir:        s.distDir(),
		Projects:       resolved,
		ExtraLocalOnly: s.Config.LocalOnly,
		Parallel:       s.Config.Parallel,
		DryRun:         !input.Apply,
		Version:        s.Version,
	}
	results, err := pusher.Push(ctx, input.Bundles)
	if err != nil {
		return nil, pushOutput{}, fmt.Errorf("run_push: %w", err)
	}

	out := pushOutput{DryRun: !input.Apply}
	for _, res := range results {
		po := pushProjectOutput{Project: res.Project, Bundles: res.Bundles}
		if res.Err != nil {
			po.Error = res.Err.Error()
		}
		out.Projects = append(out.Projects, po)
	}
	if input.Apply {
		s.record(func(st history.Store) { recordPush(st, results) })
	}
	return nil, out, nil
}

func (s *Server) handleCheckDrift(ctx context.Context, _ *sdkmcp.CallToolRequest, input checkDriftInput) (*sdkmcp.CallToolResult, checkDriftOutput, error) {
	targets := drift.Targets()
	if input.Target != "" {
		targets = []string{input.Target}
	}

	out := checkDriftOutput{Clean: true}
	for _, target := range targets {
		report, err := drift.Check(target, s.srcDir(), s.Root)
		if err != nil {
			return nil, checkDriftOutput{}, fmt.Errorf("check_drift %s: %w", target, err)
		}
		if report.Clean() {
			continue
		}
		out.Clean = false
		for _, e := range report.Entries {
			out.Entries = append(out.Entries, target+": "+e.String())
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetStatus(ctx context.Context, _ *sdkmcp.CallToolRequest, input getStatusInput) (*sdkmcp.CallToolResult, getStatusOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	out := getStatusOutput{
		Projects: s.Config.Projects,
		Bundles:  layout.Names(),
	}
	s.mu.Lock()
	st := s.journal
	s.mu.Unlock()
	if st != nil {
		runs, err := st.ListRuns(limit)
		if err != nil {
			return nil, getStatusOutput{}, fmt.Errorf("get_status: %w", err)
		}
		out.Runs = runs
	}
	return nil, out, nil
}

// recordPush writes one journal row per bundle per project.
func recordPush(st history.Store, results []push.ProjectResult) {
	for _, res := range results {
		if res.Err != nil {
			_, _ = st.RecordRun(&history.Run{
				Stage: history.StagePush, Project: res.Project,
				Outcome: history.OutcomeError, Detail: res.Err.Error(),
			})
			continue
		}
		for _, br := range res.Bundles {
			_, _ = st.RecordRun(&history.Run{
				Stage: history.StagePush, Bundle: br.Bundle, Project: res.Project,
				Written: br.Written, Deleted: br.Deleted, Preserved: br.Preserved,
				Outcome: history.OutcomeOK,
			})
		}
	}
}

func (s *Server) record(fn func(history.Store)) {
	s.mu.Lock()
	st := s.journal
	s.mu.Unlock()
	if st != nil {
		fn(st)
	}
}

func (s *Server) srcDir() string  { return s.resolvePath(s.Config.SourceDir) }
func (s *Server) distDir() string { return s.resolvePath(s.Config.DistDir) }

func (s *Server) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Root, p)
}

// Shutdown closes the journal.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			logging.New("mcp").Warn("journal close failed", "error", err)
		}
		s.journal = nil
	}
}
