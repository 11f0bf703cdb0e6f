// Package build is the second pipeline stage: it materializes dist/ from the
// src/ staging area, bundle by bundle. A build is always a clean rebuild of
// the requested bundles; incremental state lives only in watch mode's
// debounce, never in dist/ itself.
package build

import (
	"fmt"
	"os"
	"path/filepath"

	"bmad/internal/fscopy"
	"bmad/internal/layout"
	"bmad/internal/logging"
)

// Builder copies source bundles into the dist output.
type Builder struct {
	// SrcDir is the staging area root.
	SrcDir string
	// DistDir is the build output root.
	DistDir string
	// ExtraSkip adds gitignore-style patterns to every bundle's skip-list.
	ExtraSkip []string
	// Version is stamped into generated files.
	Version string
}

// Result summarizes one built bundle.
type Result struct {
	Bundle            string `json:"bundle"`
	Files             int    `json:"files"`
	GeneratedSettings bool   `json:"generated_settings,omitempty"`
}

// Build rebuilds the named bundles, or every registered bundle when names is
// empty. Each bundle's dist output is removed and recreated.
func (b *Builder) Build(names []string) ([]Result, error) {
	bundles, err := resolve(names)
	if err != nil {
		return nil, err
	}

	logger := logging.New("builder")
	results := make([]Result, 0, len(bundles))
	for _, bundle := range bundles {
		res, err := b.buildBundle(bundle)
		if err != nil {
			return results, fmt.Errorf("build %s: %w", bundle.Name, err)
		}
		logger.Info("bundle built", "bundle", bundle.Name, "files", res.Files)
		results = append(results, res)
	}
	return results, nil
}

func (b *Builder) buildBundle(bundle layout.Bundle) (Result, error) {
	srcDir := filepath.Join(b.SrcDir, bundle.Name)
	if _, err := os.Stat(srcDir); err != nil {
		return Result{}, fmt.Errorf("source bundle missing: %w", err)
	}
	distDir := filepath.Join(b.DistDir, bundle.Name)

	if err := fscopy.RemoveTree(distDir); err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create %s: %w", distDir, err)
	}

	skip := bundle.SkipMatcher(b.ExtraSkip...)
	skipFn := skip.Match
	if bundle.Name == "claude" {
		// The settings template stays in src/; dist ships the generated file.
		skipFn = func(rel string) bool {
			return rel == settingsTemplate || skip.Match(rel)
		}
	}
	copied, err := fscopy.CopyTree(srcDir, distDir, skipFn)
	if err != nil {
		return Result{}, err
	}

	res := Result{Bundle: bundle.Name, Files: len(copied)}

	if bundle.Name == "claude" {
		if err := GenerateSettings(
			filepath.Join(srcDir, settingsTemplate),
			filepath.Join(distDir, settingsOutput),
			b.Version,
		); err != nil {
			return Result{}, err
		}
		res.GeneratedSettings = true
		res.Files++
	}

	if err := verifyOutputs(distDir, bundle); err != nil {
		return Result{}, err
	}
	return res, nil
}

// verifyOutputs confirms the bundle's required paths survived the copy.
func verifyOutputs(distDir string, bundle layout.Bundle) error {
	for _, req := range bundle.Required {
		if req == settingsTemplate {
			// The template is a source-side requirement; dist carries the
			// generated settings.json instead.
			req = settingsOutput
		}
		if _, err := os.Stat(filepath.Join(distDir, filepath.FromSlash(req))); err != nil {
			return fmt.Errorf("post-build check: required output %s missing: %w", req, err)
		}
	}
	return nil
}

// resolve maps bundle names to registry entries, preserving build order.
func resolve(names []string) ([]layout.Bundle, error) {
	if len(names) == 0 {
		return layout.Bundles(), nil
	}
	requested := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := layout.Find(n); !ok {
			return nil, fmt.Errorf("unknown bundle %q (known: %v)", n, layout.Names())
		}
		requested[n] = true
	}
	var out []layout.Bundle
	for _, b := range layout.Bundles() {
		if requested[b.Name] {
			out = append(out, b)
		}
	}
	return out, nil
}
