// Package validate is the first pipeline stage: it checks the src/ staging
// area before anything is built or pushed. Three validators run in order —
// layout (required paths), secret scan (regex denylist), and codex policy
// (blocked config tokens).
package validate

import (
	"fmt"
	"os"
	"path/filepath"

	"bmad/internal/layout"
)

// Finding is one validation failure. Findings carry location and rule, never
// the matched content itself.
type Finding struct {
	Rule   string `json:"rule"`
	Path   string `json:"path"`
	Line   int    `json:"line,omitempty"`
	Detail string `json:"detail"`
}

func (f Finding) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d: [%s] %s", f.Path, f.Line, f.Rule, f.Detail)
	}
	return fmt.Sprintf("%s: [%s] %s", f.Path, f.Rule, f.Detail)
}

// Report collects the findings of a validation run.
type Report struct {
	Findings []Finding `json:"findings"`
}

// OK reports whether the run produced no findings.
func (r *Report) OK() bool { return len(r.Findings) == 0 }

// Run executes all validators against srcDir and returns the combined report.
func Run(srcDir string) (*Report, error) {
	var report Report

	report.Findings = append(report.Findings, CheckLayout(srcDir)...)

	secrets, err := ScanSecrets(srcDir)
	if err != nil {
		return nil, fmt.Errorf("secret scan: %w", err)
	}
	report.Findings = append(report.Findings, secrets...)

	codex, err := CheckCodexPolicy(srcDir)
	if err != nil {
		return nil, fmt.Errorf("codex policy: %w", err)
	}
	report.Findings = append(report.Findings, codex...)

	return &report, nil
}

// CheckLayout verifies that every registered bundle exists under srcDir and
// contains its required paths.
func CheckLayout(srcDir string) []Finding {
	var findings []Finding
	for _, b := range layout.Bundles() {
		bundleDir := filepath.Join(srcDir, b.Name)
		if _, err := os.Stat(bundleDir); err != nil {
			findings = append(findings, Finding{
				Rule:   "layout",
				Path:   bundleDir,
				Detail: fmt.Sprintf("bundle %s missing from source tree", b.Name),
			})
			continue
		}
		for _, req := range b.Required {
			reqPath := filepath.Join(bundleDir, filepath.FromSlash(req))
			if _, err := os.Stat(reqPath); err != nil {
				findings = append(findings, Finding{
					Rule:   "layout",
					Path:   reqPath,
					Detail: fmt.Sprintf("required path %s missing in bundle %s", req, b.Name),
				})
			}
		}
	}
	return findings
}
