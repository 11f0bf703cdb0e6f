package validate

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// codexConfigFile is the distributed codex runtime config, relative to src/.
const codexConfigFile = "codex/config.toml"

// blockedCodexTokens must never ship in the distributed codex config. Each
// one disables an approval or sandbox boundary on every destination project
// at once.
var blockedCodexTokens = []string{
	"danger-full-access",
	"bypass-approvals",
	"bypass-sandbox",
	"approval_policy = \"never\"",
	"sandbox_mode = \"off\"",
}

// CheckCodexPolicy scans the codex config for blocked tokens. A missing
// config is reported by the layout check, not here.
func CheckCodexPolicy(srcDir string) ([]Finding, error) {
	path := filepath.Join(srcDir, filepath.FromSlash(codexConfigFile))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var findings []Finding
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		for _, token := range blockedCodexTokens {
			if strings.Contains(line, token) {
				findings = append(findings, Finding{
					Rule:   "codex-policy",
					Path:   path,
					Line:   lineNo,
					Detail: fmt.Sprintf("blocked token %q", token),
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return findings, nil
}
