package validate

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// secretRule is one entry in the secret denylist.
type secretRule struct {
	name string
	re   *regexp.Regexp
}

// secretRules is the denylist. Patterns target credential shapes, not
// specific values; the scanner reports locations only.
var secretRules = []secretRule{
	{"aws-access-key", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"private-key-block", regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`)},
	{"github-token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36}\b`)},
	{"slack-token", regexp.MustCompile(`\bxox[baprs]-[0-9A-Za-z-]{10,}\b`)},
	{"bearer-token", regexp.MustCompile(`(?i)\bbearer\s+[a-z0-9._~+/=-]{24,}`)},
	{"credential-assignment", regexp.MustCompile(`(?i)\b(api[_-]?key|secret|token|password)\s*[:=]\s*["'][^"']{12,}["']`)},
}

// scanSkip excludes trees the scanner never reads.
var scanSkip = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// maxScanLine bounds how much of a single line the matcher sees. Minified
// blobs past this are matched on their first 256 KiB only; an over-long line
// must never fail the whole run.
const maxScanLine = 256 * 1024

// ScanSecrets walks every text file under srcDir and reports lines matching
// the secret denylist.
func ScanSecrets(srcDir string) ([]Finding, error) {
	var findings []Finding
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == srcDir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if scanSkip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		fileFindings, err := scanFile(path)
		if err != nil {
			return err
		}
		findings = append(findings, fileFindings...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", srcDir, err)
	}
	return findings, nil
}

// scanFile scans one file line by line. Binary files are skipped.
func scanFile(path string) ([]Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if isBinary(data) {
		return nil, nil
	}

	var findings []Finding
	lineNo := 0
	for len(data) > 0 {
		lineNo++
		raw := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			raw = data[:i]
			data = data[i+1:]
		} else {
			data = nil
		}
		if len(raw) > maxScanLine {
			raw = raw[:maxScanLine]
		}
		line := strings.TrimSuffix(string(raw), "\r")
		if allowlisted(line) {
			continue
		}
		for _, rule := range secretRules {
			if rule.re.MatchString(line) {
				findings = append(findings, Finding{
					Rule:   rule.name,
					Path:   path,
					Line:   lineNo,
					Detail: "line matches secret pattern " + rule.name,
				})
			}
		}
	}
	return findings, nil
}

// isBinary treats any NUL byte in the first 8 KiB as binary content.
func isBinary(data []byte) bool {
	probe := data
	if len(probe) > 8*1024 {
		probe = probe[:8*1024]
	}
	return bytes.IndexByte(probe, 0) >= 0
}

// allowlisted filters false positives like documented placeholder values.
// A line mentioning an obvious placeholder is not a finding.
func allowlisted(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range []string{"example", "placeholder", "your-", "<redacted>", "xxxx"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
