// Package drift detects manual edits that bypassed the staging area: files
// under the live repository root or .github that no longer match their
// src/root and src/github sources. CI runs this as a gate so every change
// flows through src/ and survives the next push.
package drift

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"bmad/internal/fscopy"
	"bmad/internal/manifest"
)

// Kind classifies one drifted file.
type Kind string

const (
	// KindMissing: tracked in src/ but absent from the live tree.
	KindMissing Kind = "missing"
	// KindModified: present on both sides with different content.
	KindModified Kind = "modified"
	// KindUntracked: present in the live tree but not in src/.
	KindUntracked Kind = "untracked"
)

// Entry is one drifted file.
type Entry struct {
	Kind Kind   `json:"kind"`
	Rel  string `json:"path"`
}

func (e Entry) String() string { return fmt.Sprintf("%-10s %s", e.Kind, e.Rel) }

// Report is the outcome of one drift check.
type Report struct {
	Target  string  `json:"target"`
	Entries []Entry `json:"entries"`
}

// Clean reports whether no drift was found.
func (r *Report) Clean() bool { return len(r.Entries) == 0 }

// Targets lists the supported drift targets.
func Targets() []string { return []string{"github", "root"} }

// Check compares one target against the live tree. srcDir is the staging
// root, liveRoot the repository root.
//
// For "github", src/github and .github are compared both ways: the live
// .github is fully managed, so extra live files are drift too. For "root",
// files present in src/root are compared, plus files the live root's sync
// manifest tracks: a file dropped from staging but still live is drift. The
// rest of the repository root holds files the pipeline does not own.
func Check(target, srcDir, liveRoot string) (*Report, error) {
	var srcSide, liveSide string
	var reportUntracked bool
	switch target {
	case "github":
		srcSide = filepath.Join(srcDir, "github")
		liveSide = filepath.Join(liveRoot, ".github")
		reportUntracked = true
	case "root":
		srcSide = filepath.Join(srcDir, "root")
		liveSide = liveRoot
		reportUntracked = false
	default:
		return nil, fmt.Errorf("unknown drift target %q (known: %v)", target, Targets())
	}

	report := &Report{Target: target}

	srcFiles, err := fscopy.ListTree(srcSide, junk)
	if err != nil {
		return nil, err
	}
	srcSet := make(map[string]bool, len(srcFiles))
	for _, rel := range srcFiles {
		srcSet[rel] = true
		same, err := fscopy.SameContent(
			filepath.Join(srcSide, filepath.FromSlash(rel)),
			filepath.Join(liveSide, filepath.FromSlash(rel)),
		)
		if err != nil {
			return nil, err
		}
		if same {
			continue
		}
		if exists(filepath.Join(liveSide, filepath.FromSlash(rel))) {
			report.Entries = append(report.Entries, Entry{Kind: KindModified, Rel: rel})
		} else {
			report.Entries = append(report.Entries, Entry{Kind: KindMissing, Rel: rel})
		}
	}

	if reportUntracked {
		liveFiles, err := fscopy.ListTree(liveSide, junk)
		if err != nil {
			return nil, err
		}
		for _, rel := range liveFiles {
			if !srcSet[rel] {
				report.Entries = append(report.Entries, Entry{Kind: KindUntracked, Rel: rel})
			}
		}
	}

	if target == "root" {
		orphans, err := manifestOrphans(liveSide, srcSet)
		if err != nil {
			return nil, err
		}
		report.Entries = append(report.Entries, orphans...)
	}

	return report, nil
}

// manifestOrphans reports files the live root's sync manifest tracks that are
// no longer staged but still present: dropped from src/root without a push to
// clean them up.
func manifestOrphans(liveRoot string, srcSet map[string]bool) ([]Entry, error) {
	m, err := manifest.Load(liveRoot)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	tracked := make([]string, 0, len(m.Files))
	for rel := range m.Files {
		tracked = append(tracked, rel)
	}
	sort.Strings(tracked)

	var entries []Entry
	for _, rel := range tracked {
		if srcSet[rel] || junk(rel) {
			continue
		}
		if exists(filepath.Join(liveRoot, filepath.FromSlash(rel))) {
			entries = append(entries, Entry{Kind: KindUntracked, Rel: rel})
		}
	}
	return entries, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// junk excludes version-control internals and OS noise from both sides.
func junk(rel string) bool {
	switch {
	case rel == ".git/" || rel == ".DS_Store":
		return true
	case filepath.Base(filepath.FromSlash(rel)) == ".DS_Store":
		return true
	}
	return false
}
