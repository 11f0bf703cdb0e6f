package push

import (
	"fmt"
	"os"
	"path/filepath"

	"bmad/internal/fscopy"
	"bmad/internal/layout"
)

// Backup holds local-only files copied aside before a bundle is applied.
type Backup struct {
	dir  string
	rels []string
}

// backupLocalOnly copies every destination file matching the local-only
// patterns into a temp dir. A missing destination yields an empty backup.
func backupLocalOnly(destDir string, local *layout.Matcher) (*Backup, error) {
	files, err := fscopy.ListTree(destDir, nil)
	if err != nil {
		return nil, err
	}

	var matched []string
	for _, rel := range files {
		if local.Match(rel) {
			matched = append(matched, rel)
		}
	}
	if len(matched) == 0 {
		return &Backup{}, nil
	}

	dir, err := os.MkdirTemp("", "bmad-backup-*")
	if err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	b := &Backup{dir: dir, rels: matched}
	for _, rel := range matched {
		src := filepath.Join(destDir, filepath.FromSlash(rel))
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if err := fscopy.CopyFile(src, dst); err != nil {
			b.Discard()
			return nil, fmt.Errorf("backup %s: %w", rel, err)
		}
	}
	return b, nil
}

// Restore copies the backed-up files into destDir, overwriting anything the
// sync put at those paths: the local copy wins. Returns the restore count.
func (b *Backup) Restore(destDir string) (int, error) {
	for _, rel := range b.rels {
		src := filepath.Join(b.dir, filepath.FromSlash(rel))
		dst := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := fscopy.CopyFile(src, dst); err != nil {
			return 0, fmt.Errorf("restore %s: %w", rel, err)
		}
	}
	return len(b.rels), nil
}

// Empty reports whether the backup holds no files.
func (b *Backup) Empty() bool { return b.dir == "" }

// Dir returns the backup temp dir, empty for an empty backup.
func (b *Backup) Dir() string { return b.dir }

// Discard removes the backup temp dir. Safe to call on an empty backup and
// after Restore.
func (b *Backup) Discard() {
	if b.dir != "" {
		_ = os.RemoveAll(b.dir)
		b.dir = ""
	}
}
