// Package push is the third pipeline stage: it syncs built bundles from
// dist/ into destination projects.
//
// Per bundle and project the sequence is backup, apply, restore: local-only
// paths are copied aside, the destination is replaced (or merged, for the
// root bundle) from dist/, and the local-only content is put back. After a
// push the destination's local-only paths are byte-identical to their
// pre-push state and everything else matches dist/.
package push

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"bmad/internal/fscopy"
	"bmad/internal/layout"
	"bmad/internal/logging"
	"bmad/internal/manifest"
)

// Action classifies one planned file operation.
type Action string

const (
	ActionAdd      Action = "add"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionPreserve Action = "preserve"
)

// PlanEntry is one file operation a push would perform.
type PlanEntry struct {
	Action Action `json:"action"`
	Rel    string `json:"path"`
}

// BundleResult summarizes one bundle applied to one project.
type BundleResult struct {
	Bundle    string      `json:"bundle"`
	Written   int         `json:"written"`
	Deleted   int         `json:"deleted"`
	Preserved int         `json:"preserved"`
	Plan      []PlanEntry `json:"plan,omitempty"`
}

// ProjectResult is the outcome for one destination project. Err is recorded
// instead of aborting the other projects.
type ProjectResult struct {
	Project string         `json:"project"`
	Bundles []BundleResult `json:"bundles,omitempty"`
	Err     error          `json:"-"`
}

// Pusher syncs dist/ bundles into destination projects.
type Pusher struct {
	// DistDir is the build output root the sync reads from.
	DistDir string
	// Projects are destination repository roots.
	Projects []string
	// ExtraLocalOnly adds preserve patterns from configuration.
	ExtraLocalOnly []string
	// Parallel bounds concurrent project syncs. <=1 means serial.
	Parallel int
	// DryRun computes and returns plans without touching any project.
	DryRun bool
	// Version is stamped into written manifests.
	Version string
}

// Push applies the named bundles (or all) to every configured project.
// The returned slice has one entry per project, in Projects order.
func (p *Pusher) Push(ctx context.Context, names []string) ([]ProjectResult, error) {
	bundles, err := p.resolve(names)
	if err != nil {
		return nil, err
	}
	if len(p.Projects) == 0 {
		return nil, fmt.Errorf("no destination projects configured")
	}

	logger := logging.New("pusher")
	results := make([]ProjectResult, len(p.Projects))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	limit := p.Parallel
	if limit <= 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, project := range p.Projects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				mu.Lock()
				results[i] = ProjectResult{Project: project, Err: err}
				mu.Unlock()
				return nil
			}
			res := p.syncProject(project, bundles)
			if res.Err != nil {
				logger.Error("project sync failed", "project", project, "error", res.Err)
			} else {
				logger.Info("project synced", "project", project, "bundles", len(res.Bundles), "dry_run", p.DryRun)
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil // per-project errors live in the result
		})
	}
	_ = g.Wait()

	return results, nil
}

// resolve checks bundle names and confirms dist/ holds a build for each.
func (p *Pusher) resolve(names []string) ([]layout.Bundle, error) {
	var bundles []layout.Bundle
	if len(names) == 0 {
		bundles = layout.Bundles()
	} else {
		requested := make(map[string]bool, len(names))
		for _, n := range names {
			if _, ok := layout.Find(n); !ok {
				return nil, fmt.Errorf("unknown bundle %q (known: %v)", n, layout.Names())
			}
			requested[n] = true
		}
		for _, b := range layout.Bundles() {
			if requested[b.Name] {
				bundles = append(bundles, b)
			}
		}
	}
	for _, b := range bundles {
		distDir := filepath.Join(p.DistDir, b.Name)
		if _, err := os.Stat(distDir); err != nil {
			return nil, fmt.Errorf("dist bundle %s missing — run `bmad build` first: %w", b.Name, err)
		}
	}
	return bundles, nil
}

func (p *Pusher) syncProject(project string, bundles []layout.Bundle) ProjectResult {
	res := ProjectResult{Project: project}
	if info, err := os.Stat(project); err != nil || !info.IsDir() {
		res.Err = fmt.Errorf("destination project %s is not a directory", project)
		return res
	}
	for _, b := range bundles {
		br, err := p.syncBundle(project, b)
		if err != nil {
			res.Err = fmt.Errorf("sync %s: %w", b.Name, err)
			return res
		}
		res.Bundles = append(res.Bundles, br)
	}
	return res
}

func (p *Pusher) syncBundle(project string, b layout.Bundle) (BundleResult, error) {
	distDir := filepath.Join(p.DistDir, b.Name)
	destDir := filepath.Join(project, filepath.FromSlash(b.Dest))
	local := b.LocalOnlyMatcher(p.ExtraLocalOnly...)

	if p.DryRun {
		return p.planBundle(b, distDir, destDir, local)
	}

	backup, err := backupLocalOnly(destDir, local)
	if err != nil {
		return BundleResult{}, err
	}

	var br BundleResult
	switch b.Mode {
	case layout.ModeMerge:
		br, err = p.mergeBundle(b, distDir, destDir, local)
	default:
		br, err = p.replaceBundle(b, distDir, destDir)
	}
	if err != nil {
		return BundleResult{}, keepBackup(backup, err)
	}

	restored, err := backup.Restore(destDir)
	if err != nil {
		return BundleResult{}, keepBackup(backup, err)
	}
	backup.Discard()
	br.Preserved = restored
	return br, nil
}

// keepBackup handles a failure after the destination may already be modified.
// The temp dir is then the only remaining copy of the local-only files, so it
// is kept and named in the error instead of discarded.
func keepBackup(b *Backup, err error) error {
	if b.Empty() {
		return err
	}
	return fmt.Errorf("%w (local-only backup kept at %s)", err, b.Dir())
}

// replaceBundle recreates destDir from the dist bundle.
func (p *Pusher) replaceBundle(b layout.Bundle, distDir, destDir string) (BundleResult, error) {
	if err := fscopy.RemoveTree(destDir); err != nil {
		return BundleResult{}, err
	}
	copied, err := fscopy.CopyTree(distDir, destDir, nil)
	if err != nil {
		return BundleResult{}, err
	}
	return BundleResult{Bundle: b.Name, Written: len(copied)}, nil
}

// mergeBundle copies dist files over destDir without removing unrelated
// content, then deletes files the previous manifest synced but dist no
// longer ships, and writes a fresh manifest.
func (p *Pusher) mergeBundle(b layout.Bundle, distDir, destDir string, local *layout.Matcher) (BundleResult, error) {
	current, err := hashTree(distDir)
	if err != nil {
		return BundleResult{}, err
	}

	copied, err := fscopy.CopyTree(distDir, destDir, nil)
	if err != nil {
		return BundleResult{}, err
	}

	prev, err := manifest.Load(destDir)
	if err != nil {
		return BundleResult{}, err
	}

	deleted := 0
	for _, rel := range prev.Stale(current) {
		if local.Match(rel) {
			continue
		}
		path := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue // already gone, cleanup is idempotent
			}
			return BundleResult{}, fmt.Errorf("delete stale %s: %w", rel, err)
		}
		deleted++
	}

	m := manifest.New(p.Version)
	for rel, hash := range current {
		m.Set(rel, hash)
	}
	if err := m.Save(destDir); err != nil {
		return BundleResult{}, err
	}

	return BundleResult{Bundle: b.Name, Written: len(copied), Deleted: deleted}, nil
}

// planBundle computes what a push would do, writing nothing.
func (p *Pusher) planBundle(b layout.Bundle, distDir, destDir string, local *layout.Matcher) (BundleResult, error) {
	distFiles, err := fscopy.ListTree(distDir, nil)
	if err != nil {
		return BundleResult{}, err
	}
	destFiles, err := fscopy.ListTree(destDir, nil)
	if err != nil {
		return BundleResult{}, err
	}
	destSet := make(map[string]bool, len(destFiles))
	for _, rel := range destFiles {
		destSet[rel] = true
	}
	distSet := make(map[string]bool, len(distFiles))
	for _, rel := range distFiles {
		distSet[rel] = true
	}

	br := BundleResult{Bundle: b.Name}
	for _, rel := range distFiles {
		if !destSet[rel] {
			br.Plan = append(br.Plan, PlanEntry{Action: ActionAdd, Rel: rel})
			br.Written++
			continue
		}
		same, err := fscopy.SameContent(
			filepath.Join(distDir, filepath.FromSlash(rel)),
			filepath.Join(destDir, filepath.FromSlash(rel)),
		)
		if err != nil {
			return BundleResult{}, err
		}
		if !same {
			br.Plan = append(br.Plan, PlanEntry{Action: ActionUpdate, Rel: rel})
			br.Written++
		}
	}

	switch b.Mode {
	case layout.ModeMerge:
		prev, err := manifest.Load(destDir)
		if err != nil {
			return BundleResult{}, err
		}
		current := make(map[string]string, len(distFiles))
		for _, rel := range distFiles {
			current[rel] = ""
		}
		for _, rel := range prev.Stale(current) {
			if local.Match(rel) || !destSet[rel] {
				continue
			}
			br.Plan = append(br.Plan, PlanEntry{Action: ActionDelete, Rel: rel})
			br.Deleted++
		}
	default:
		for _, rel := range destFiles {
			if distSet[rel] {
				continue
			}
			if local.Match(rel) {
				br.Plan = append(br.Plan, PlanEntry{Action: ActionPreserve, Rel: rel})
				br.Preserved++
				continue
			}
			br.Plan = append(br.Plan, PlanEntry{Action: ActionDelete, Rel: rel})
			br.Deleted++
		}
	}

	return br, nil
}

// hashTree maps every file under root to its content hash.
func hashTree(root string) (map[string]string, error) {
	files, err := fscopy.ListTree(root, nil)
	if err != nil {
		return nil, err
	}
	hashes := make(map[string]string, len(files))
	for _, rel := range files {
		h, err := fscopy.HashFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		hashes[rel] = h
	}
	return hashes, nil
}
