package push

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bmad/internal/manifest"
)

// writeFile creates a file with parent dirs under root.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func TestPush_ReplacePreservesLocalOnly(t *testing.T) {
	dist := t.TempDir()
	writeFile(t, dist, "claude/agents/dev.md", "v2 agent")
	writeFile(t, dist, "claude/settings.json", `{"managed":true}`)

	project := t.TempDir()
	writeFile(t, project, ".claude/agents/dev.md", "v1 agent")
	writeFile(t, project, ".claude/stale.md", "removed upstream")
	writeFile(t, project, ".claude/settings.local.json", `{"mine":true}`)

	p := &Pusher{DistDir: dist, Projects: []string{project}, Version: "test"}
	results, err := p.Push(context.Background(), []string{"claude"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("project sync: %v", results[0].Err)
	}

	if got := readFile(t, project, ".claude/agents/dev.md"); got != "v2 agent" {
		t.Errorf("agent not updated: %q", got)
	}
	if got := readFile(t, project, ".claude/settings.local.json"); got != `{"mine":true}` {
		t.Errorf("local-only content changed: %q", got)
	}
	if _, err := os.Stat(filepath.Join(project, ".claude", "stale.md")); !os.IsNotExist(err) {
		t.Error("replace mode should drop files absent from dist")
	}

	br := results[0].Bundles[0]
	if br.Preserved != 1 {
		t.Errorf("Preserved = %d, want 1", br.Preserved)
	}
}

func TestPush_MergeRootWithManifestCleanup(t *testing.T) {
	dist := t.TempDir()
	writeFile(t, dist, "root/AGENTS.md", "agents v2")
	writeFile(t, dist, "root/docs/method.md", "method")

	project := t.TempDir()
	writeFile(t, project, "README.md", "project readme, not ours")
	writeFile(t, project, "main.go", "package main")

	p := &Pusher{DistDir: dist, Projects: []string{project}, Version: "test"}
	ctx := context.Background()

	// First sync: no manifest yet, nothing deleted.
	results, err := p.Push(ctx, []string{"root"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("sync: %v", results[0].Err)
	}
	if results[0].Bundles[0].Deleted != 0 {
		t.Errorf("first sync deleted %d files", results[0].Bundles[0].Deleted)
	}
	if got := readFile(t, project, "README.md"); got != "project readme, not ours" {
		t.Error("merge must not touch unrelated project files")
	}
	m, err := manifest.Load(project)
	if err != nil || m == nil {
		t.Fatalf("manifest after first sync: %v, %v", m, err)
	}
	if _, ok := m.Files["docs/method.md"]; !ok {
		t.Errorf("manifest missing synced file: %v", m.Files)
	}

	// Source drops docs/method.md; next sync must delete it downstream.
	if err := os.Remove(filepath.Join(dist, "root", "docs", "method.md")); err != nil {
		t.Fatal(err)
	}
	results, err = p.Push(ctx, []string{"root"})
	if err != nil {
		t.Fatalf("second Push: %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("second sync: %v", results[0].Err)
	}
	if results[0].Bundles[0].Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", results[0].Bundles[0].Deleted)
	}
	if _, err := os.Stat(filepath.Join(project, "docs", "method.md")); !os.IsNotExist(err) {
		t.Error("stale synced file should be deleted")
	}
	if got := readFile(t, project, "main.go"); got != "package main" {
		t.Error("unrelated file deleted by stale cleanup")
	}
}

func TestPush_MergeStaleAlreadyGone(t *testing.T) {
	dist := t.TempDir()
	writeFile(t, dist, "root/AGENTS.md", "agents")

	project := t.TempDir()
	m := manifest.New("test")
	m.Set("AGENTS.md", "x")
	m.Set("gone.md", "y") // tracked but never present
	if err := m.Save(project); err != nil {
		t.Fatal(err)
	}

	p := &Pusher{DistDir: dist, Projects: []string{project}, Version: "test"}
	results, err := p.Push(context.Background(), []string{"root"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("sync: %v", results[0].Err)
	}
	if d := results[0].Bundles[0].Deleted; d != 0 {
		t.Errorf("Deleted = %d, want 0 for already-missing stale file", d)
	}
}

func TestPush_DryRunWritesNothing(t *testing.T) {
	dist := t.TempDir()
	writeFile(t, dist, "claude/agents/dev.md", "v2")
	writeFile(t, dist, "claude/new.md", "new")

	project := t.TempDir()
	writeFile(t, project, ".claude/agents/dev.md", "v1")
	writeFile(t, project, ".claude/stale.md", "old")
	writeFile(t, project, ".claude/settings.local.json", "{}")

	p := &Pusher{DistDir: dist, Projects: []string{project}, DryRun: true, Version: "test"}
	results, err := p.Push(context.Background(), []string{"claude"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	br := results[0].Bundles[0]

	want := []PlanEntry{
		{Action: ActionUpdate, Rel: "agents/dev.md"},
		{Action: ActionAdd, Rel: "new.md"},
		{Action: ActionPreserve, Rel: "settings.local.json"},
		{Action: ActionDelete, Rel: "stale.md"},
	}
	if diff := cmp.Diff(want, br.Plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	if got := readFile(t, project, ".claude/agents/dev.md"); got != "v1" {
		t.Error("dry-run must not write")
	}
	if _, err := os.Stat(filepath.Join(project, ".claude", "stale.md")); err != nil {
		t.Error("dry-run must not delete")
	}
}

func TestPush_BadProjectDoesNotAbortOthers(t *testing.T) {
	dist := t.TempDir()
	writeFile(t, dist, "github/workflows/ci.yaml", "on: push")

	good := t.TempDir()
	bad := filepath.Join(t.TempDir(), "does-not-exist")

	p := &Pusher{DistDir: dist, Projects: []string{bad, good}, Parallel: 2, Version: "test"}
	results, err := p.Push(context.Background(), []string{"github"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if results[0].Err == nil {
		t.Error("missing project should record an error")
	}
	if results[1].Err != nil {
		t.Errorf("good project failed: %v", results[1].Err)
	}
	if _, err := os.Stat(filepath.Join(good, ".github", "workflows", "ci.yaml")); err != nil {
		t.Errorf("good project not synced: %v", err)
	}
}

func TestPush_UnbuiltDistRefused(t *testing.T) {
	p := &Pusher{DistDir: t.TempDir(), Projects: []string{t.TempDir()}}
	if _, err := p.Push(context.Background(), []string{"claude"}); err == nil {
		t.Error("push without a built dist should fail")
	}
}

func TestPush_UnknownBundle(t *testing.T) {
	p := &Pusher{DistDir: t.TempDir(), Projects: []string{t.TempDir()}}
	if _, err := p.Push(context.Background(), []string{"bogus"}); err == nil {
		t.Error("unknown bundle should fail")
	}
}

func TestPush_KeepsBackupWhenRestoreFails(t *testing.T) {
	dist := t.TempDir()
	writeFile(t, dist, "claude/agents/dev.md", "# dev")
	// dist ships a directory at the path the project keeps a local-only file,
	// so restoring the file over it must fail after the replace.
	writeFile(t, dist, "claude/settings.local.json/inner.md", "collides")

	project := t.TempDir()
	writeFile(t, project, ".claude/settings.local.json", `{"private":true}`)

	p := &Pusher{DistDir: dist, Projects: []string{project}, Version: "test"}
	results, err := p.Push(context.Background(), []string{"claude"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	res := results[0]
	if res.Err == nil {
		t.Fatal("restoring a file over a directory should fail")
	}

	const marker = "local-only backup kept at "
	msg := res.Err.Error()
	idx := strings.Index(msg, marker)
	if idx < 0 {
		t.Fatalf("error should name the kept backup dir: %v", res.Err)
	}
	dir := strings.TrimSuffix(msg[idx+len(marker):], ")")
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	data, err := os.ReadFile(filepath.Join(dir, "settings.local.json"))
	if err != nil {
		t.Fatalf("kept backup is missing the local-only file: %v", err)
	}
	if string(data) != `{"private":true}` {
		t.Errorf("backup content = %s", data)
	}
}
