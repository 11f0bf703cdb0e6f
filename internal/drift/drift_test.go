package drift

import (
	"os"
	"path/filepath"
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

func TestCheck_GithubClean(t *testing.T) {
	src := t.TempDir()
	live := t.TempDir()
	writeFile(t, src, "github/workflows/ci.yaml", "on: push")
	writeFile(t, live, ".github/workflows/ci.yaml", "on: push")

	report, err := Check("github", src, live)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.Clean() {
		t.Errorf("expected clean, got %v", report.Entries)
	}
}

func TestCheck_GithubDrift(t *testing.T) {
	src := t.TempDir()
	live := t.TempDir()
	writeFile(t, src, "github/workflows/ci.yaml", "on: push")
	writeFile(t, src, "github/workflows/release.yaml", "on: tag")
	writeFile(t, live, ".github/workflows/ci.yaml", "on: push\n# hand edit")
	writeFile(t, live, ".github/workflows/manual.yaml", "added by hand")

	report, err := Check("github", src, live)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	want := []Entry{
		{Kind: KindModified, Rel: "workflows/ci.yaml"},
		{Kind: KindMissing, Rel: "workflows/release.yaml"},
		{Kind: KindUntracked, Rel: "workflows/manual.yaml"},
	}
	if diff := cmp.Diff(want, report.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck_RootIgnoresUnrelatedFiles(t *testing.T) {
	src := t.TempDir()
	live := t.TempDir()
	writeFile(t, src, "root/AGENTS.md", "agents")
	writeFile(t, live, "AGENTS.md", "agents")
	writeFile(t, live, "main.go", "package main")
	writeFile(t, live, "README.md", "not managed")

	report, err := Check("root", src, live)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !report.Clean() {
		t.Errorf("unrelated root files must not be drift: %v", report.Entries)
	}
}

func TestCheck_RootModified(t *testing.T) {
	src := t.TempDir()
	live := t.TempDir()
	writeFile(t, src, "root/AGENTS.md", "agents v2")
	writeFile(t, live, "AGENTS.md", "agents v1, edited in place")

	report, err := Check("root", src, live)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	want := []Entry{{Kind: KindModified, Rel: "AGENTS.md"}}
	if diff := cmp.Diff(want, report.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck_RootManifestTrackedOrphans(t *testing.T) {
	src := t.TempDir()
	live := t.TempDir()
	writeFile(t, src, "root/AGENTS.md", "agents")
	writeFile(t, live, "AGENTS.md", "agents")
	writeFile(t, live, "OLD.md", "dropped from staging, still live")
	writeFile(t, live, "README.md", "never managed")

	m := manifest.New("test")
	m.Set("AGENTS.md", "x")
	m.Set("OLD.md", "y")
	m.Set("GONE.md", "z") // tracked but already deleted live
	if err := m.Save(live); err != nil {
		t.Fatal(err)
	}

	report, err := Check("root", src, live)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	want := []Entry{{Kind: KindUntracked, Rel: "OLD.md"}}
	if diff := cmp.Diff(want, report.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck_UnknownTarget(t *testing.T) {
	if _, err := Check("dist", t.TempDir(), t.TempDir()); err == nil {
		t.Error("unknown target should fail")
	}
}
