package build

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
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

// scaffoldSrc lays down a minimal buildable src/ tree.
func scaffoldSrc(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	writeFile(t, src, "claude/agents/dev.md", "# dev agent")
	writeFile(t, src, "claude/commands/plan.md", "# plan")
	writeFile(t, src, "claude/settings.template.json", `{"model":"sonnet"}`)
	writeFile(t, src, "claude/settings.local.json", `{"private":true}`)
	writeFile(t, src, "codex/config.toml", "model = \"o4\"\n")
	writeFile(t, src, "codex/prompts/start.md", "go")
	writeFile(t, src, "opencode/agent/dev.md", "# dev")
	writeFile(t, src, "github/workflows/ci.yaml", "on: push")
	writeFile(t, src, "beads/README.md", "beads")
	writeFile(t, src, "root/AGENTS.md", "# agents")
	return src
}

func TestBuild_AllBundles(t *testing.T) {
	src := scaffoldSrc(t)
	dist := t.TempDir()
	b := &Builder{SrcDir: src, DistDir: dist, Version: "test"}

	results, err := b.Build(nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("want 6 bundle results, got %d", len(results))
	}

	for _, rel := range []string{
		"claude/agents/dev.md",
		"claude/settings.json",
		"codex/config.toml",
		"github/workflows/ci.yaml",
		"root/AGENTS.md",
	} {
		if _, err := os.Stat(filepath.Join(dist, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing output %s: %v", rel, err)
		}
	}
}

func TestBuild_SkipsLocalOnlyAndTemplate(t *testing.T) {
	src := scaffoldSrc(t)
	dist := t.TempDir()
	b := &Builder{SrcDir: src, DistDir: dist, Version: "test"}

	if _, err := b.Build([]string{"claude"}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dist, "claude", "settings.local.json")); !os.IsNotExist(err) {
		t.Error("settings.local.json must not ship in dist")
	}
	if _, err := os.Stat(filepath.Join(dist, "claude", "settings.template.json")); !os.IsNotExist(err) {
		t.Error("settings.template.json must not ship in dist")
	}
}

func TestBuild_CleansPreviousOutput(t *testing.T) {
	src := scaffoldSrc(t)
	dist := t.TempDir()
	writeFile(t, dist, "claude/stale.md", "left over from last build")
	b := &Builder{SrcDir: src, DistDir: dist, Version: "test"}

	if _, err := b.Build([]string{"claude"}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dist, "claude", "stale.md")); !os.IsNotExist(err) {
		t.Error("stale dist content should be removed by rebuild")
	}
}

func TestBuild_UnknownBundle(t *testing.T) {
	b := &Builder{SrcDir: t.TempDir(), DistDir: t.TempDir()}
	if _, err := b.Build([]string{"bogus"}); err == nil {
		t.Error("unknown bundle should fail")
	}
}

func TestBuild_MissingRequiredOutput(t *testing.T) {
	src := scaffoldSrc(t)
	if err := os.RemoveAll(filepath.Join(src, "github", "workflows")); err != nil {
		t.Fatal(err)
	}
	b := &Builder{SrcDir: src, DistDir: t.TempDir(), Version: "test"}

	_, err := b.Build([]string{"github"})
	if err == nil || !strings.Contains(err.Error(), "post-build check") {
		t.Errorf("want post-build check failure, got %v", err)
	}
}

func TestGenerateSettings(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "settings.template.json")
	out := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(tmpl, []byte(`{"model":"sonnet","cleanupPeriodDays":7}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := GenerateSettings(tmpl, out, "1.0.0"); err != nil {
		t.Fatalf("GenerateSettings: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if settings["model"] != "sonnet" {
		t.Errorf("template key lost: %v", settings["model"])
	}
	if settings["cleanupPeriodDays"] != float64(7) {
		t.Errorf("template value must win over managed default: %v", settings["cleanupPeriodDays"])
	}
	if settings["includeCoAuthoredBy"] != false {
		t.Errorf("managed default not applied: %v", settings["includeCoAuthoredBy"])
	}
	if settings["_generatedBy"] != "bmad 1.0.0" {
		t.Errorf("generator stamp missing: %v", settings["_generatedBy"])
	}
}

func TestGenerateSettings_BadTemplate(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "settings.template.json")
	if err := os.WriteFile(tmpl, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := GenerateSettings(tmpl, filepath.Join(dir, "out.json"), "dev"); err == nil {
		t.Error("broken template should fail")
	}
}

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", path)
}

func TestWatch_RebuildsOnChange(t *testing.T) {
	src := scaffoldSrc(t)
	dist := t.TempDir()
	b := &Builder{SrcDir: src, DistDir: dist, Version: "test"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Watch(ctx, []string{"claude"}, 50*time.Millisecond) }()

	// Initial build runs before the watch loop starts.
	waitForFile(t, filepath.Join(dist, "claude", "settings.json"))

	// A burst of writes coalesces into a rebuild that picks up the new file.
	writeFile(t, src, "claude/agents/extra.md", "# extra")
	writeFile(t, src, "claude/commands/ship.md", "# ship")
	waitForFile(t, filepath.Join(dist, "claude", "agents", "extra.md"))
	waitForFile(t, filepath.Join(dist, "claude", "commands", "ship.md"))

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Watch should return the context error, got %v", err)
	}
}
