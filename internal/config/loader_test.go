package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadFromPath_Missing(t *testing.T) {
	c, err := LoadFromPath(filepath.Join(t.TempDir(), "bmad.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Errorf("missing config should yield defaults (-want +got):\n%s", diff)
	}
}

func TestLoadFromPath_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bmad.yaml")
	content := `source_dir: staging
projects:
  - ../proj-a
  - ../proj-b
local_only:
  - "*.scratch"
parallel: 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if c.SourceDir != "staging" {
		t.Errorf("SourceDir = %q", c.SourceDir)
	}
	if c.DistDir != "dist" {
		t.Errorf("DistDir default not applied: %q", c.DistDir)
	}
	if len(c.Projects) != 2 || c.Projects[1] != "../proj-b" {
		t.Errorf("Projects = %v", c.Projects)
	}
	if c.Parallel != 4 {
		t.Errorf("Parallel = %d", c.Parallel)
	}
	if c.HistoryDB != DefaultHistoryDB {
		t.Errorf("HistoryDB default not applied: %q", c.HistoryDB)
	}
}

func TestLoad_DetectJSON(t *testing.T) {
	data := []byte(`{"source_dir":"s","dist_dir":"d","projects":["/p"]}`)
	c, err := Load(data, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.SourceDir != "s" || c.DistDir != "d" || len(c.Projects) != 1 {
		t.Errorf("got %+v", c)
	}
}

func TestLoad_DetectYAML(t *testing.T) {
	data := []byte("dist_dir: out\n")
	c, err := Load(data, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DistDir != "out" || c.SourceDir != "src" {
		t.Errorf("got %+v", c)
	}
}
