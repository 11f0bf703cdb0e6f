package config

// DefaultPath is the default config filename, resolved against the repo root.
const DefaultPath = "bmad.yaml"

// DefaultHistoryDB is the default relative path for the run-journal SQLite DB.
// Open() creates the parent dir (.bmad) if needed.
const DefaultHistoryDB = ".bmad/bmad.db"

// Config is the pipeline configuration: staging layout, destination projects,
// and extra preservation patterns on top of the built-in bundle registry.
type Config struct {
	// SourceDir is the staging area, usually "src".
	SourceDir string `json:"source_dir" yaml:"source_dir"`
	// DistDir is the build output, usually "dist".
	DistDir string `json:"dist_dir" yaml:"dist_dir"`
	// Projects are destination repositories, absolute or relative to the
	// config file's directory.
	Projects []string `json:"projects" yaml:"projects"`
	// LocalOnly adds gitignore-style preserve patterns applied to every bundle.
	LocalOnly []string `json:"local_only,omitempty" yaml:"local_only,omitempty"`
	// Parallel bounds concurrent project syncs during push. 0 means serial.
	Parallel int `json:"parallel,omitempty" yaml:"parallel,omitempty"`
	// HistoryDB overrides the run-journal DB path.
	HistoryDB string `json:"history_db,omitempty" yaml:"history_db,omitempty"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		SourceDir: "src",
		DistDir:   "dist",
		HistoryDB: DefaultHistoryDB,
	}
}

// applyDefaults fills zero-valued fields after parsing.
func (c *Config) applyDefaults() {
	if c.SourceDir == "" {
		c.SourceDir = "src"
	}
	if c.DistDir == "" {
		c.DistDir = "dist"
	}
	if c.HistoryDB == "" {
		c.HistoryDB = DefaultHistoryDB
	}
	if c.Parallel < 0 {
		c.Parallel = 0
	}
}
