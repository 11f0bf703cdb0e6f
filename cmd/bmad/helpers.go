package main

import (
	"path/filepath"

	"bmad/internal/config"
	"bmad/internal/history"
)

// loadConfig reads the config file named by --config. A missing file yields
// the defaults.
func loadConfig() (*config.Config, error) {
	return config.LoadFromPath(rootFlags.configPath)
}

// resolvePath resolves a config-relative path against the config file's
// directory. Absolute paths pass through.
func resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(rootFlags.configPath), p)
}

// resolveProjects resolves every configured project root.
func resolveProjects(cfg *config.Config) []string {
	out := make([]string, len(cfg.Projects))
	for i, p := range cfg.Projects {
		out[i] = resolvePath(p)
	}
	return out
}

// openJournal opens the run journal at the configured path.
func openJournal(cfg *config.Config) (history.Store, error) {
	st, err := history.Open(resolvePath(cfg.HistoryDB))
	if err != nil {
		return nil, err
	}
	return st, nil
}
