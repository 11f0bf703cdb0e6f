// Package layout defines the bundle registry: which subtrees of src/ are
// built and where each one lands inside a destination project.
//
// A bundle is an opaque file tree. The pipeline never interprets bundle
// content; it only copies, skips, and preserves paths by name.
package layout

import (
	"sort"

	ignore "github.com/sabhiram/go-gitignore"
)

// Mode controls how a bundle is applied to a destination project.
type Mode string

const (
	// ModeReplace removes the destination directory and recreates it from dist/.
	ModeReplace Mode = "replace"
	// ModeMerge copies files over the destination without removing unrelated
	// content. Stale files are cleaned up via the sync manifest instead.
	ModeMerge Mode = "merge"
)

// Bundle is one named source tree under src/ with its destination mapping.
type Bundle struct {
	Name string
	// Dest is the directory inside a destination project, relative to the
	// project root. "." means the project root itself.
	Dest string
	Mode Mode
	// Required paths (relative to the bundle root) that must exist in src/
	// before a build and in dist/ after it.
	Required []string
	// LocalOnly are gitignore-style patterns, relative to the bundle root,
	// for destination paths that are never overwritten or deleted by a push.
	LocalOnly []string
}

// bundles is the registry, in build order. root goes last so a merge into the
// project root happens after the dotted directories are in place.
var bundles = []Bundle{
	{
		Name:      "claude",
		Dest:      ".claude",
		Mode:      ModeReplace,
		Required:  []string{"agents", "commands", "settings.template.json"},
		LocalOnly: []string{"settings.local.json", "local/"},
	},
	{
		Name:      "codex",
		Dest:      ".codex",
		Mode:      ModeReplace,
		Required:  []string{"config.toml", "prompts"},
		LocalOnly: []string{"auth.json", "sessions/", "log/"},
	},
	{
		Name:      "opencode",
		Dest:      ".opencode",
		Mode:      ModeReplace,
		Required:  []string{"agent"},
		LocalOnly: []string{"auth.json", "node_modules/"},
	},
	{
		Name:     "github",
		Dest:     ".github",
		Mode:     ModeReplace,
		Required: []string{"workflows"},
	},
	{
		Name:      "beads",
		Dest:      ".beads",
		Mode:      ModeReplace,
		LocalOnly: []string{"*.db", "scratch/"},
	},
	{
		Name:      "root",
		Dest:      ".",
		Mode:      ModeMerge,
		Required:  []string{"AGENTS.md"},
		LocalOnly: []string{"*.local.md"},
	},
}

// alwaysSkip are junk patterns excluded from every copy, in src/ and dist/ alike.
var alwaysSkip = []string{
	".git/",
	"node_modules/",
	".DS_Store",
	"Thumbs.db",
	"*.swp",
}

// Bundles returns the registry in build order.
func Bundles() []Bundle {
	out := make([]Bundle, len(bundles))
	copy(out, bundles)
	return out
}

// Find returns the bundle with the given name.
func Find(name string) (Bundle, bool) {
	for _, b := range bundles {
		if b.Name == name {
			return b, true
		}
	}
	return Bundle{}, false
}

// Names returns all bundle names, sorted.
func Names() []string {
	names := make([]string, 0, len(bundles))
	for _, b := range bundles {
		names = append(names, b.Name)
	}
	sort.Strings(names)
	return names
}

// Matcher answers whether a bundle-relative path matches a pattern set.
type Matcher struct {
	ign *ignore.GitIgnore
}

// Match reports whether rel (slash-separated, relative to the bundle root)
// matches any pattern.
func (m *Matcher) Match(rel string) bool {
	if m == nil || m.ign == nil {
		return false
	}
	return m.ign.MatchesPath(rel)
}

// SkipMatcher builds the copy skip-list for a bundle: junk patterns plus the
// bundle's local-only patterns plus any extras from configuration.
func (b Bundle) SkipMatcher(extra ...string) *Matcher {
	lines := make([]string, 0, len(alwaysSkip)+len(b.LocalOnly)+len(extra))
	lines = append(lines, alwaysSkip...)
	lines = append(lines, b.LocalOnly...)
	lines = append(lines, extra...)
	return &Matcher{ign: ignore.CompileIgnoreLines(lines...)}
}

// LocalOnlyMatcher matches only the preserved destination paths, without the
// junk patterns. Used by the pusher's backup/restore step.
func (b Bundle) LocalOnlyMatcher(extra ...string) *Matcher {
	lines := make([]string, 0, len(b.LocalOnly)+len(extra))
	lines = append(lines, b.LocalOnly...)
	lines = append(lines, extra...)
	if len(lines) == 0 {
		return &Matcher{}
	}
	return &Matcher{ign: ignore.CompileIgnoreLines(lines...)}
}
