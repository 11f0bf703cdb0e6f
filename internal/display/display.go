// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output, logs, and reports. Keep raw codes
// for JSON fields, map keys, and equality comparisons.
package display

import "strings"

// --- Bundles ---

var bundles = map[string]string{
	"claude":   "Claude Code",
	"codex":    "Codex CLI",
	"opencode": "OpenCode",
	"github":   "GitHub Workflows",
	"beads":    "Beads Tracker",
	"root":     "Project Root",
}

// Bundle returns the human-readable name for a bundle.
// Unknown names are returned as-is.
func Bundle(name string) string {
	if title, ok := bundles[name]; ok {
		return title
	}
	return name
}

// BundleWithCode returns "Claude Code (claude)" format.
func BundleWithCode(name string) string {
	if title, ok := bundles[name]; ok {
		return title + " (" + name + ")"
	}
	return name
}

// --- Pipeline Stages ---

var stages = map[string]string{
	"validate": "Validate",
	"build":    "Build",
	"push":     "Push",
	"drift":    "Drift Check",
}

// Stage returns the human-readable name for a pipeline stage.
// "push" -> "Push".
func Stage(code string) string {
	if name, ok := stages[code]; ok {
		return name
	}
	return code
}

// --- Sync Actions ---

var actions = map[string]string{
	"add":      "added",
	"update":   "updated",
	"delete":   "deleted",
	"preserve": "kept local",
}

// Action returns the past-tense verb for a sync plan action.
// "preserve" -> "kept local".
func Action(code string) string {
	if verb, ok := actions[code]; ok {
		return verb
	}
	return code
}

// --- Validation Rules ---

var rules = map[string]string{
	"layout":                "Required Layout",
	"codex-policy":          "Codex Safety Policy",
	"aws-access-key":        "AWS Access Key",
	"private-key-block":     "Private Key Block",
	"github-token":          "GitHub Token",
	"slack-token":           "Slack Token",
	"bearer-token":          "Bearer Token",
	"credential-assignment": "Credential Assignment",
}

// Rule returns the human-readable name for a validation rule.
// "codex-policy" -> "Codex Safety Policy".
func Rule(code string) string {
	if name, ok := rules[code]; ok {
		return name
	}
	return code
}

// RuleWithCode returns "AWS Access Key (aws-access-key)" format.
func RuleWithCode(code string) string {
	if name, ok := rules[code]; ok {
		return name + " (" + code + ")"
	}
	return code
}

// --- Outcomes ---

var outcomes = map[string]string{
	"ok":    "OK",
	"error": "FAILED",
}

// Outcome returns the verdict word for a run outcome code.
func Outcome(code string) string {
	if word, ok := outcomes[code]; ok {
		return word
	}
	return code
}

// BundlePath joins bundle names into a readable list.
// ["claude", "root"] -> "Claude Code, Project Root"
func BundlePath(names []string) string {
	titles := make([]string, len(names))
	for i, n := range names {
		titles[i] = Bundle(n)
	}
	return strings.Join(titles, ", ")
}
