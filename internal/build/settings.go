package build

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	settingsTemplate = "settings.template.json"
	settingsOutput   = "settings.json"
)

// managedDefaults are merged into the template when the template does not set
// them. Template values always win.
var managedDefaults = map[string]any{
	"includeCoAuthoredBy": false,
	"cleanupPeriodDays":   30,
}

// generatedByKey marks the output as machine-written so a drift check or a
// human can tell it apart from a hand-edited settings file.
const generatedByKey = "_generatedBy"

// GenerateSettings renders dist settings.json from the source template:
// template keys, managed defaults for anything unset, and a generator stamp.
// Key order in the output is stable (JSON object keys sort).
func GenerateSettings(templatePath, outPath, version string) error {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("read settings template: %w", err)
	}

	settings := make(map[string]any)
	if err := json.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("parse settings template: %w", err)
	}

	for k, v := range managedDefaults {
		if _, ok := settings[k]; !ok {
			settings[k] = v
		}
	}
	settings[generatedByKey] = "bmad " + version

	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	out = append(out, '\n')
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
