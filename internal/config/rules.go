package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cadenroberts/ollamabot/internal/fsutil"
)

// RulesFileName is the per-project rules file in the workspace root.
const RulesFileName = ".obotrules"

// Rules are the parsed per-project instructions.
type Rules struct {
	SystemPrompt  string
	Constraints   []string
	Ignore        []string
	QualityPreset string
	ModelOverride string
}

// Empty reports whether no rule was set.
func (r Rules) Empty() bool {
	return r.SystemPrompt == "" && len(r.Constraints) == 0 && len(r.Ignore) == 0 &&
		r.QualityPreset == "" && r.ModelOverride == ""
}

// LoadRules reads and parses the workspace rules file. A missing file
// yields empty rules, not an error.
func LoadRules(workspace string) (Rules, error) {
	path := filepath.Join(workspace, RulesFileName)
	data, err := fsutil.ReadFileScoped(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Rules{}, nil
		}
		return Rules{}, err
	}
	return ParseRules(string(data)), nil
}

// ParseRules parses the rules grammar: headed sections (# System
// Prompt, # Constraints, # Ignore) plus quality:/model: key lines.
func ParseRules(content string) Rules {
	var rules Rules
	section := ""
	var systemLines []string

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "# ") {
			section = strings.ToLower(strings.TrimSpace(trimmed[2:]))
			continue
		}
		if kv := strings.SplitN(trimmed, ":", 2); len(kv) == 2 && section == "" {
			key := strings.ToLower(strings.TrimSpace(kv[0]))
			value := strings.TrimSpace(kv[1])
			switch key {
			case "quality":
				rules.QualityPreset = value
				continue
			case "model":
				rules.ModelOverride = value
				continue
			}
		}
		if trimmed == "" {
			continue
		}

		switch section {
		case "system prompt":
			systemLines = append(systemLines, line)
		case "constraints":
			rules.Constraints = append(rules.Constraints, strings.TrimPrefix(trimmed, "- "))
		case "ignore":
			rules.Ignore = append(rules.Ignore, trimmed)
		}
	}
	rules.SystemPrompt = strings.Join(systemLines, "\n")
	return rules
}

// Ignored reports whether a path matches any ignore pattern. Patterns
// match by prefix or glob base name.
func (r Rules) Ignored(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range r.Ignore {
		p := filepath.ToSlash(pattern)
		if strings.HasPrefix(slashed, strings.TrimSuffix(p, "/")) {
			return true
		}
		if ok, _ := filepath.Match(p, filepath.Base(slashed)); ok {
			return true
		}
	}
	return false
}
