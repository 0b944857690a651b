package contextbuild

import (
	"regexp"
	"strings"
)

// elisionMarker replaces collapsed interior bodies.
const elisionMarker = "\t/* ... */"

// declPattern matches top-of-file structural lines worth preserving:
// package/import/module headers, type and function signatures, exports.
var declPattern = regexp.MustCompile(`^\s*(package |import |from |export |func |type |const |var |class |def |interface |struct |module |public |private )`)

// truncateSource reduces a source file to fit a token allotment:
// structural declaration lines are preserved first, interior bodies are
// collapsed into elision markers.
func truncateSource(content string, limit int, tok Tokenizer) string {
	if tok.Count(content) <= limit {
		return content
	}
	lines := strings.Split(content, "\n")

	var kept []string
	elided := false
	for _, line := range lines {
		if declPattern.MatchString(line) || strings.TrimSpace(line) == "" {
			if elided {
				kept = append(kept, elisionMarker)
				elided = false
			}
			kept = append(kept, line)
		} else {
			elided = true
		}
	}
	if elided {
		kept = append(kept, elisionMarker)
	}

	out := strings.Join(kept, "\n")
	// Still over budget: hard-truncate from the bottom, keeping the
	// top-of-file declarations.
	for tok.Count(out) > limit && len(kept) > 1 {
		kept = kept[:len(kept)-1]
		out = strings.Join(kept, "\n") + "\n" + elisionMarker
	}
	return out
}

// Turn is one conversation exchange.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// truncateHistory drops middle turns first. The last user turn and the
// last assistant turn are never dropped.
func truncateHistory(turns []Turn, limit int, tok Tokenizer) []Turn {
	if len(turns) == 0 {
		return nil
	}
	total := 0
	for _, t := range turns {
		total += tok.Count(t.Content)
	}
	if total <= limit {
		return turns
	}

	protected := make(map[int]bool)
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == "user" {
			protected[i] = true
			break
		}
	}
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == "assistant" {
			protected[i] = true
			break
		}
	}

	// Keep protected turns, then fill from the most recent backwards.
	budget := limit
	keep := make(map[int]bool)
	for i := range turns {
		if protected[i] {
			keep[i] = true
			budget -= tok.Count(turns[i].Content)
		}
	}
	for i := len(turns) - 1; i >= 0 && budget > 0; i-- {
		if keep[i] {
			continue
		}
		cost := tok.Count(turns[i].Content)
		if cost > budget {
			continue
		}
		keep[i] = true
		budget -= cost
	}

	var out []Turn
	for i, t := range turns {
		if keep[i] {
			out = append(out, t)
		}
	}
	return out
}

// truncateTree reduces a rendered directory tree depth-first, favoring
// ancestors of the current file. Lines are ranked by whether they lie
// on the current file's ancestor chain, then by depth.
func truncateTree(lines []string, currentFile string, limit int, tok Tokenizer) []string {
	joined := strings.Join(lines, "\n")
	if tok.Count(joined) <= limit {
		return lines
	}

	ancestors := ancestorSet(currentFile)
	maxDepth := 0
	for _, l := range lines {
		if d := treeDepth(l); d > maxDepth {
			maxDepth = d
		}
	}

	for depth := maxDepth; depth >= 0; depth-- {
		var kept []string
		for _, l := range lines {
			name := strings.TrimLeft(l, " ")
			if treeDepth(l) <= depth || ancestors[strings.TrimSuffix(name, "/")] {
				kept = append(kept, l)
			}
		}
		if tok.Count(strings.Join(kept, "\n")) <= limit {
			return kept
		}
		lines = kept
	}
	return lines
}

func ancestorSet(path string) map[string]bool {
	set := make(map[string]bool)
	if path == "" {
		return set
	}
	parts := strings.Split(path, "/")
	for i := range parts {
		set[parts[i]] = true
	}
	return set
}

func treeDepth(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n / 2
}
