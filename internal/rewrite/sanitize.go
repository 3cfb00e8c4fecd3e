package rewrite

import "strings"

// StripMarkdownFences removes the outermost ``` fence pair from a model
// response. Text without fences is returned unchanged.
func StripMarkdownFences(s string) string {
	lines := strings.Split(s, "\n")

	start := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			start = i
			break
		}
	}
	if start < 0 {
		return s
	}

	end := len(lines)
	for i := len(lines) - 1; i > start; i-- {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			end = i
			break
		}
	}
	return strings.Join(lines[start+1:end], "\n")
}
