package llm

import "strings"

// extractJSON strips a markdown code fence around a JSON reply, if any.
func extractJSON(content string) string {
	if _, rest, ok := strings.Cut(content, "```json"); ok {
		body, _, _ := strings.Cut(rest, "```")
		return strings.TrimSpace(body)
	}
	if _, rest, ok := strings.Cut(content, "```"); ok {
		body, _, _ := strings.Cut(rest, "```")
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(content)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
