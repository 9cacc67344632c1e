package utils

import "strings"

// Token estimation used to keep prompts inside a model's context window.

// CountTokens estimates the number of tokens in the given text.
// Approximates 1 token ~= 4 characters.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	// Ensure at least 1 token for any non-empty text
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit naively truncates text to roughly fit within a token limit.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	// Expand limit to character count using the same 4 chars per token heuristic
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	return string(runes[:charLimit])
}

// TruncateLines keeps whole lines of text while the running estimate stays
// within limit. A marker line is appended when something was dropped.
func TruncateLines(text string, limit int) (string, bool) {
	if CountTokens(text) <= limit {
		return text, false
	}
	const marker = "... (truncated)"
	budget := limit - CountTokens(marker) - 1
	var b strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if CountTokens(b.String()+line) > budget {
			break
		}
		b.WriteString(line)
	}
	out := b.String()
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out + marker, true
}
