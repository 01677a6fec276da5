package domain

import "strings"

// TokenCount measures text length in whitespace tokens, the unit every
// summarization budget decision uses.
func TokenCount(text string) int {
	return len(strings.Fields(text))
}

// TruncateTokens cuts text to at most n whitespace tokens.
func TruncateTokens(text string, n int) string {
	fields := strings.Fields(text)
	if len(fields) <= n {
		return text
	}

	return strings.Join(fields[:n], " ")
}
