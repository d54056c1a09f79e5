package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9']+`)

// Words splits text into lowercase word tokens in order. Apostrophes are kept
// inside words ("arvo's") and stripped from the edges.
func Words(text string) []string {
	raw := tokenSplitPattern.Split(strings.ToLower(text), -1)
	words := make([]string, 0, len(raw))
	for _, token := range raw {
		if token = strings.Trim(token, "'"); token != "" {
			words = append(words, token)
		}
	}
	return words
}

// Truncate shortens text to at most limit runes, appending an ellipsis when
// anything was cut. Whitespace runs collapse to single spaces first.
func Truncate(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	if limit == 1 {
		return "…"
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
