package llm

import (
	"regexp"
	"strings"
)

// fencedBlockRe matches the first fenced code block in a completion,
// with or without a json language tag.
var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// CleanJSONBlock removes markdown code block wrappers from JSON
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ExtractFencedJSON returns the contents of the first fenced code block in
// text, or empty string if none exists. Used as a fallback when a completion
// wraps its JSON in prose.
func ExtractFencedJSON(text string) string {
	match := fencedBlockRe.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}
