package discovery

import (
	"strings"
	"unicode/utf8"
)

const (
	// minSentenceLen is the length a first sentence must exceed to be used
	// as the summary on its own.
	minSentenceLen = 10
	maxSummaryLen  = 100
	truncatedLen   = 97
)

// Summarize derives a short summary from page content. The first sentence
// (text before the first '.', or all of it when there is none) is used when
// it is longer than ten characters; otherwise content over 100 characters is
// cut to 97 and given an ellipsis. Content over 100 characters without any
// period is always cut. Lengths count characters, not bytes.
func Summarize(content string) string {
	length := utf8.RuneCountInString(content)

	first, _, found := strings.Cut(content, ".")
	if (found || length <= maxSummaryLen) && utf8.RuneCountInString(first) > minSentenceLen {
		return strings.TrimSpace(first) + "."
	}

	if length > maxSummaryLen {
		runes := []rune(content)
		return strings.TrimSpace(string(runes[:truncatedLen])) + "..."
	}

	return strings.TrimSpace(content)
}
