package agent

import (
	"regexp"
	"strings"
)

const maxAnswerSentences = 3

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// negativePhrases mark a suggestion response as a decline rather than a
// malformed config.
var negativePhrases = []string{
	"not suitable",
	"cannot be visualized",
	"can't be visualized",
	"cannot be displayed",
	"no visualization",
	"i don't know",
	"i do not know",
}

// NormalizeEscapes replaces literal escape sequences that models sometimes
// emit in place of real characters.
func NormalizeEscapes(s string) string {
	r := strings.NewReplacer(
		`\n`, "\n",
		`\t`, "\t",
		`\"`, `"`,
	)
	return r.Replace(s)
}

// FirstParagraph returns the text up to the first blank line.
func FirstParagraph(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n\n"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

// CapSentences truncates the text to at most n sentences. Text without
// terminal punctuation counts as a single sentence and passes through.
func CapSentences(s string, n int) string {
	matches := sentencePattern.FindAllString(s, -1)
	if len(matches) <= n {
		return s
	}
	return strings.TrimSpace(strings.Join(matches[:n], ""))
}

// TruncateAnswer enforces a terse user-facing answer regardless of model
// verbosity: escapes normalized, first paragraph only, at most three
// sentences.
func TruncateAnswer(s string) string {
	return CapSentences(FirstParagraph(NormalizeEscapes(s)), maxAnswerSentences)
}

// IsDeclined reports whether a suggestion response means "no suggestion":
// a literal null or one of the known negative phrasings.
func IsDeclined(response string) bool {
	lower := strings.ToLower(strings.TrimSpace(response))
	if lower == "null" || lower == `"null"` {
		return true
	}
	for _, phrase := range negativePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
