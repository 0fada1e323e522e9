// Package sqltext cleans language-model output before it reaches a database
// driver. The model is treated as untrusted: its completions carry markdown
// artifacts, commentary, and occasionally nothing executable at all.
package sqltext

import (
	"regexp"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
)

var fencePattern = regexp.MustCompile("(?s)```(?:sql|SQL)?\\s*\\n?(.*?)```")

// StripArtifacts removes markdown code fences and stray backticks the model
// wraps around SQL. If a fenced block exists, its contents replace the whole
// string; otherwise only loose backticks are dropped.
func StripArtifacts(s string) string {
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.ReplaceAll(s, "```", "")
	// MySQL identifiers legitimately use backticks only in pairs around a
	// word; lone backticks are markdown residue.
	s = strings.Trim(s, "` \t\r\n")
	return strings.TrimSpace(s)
}

// IsCommentOnly reports whether the text contains only SQL comments and
// whitespace with no SELECT anywhere. Such output is the model declining to
// answer ("-- no query possible") and must not reach the driver.
func IsCommentOnly(s string) bool {
	if strings.Contains(strings.ToUpper(s), "SELECT") {
		return false
	}
	sawContent := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sawContent = true
		if !strings.HasPrefix(line, "--") && !strings.HasPrefix(line, "/*") && !strings.HasPrefix(line, "*") {
			return false
		}
	}
	return sawContent
}

// Sanitize prepares generated SQL for execution. ok is false when the text
// should short-circuit to an empty result without touching the driver.
func Sanitize(raw string) (clean string, ok bool) {
	clean = StripArtifacts(raw)
	if clean == "" {
		return "", false
	}
	if IsCommentOnly(clean) {
		return "", false
	}
	return clean, true
}

// CheckParam scans a string parameter for SQL-injection patterns using
// libinjection. Non-string parameters cannot carry injection and pass.
// Returns the detected fingerprint and true when a pattern is found.
func CheckParam(value any) (string, bool) {
	s, isString := value.(string)
	if !isString {
		return "", false
	}
	isSQLi, fingerprint := libinjection.IsSQLi(s)
	if isSQLi {
		return string(fingerprint), true
	}
	return "", false
}
