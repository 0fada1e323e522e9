package logging

import "regexp"

const (
	// MaxQueryLogLength caps how much of a generated query reaches a log line.
	MaxQueryLogLength = 120
	// RedactedText replaces sensitive values in logged strings.
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// api keys in key=value form
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// user:pass@host inside a DSN
	dsnCredsPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// SanitizeDSN removes credentials from a connection string before logging.
func SanitizeDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	s := passwordPattern.ReplaceAllString(dsn, "${1}="+RedactedText)
	return dsnCredsPattern.ReplaceAllString(s, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeError strips credential material from error text before logging.
// Driver errors can echo the DSN back verbatim.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	s := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	s = apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	return dsnCredsPattern.ReplaceAllString(s, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeQuery truncates a SQL string for logging and redacts anything
// that looks like an inline credential.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	s := query
	if len(s) > MaxQueryLogLength {
		s = s[:MaxQueryLogLength] + "..."
	}
	s = passwordPattern.ReplaceAllString(s, "${1}="+RedactedText)
	return apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
}
