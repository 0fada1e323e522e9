package nlq

import (
	"regexp"
	"strings"
)

// fencePattern matches a markdown code fence, optionally tagged sql.
var fencePattern = regexp.MustCompile("(?s)```(?:sql|SQL)?\\s*\\n?(.*?)```")

// sqlKeywords are the statement starters the extraction heuristic recognizes.
var sqlKeywords = []string{"SELECT", "WITH", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP"}

// ExtractSQL pulls a SQL statement out of a model completion. A fenced code
// block wins and its contents are returned verbatim, trimmed; the prose
// around it becomes the explanation. Without a fence the whole trimmed
// completion is returned as the statement. The keyword scan is a heuristic
// signal only; callers validate executability by running the query.
func ExtractSQL(completion string) (sql string, explanation string) {
	if m := fencePattern.FindStringSubmatch(completion); m != nil {
		sql = strings.TrimSpace(m[1])
		explanation = strings.TrimSpace(fencePattern.ReplaceAllString(completion, ""))
		return sql, explanation
	}
	return strings.TrimSpace(completion), ""
}

// LooksLikeSQL reports whether any line of the text begins with a SQL
// keyword. A keyword anywhere signals the completion is likely pure SQL.
func LooksLikeSQL(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		upper := strings.ToUpper(strings.TrimSpace(line))
		for _, kw := range sqlKeywords {
			if strings.HasPrefix(upper, kw) {
				return true
			}
		}
	}
	return false
}
