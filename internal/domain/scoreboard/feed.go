// Package scoreboard parses the compact plaintext ticker published per league
// and classifies a tracked team's game line.
package scoreboard

import (
	"net/url"
	"regexp"
	"strings"
)

// ExtractTeamLine decodes the raw ticker into its announcement fragments and
// returns the first one mentioning the team as a whole word. The ticker is a
// query-string-like concatenation decorated with caret characters; fragment
// order is preserved. A missing line is not an error, it means no game today.
func ExtractTeamLine(raw, teamName string) (string, bool) {
	if strings.TrimSpace(raw) == "" || strings.TrimSpace(teamName) == "" {
		return "", false
	}

	namePattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(teamName) + `\b`)
	if err != nil {
		return "", false
	}

	cleaned := strings.ReplaceAll(raw, "^", "")
	for _, fragment := range strings.Split(cleaned, "&") {
		parts := strings.SplitN(fragment, "=", 2)
		if len(parts) != 2 {
			continue
		}
		value, err := url.QueryUnescape(parts[1])
		if err != nil {
			continue
		}
		if namePattern.MatchString(value) {
			return strings.TrimSpace(value), true
		}
	}

	return "", false
}
