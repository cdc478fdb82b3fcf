package judge

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/notelens-ai/notelens/internal/gap"
	"github.com/notelens-ai/notelens/internal/redact"
)

const evidenceMaxBytes = 500

// labelRe captures labelled fields; multi-line values run until the next
// label or end of string.
var labelRe = regexp.MustCompile(`(?ims)^(STATUS|SCORE|EVIDENCE|NOTES)\s*:\s*(.+?)(?:\n(?:STATUS|SCORE|EVIDENCE|NOTES)\s*:|\z)`)

var floatRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// parseElementResponse converts the judge's structured text response into a
// Judgment. Missing fields, whitespace drift, and
// malformed scores degrade to conservative values instead of failing the
// run. The raw score is clamped to [0,1] but never corrected here; score
// correction is an aggregation concern.
func parseElementResponse(response string, verbose bool) gap.Judgment {
	parsed := map[string]string{}
	rest := response
	for rest != "" {
		loc := labelRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		key := strings.ToUpper(rest[loc[2]:loc[3]])
		value := strings.TrimSpace(rest[loc[4]:loc[5]])
		if _, dup := parsed[key]; !dup {
			parsed[key] = value
		}
		// resume the scan at the next label, not past it
		next := loc[5]
		if next >= len(rest) {
			break
		}
		rest = rest[next:]
	}

	rawStatus := strings.ToLower(parsed["STATUS"])
	var status gap.Status
	switch {
	case strings.Contains(rawStatus, "partial"):
		status = gap.StatusPartial
	case strings.Contains(rawStatus, "present"):
		status = gap.StatusPresent
	default:
		status = gap.StatusMissing
	}

	score := extractFloat(parsed["SCORE"])
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	evidence := parsed["EVIDENCE"]
	switch strings.ToLower(strings.TrimSpace(evidence)) {
	case "", "none", "none found":
		evidence = ""
	}
	evidence = redact.Truncate(redact.String(evidence), evidenceMaxBytes)

	notes := ""
	if verbose {
		notes = strings.TrimSpace(parsed["NOTES"])
	}

	return gap.Judgment{
		Status:   status,
		Score:    score,
		Evidence: evidence,
		Notes:    notes,
	}
}

func extractFloat(s string) float64 {
	match := floatRe.FindString(s)
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}
