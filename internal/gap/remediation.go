package gap

import (
	"fmt"
	"strings"

	"github.com/notelens-ai/notelens/internal/framework"
)

// Suggestions derives remediation hints for one effective element. The rule
// is local and deterministic: non-present statuses always get at least one
// hint keyed on missing vs partial, present gets none.
func Suggestions(el framework.EffectiveElement, status Status) []string {
	name := el.DisplayName()
	switch status {
	case StatusMissing:
		out := []string{
			fmt.Sprintf("Add a dedicated section covering %s: %s", name, firstSentence(el.Description)),
		}
		if el.Required {
			out = append(out, fmt.Sprintf("%s is a required element (%s severity); the note cannot pass review without it.", name, el.Severity))
		} else {
			out = append(out, fmt.Sprintf("%s is recommended; documenting it strengthens the audit trail.", name))
		}
		return out
	case StatusPartial:
		out := []string{
			fmt.Sprintf("Expand the existing discussion of %s with specific, client-facing detail.", name),
		}
		if el.Guidance != "" {
			out = append(out, fmt.Sprintf("Check against the evaluation guidance: %s", firstSentence(el.Guidance)))
		}
		if el.Required && (el.Severity == framework.SeverityCritical || el.Severity == framework.SeverityHigh) {
			out = append(out, fmt.Sprintf("A partial %s element on %s can still fail the note; treat this as a priority fix.", el.Severity, name))
		}
		return out
	default:
		return nil
	}
}

// firstSentence trims a description to its first sentence for use in a hint.
func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if r == '.' || r == '\n' {
			return strings.TrimSpace(s[:i+1])
		}
	}
	return s
}
