package gap

import (
	"github.com/notelens-ai/notelens/internal/framework"
)

// Classify converts the item list and the aggregated score into the terminal
// rating, evaluating the four outcomes in fixed precedence order:
//
//  1. Non-Compliant — a required critical element is missing, or a required
//     critical element is partial with a score strictly below the critical
//     partial threshold, or a required high element is missing. Each blocker
//     is individually toggleable.
//  2. Requires Attention — no hard block, but the overall score is below the
//     required pass threshold.
//  3. Minor Gaps — overall score at or above the threshold, but at least one
//     item (any severity, required or optional) is not present.
//  4. Compliant — every item is present.
//
// passed is true for Compliant and Minor Gaps only. Optional elements never
// block. The blocking comparison uses the item's displayed score; score
// correction applies to aggregation only.
func Classify(items []Item, overallScore float64, p PassPolicy) (Rating, bool) {
	if blocked(items, p) {
		return RatingNonCompliant, false
	}
	if overallScore < p.RequiredPassThreshold {
		return RatingRequiresAttention, false
	}
	for _, it := range items {
		if it.Status != StatusPresent {
			return RatingMinorGaps, true
		}
	}
	return RatingCompliant, true
}

func blocked(items []Item, p PassPolicy) bool {
	for _, it := range items {
		if !it.Required {
			continue
		}
		switch it.Severity {
		case framework.SeverityCritical:
			if p.BlockOnCriticalMissing && it.Status == StatusMissing {
				return true
			}
			if p.BlockOnCriticalPartial && it.Status == StatusPartial && it.Score < p.CriticalPartialThreshold {
				return true
			}
		case framework.SeverityHigh:
			if p.BlockOnHighMissing && it.Status == StatusMissing {
				return true
			}
		}
	}
	return false
}
