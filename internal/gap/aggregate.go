package gap

import (
	"math"

	"github.com/notelens-ai/notelens/internal/framework"
)

// CorrectedScore returns the aggregation input for one item. When the
// judge's score contradicts its categorical status, the score is nudged
// toward the status before it enters the weighted mean:
//
//   - missing with score strictly above the missing cutoff contributes 0.0;
//   - present with score strictly below the present minimum contributes at
//     least the present floor.
//
// The correction affects only the aggregate; the item's displayed score is
// never changed. Boundary equality is left uncorrected.
func CorrectedScore(it Item, p PassPolicy) float64 {
	score := clamp01(it.Score)
	switch it.Status {
	case StatusMissing:
		if score > p.ScoreCorrectionMissingCutoff {
			return 0.0
		}
	case StatusPresent:
		if score < p.ScoreCorrectionPresentMin {
			return math.Max(score, p.ScoreCorrectionPresentFloor)
		}
	}
	return score
}

// OverallScore computes the weighted mean of corrected item scores: required
// elements weigh 2, optional elements 1. The result is rounded to 4 decimals
// and clamped to [0,1]. An empty item list is a degenerate framework and
// fails with a ValidationError rather than dividing by zero.
func OverallScore(items []Item, p PassPolicy) (float64, error) {
	if len(items) == 0 {
		return 0, &framework.ValidationError{Source: "<aggregation>", Msg: "no items to aggregate"}
	}

	var weightedSum, totalWeight float64
	for _, it := range items {
		weight := 1.0
		if it.Required {
			weight = 2.0
		}
		weightedSum += CorrectedScore(it, p) * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0, &framework.ValidationError{Source: "<aggregation>", Msg: "total weight is zero"}
	}

	return clamp01(math.Round(weightedSum/totalWeight*10000) / 10000), nil
}

// ComputeStats derives the aggregate counts in a single pass over items.
func ComputeStats(items []Item) Stats {
	var s Stats
	s.TotalElements = len(items)
	for _, it := range items {
		if it.Required {
			s.RequiredElements++
		}
		switch it.Status {
		case StatusPresent:
			s.PresentCount++
		case StatusPartial:
			s.PartialCount++
		case StatusMissing:
			s.MissingCount++
		}
		if it.Status != StatusPresent {
			switch it.Severity {
			case framework.SeverityCritical:
				s.CriticalGaps++
			case framework.SeverityHigh:
				s.HighGaps++
			case framework.SeverityMedium:
				s.MediumGaps++
			case framework.SeverityLow:
				s.LowGaps++
			}
			if it.Required {
				s.RequiredMissingCount++
			}
		}
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
