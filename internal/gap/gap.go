package gap

import (
	"github.com/notelens-ai/notelens/internal/framework"
)

// Status is the per-element judgment outcome.
type Status string

const (
	StatusPresent Status = "present"
	StatusPartial Status = "partial"
	StatusMissing Status = "missing"
)

// Valid reports whether s is one of the three defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusPartial, StatusMissing:
		return true
	}
	return false
}

// Rating is the discrete four-level compliance classification.
type Rating string

const (
	RatingCompliant         Rating = "Compliant"
	RatingMinorGaps         Rating = "Minor Gaps"
	RatingRequiresAttention Rating = "Requires Attention"
	RatingNonCompliant      Rating = "Non-Compliant"
)

// Judgment is the raw output of evaluating one element against the note.
// Immutable once produced.
type Judgment struct {
	Status   Status  `json:"status"`
	Score    float64 `json:"score"`
	Evidence string  `json:"evidence,omitempty"`
	// Notes carries the judge's reasoning; populated only in verbose mode.
	Notes string `json:"notes,omitempty"`
}

// Item is the externally visible, enriched judgment for one effective
/// element: the judgment plus the effective severity/required flag and local
// remediation suggestions. One per element, in framework definition order.
type Item struct {
	ElementID   string             `json:"id"`
	Name        string             `json:"name,omitempty"`
	Status      Status             `json:"status"`
	Severity    framework.Severity `json:"severity"`
	Required    bool               `json:"required"`
	Score       float64            `json:"score"`
	Evidence    string             `json:"evidence,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	Suggestions []string           `json:"suggestions"`
}

// Stats are aggregate counts derived deterministically from the item list.
type Stats struct {
	TotalElements        int `json:"total_elements"`
	RequiredElements     int `json:"required_elements"`
	PresentCount         int `json:"present_count"`
	PartialCount         int `json:"partial_count"`
	MissingCount         int `json:"missing_count"`
	CriticalGaps         int `json:"critical_gaps"`
	HighGaps             int `json:"high_gaps"`
	MediumGaps           int `json:"medium_gaps"`
	LowGaps              int `json:"low_gaps"`
	RequiredMissingCount int `json:"required_missing_count"`
}

// Report is the terminal, immutable evaluation artifact.
type Report struct {
	FrameworkID      string            `json:"framework_id"`
	FrameworkVersion string            `json:"framework_version"`
	MeetingType      string            `json:"meeting_type,omitempty"`
	Passed           bool              `json:"passed"`
	OverallScore     float64           `json:"overall_score"`
	OverallRating    Rating            `json:"overall_rating"`
	Items            []Item            `json:"items"`
	Summary          string            `json:"summary"`
	Stats            Stats             `json:"stats"`
	PIIMasked        bool              `json:"pii_masked"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// PassPolicy configures the decision procedure converting per-element results
// into pass/fail and a rating. Immutable once constructed.
type PassPolicy struct {
	BlockOnCriticalMissing bool `yaml:"block_on_critical_missing" json:"block_on_critical_missing"`
	BlockOnCriticalPartial bool `yaml:"block_on_critical_partial" json:"block_on_critical_partial"`
	BlockOnHighMissing     bool `yaml:"block_on_high_missing" json:"block_on_high_missing"`

	// CriticalPartialThreshold is the minimum score for a required critical
	// partial element to not block. The comparison is strict: a score exactly
	// at the threshold does not block.
	CriticalPartialThreshold float64 `yaml:"critical_partial_threshold" json:"critical_partial_threshold"`

	// RequiredPassThreshold is the minimum overall score below which an
	// unblocked evaluation is rated Requires Attention.
	RequiredPassThreshold float64 `yaml:"required_pass_threshold" json:"required_pass_threshold"`

	// Score correction bounds; see CorrectedScore.
	ScoreCorrectionMissingCutoff float64 `yaml:"score_correction_missing_cutoff" json:"score_correction_missing_cutoff"`
	ScoreCorrectionPresentMin    float64 `yaml:"score_correction_present_min" json:"score_correction_present_min"`
	ScoreCorrectionPresentFloor  float64 `yaml:"score_correction_present_floor" json:"score_correction_present_floor"`
}

// DefaultPassPolicy returns the standard policy thresholds.
func DefaultPassPolicy() PassPolicy {
	return PassPolicy{
		BlockOnCriticalMissing:       true,
		BlockOnCriticalPartial:       true,
		BlockOnHighMissing:           true,
		CriticalPartialThreshold:     0.5,
		RequiredPassThreshold:        0.6,
		ScoreCorrectionMissingCutoff: 0.2,
		ScoreCorrectionPresentMin:    0.5,
		ScoreCorrectionPresentFloor:  0.7,
	}
}
