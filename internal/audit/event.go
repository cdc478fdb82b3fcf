// Package audit records one canonical JSON event per evaluation and
// delivers it to configured sinks off the request path.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/notelens-ai/notelens/internal/gap"
)

// EventVersion identifies the audit event schema.
const EventVersion = "notelens.audit.v1"

// Event is the canonical audit record for a single evaluation. It carries
// verdict and counts only; the note text and evidence never enter the trail.
type Event struct {
	Version      string    `json:"version"`
	EvaluationID string    `json:"evaluation_id"`
	Timestamp    time.Time `json:"timestamp"`
	Workspace    string    `json:"workspace,omitempty"`

	FrameworkID      string     `json:"framework_id"`
	FrameworkVersion string     `json:"framework_version"`
	MeetingType      string     `json:"meeting_type,omitempty"`
	Rating           gap.Rating `json:"rating"`
	Passed           bool       `json:"passed"`
	OverallScore     float64    `json:"overall_score"`
	Stats            gap.Stats  `json:"stats"`
	PIIMasked        bool       `json:"pii_masked"`
	DurationMs       int64      `json:"duration_ms"`
}

// NewEvent builds an audit event from a finished report.
func NewEvent(report *gap.Report, workspace string, duration time.Duration) *Event {
	return &Event{
		Version:          EventVersion,
		EvaluationID:     uuid.NewString(),
		Timestamp:        time.Now().UTC(),
		Workspace:        workspace,
		FrameworkID:      report.FrameworkID,
		FrameworkVersion: report.FrameworkVersion,
		MeetingType:      report.MeetingType,
		Rating:           report.OverallRating,
		Passed:           report.Passed,
		OverallScore:     report.OverallScore,
		Stats:            report.Stats,
		PIIMasked:        report.PIIMasked,
		DurationMs:       duration.Milliseconds(),
	}
}
