package judge

import (
	"context"
	"fmt"

	"github.com/notelens-ai/notelens/internal/framework"
	"github.com/notelens-ai/notelens/internal/gap"
)

// SummaryStage names the narrative-summary call in judgment errors.
const SummaryStage = "summary"

// ElementRequest carries the isolated inputs for one element judgment.
type ElementRequest struct {
	Note              string
	Element           framework.EffectiveElement
	CustomInstruction string
	Verbose           bool
}

// SummaryRequest carries the inputs for the single narrative-summary call.
type SummaryRequest struct {
	FrameworkName    string
	FrameworkVersion string
	Items            []gap.Item
}

// Judge produces per-element judgments and the narrative report summary.
// Implementations must treat every call as independent; no state is shared
// between element judgments.
type Judge interface {
	JudgeElement(ctx context.Context, req ElementRequest) (gap.Judgment, error)
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// Error reports a failed judgment call. The evaluation that triggered it
// fails atomically; partial reports are never produced.
type Error struct {
	ElementID string // element id, or SummaryStage for the summary call
	Err       error
}

func (e *Error) Error() string {
	if e.ElementID == SummaryStage {
		return fmt.Sprintf("judgment failed for summary: %v", e.Err)
	}
	return fmt.Sprintf("judgment failed for element %q: %v", e.ElementID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
