package judge

import (
	"context"
	"fmt"
	"strings"

	"github.com/notelens-ai/notelens/internal/gap"
	"github.com/notelens-ai/notelens/internal/provider"
)

const (
	elementMaxTokens = 400
	summaryMaxTokens = 300
)

// LLMJudge implements Judge over a text-generation provider. Each element is
// judged in a focused, independent call so prompts stay short and scores
// remain reliable.
type LLMJudge struct {
	provider  provider.Provider
	model     string
	maxTokens int
}

// NewLLM creates a judge backed by the given provider and model.
func NewLLM(p provider.Provider, model string, maxTokens int) *LLMJudge {
	if maxTokens <= 0 {
		maxTokens = elementMaxTokens
	}
	return &LLMJudge{provider: p, model: model, maxTokens: maxTokens}
}

// Model returns the configured model label, for report metadata.
func (j *LLMJudge) Model() string { return j.model }

// JudgeElement runs one element assessment call and parses the structured
// response. Provider failures and unparseable status lines surface as *Error.
func (j *LLMJudge) JudgeElement(ctx context.Context, req ElementRequest) (gap.Judgment, error) {
	resp, err := j.provider.Complete(ctx, &provider.Request{
		Model:     j.model,
		System:    elementSystemPrompt(req),
		Prompt:    buildElementPrompt(req),
		MaxTokens: j.maxTokens,
	})
	if err != nil {
		return gap.Judgment{}, &Error{ElementID: req.Element.ID, Err: err}
	}
	return parseElementResponse(resp.Text, req.Verbose), nil
}

// Summarize runs the single narrative-summary call over the full item list.
func (j *LLMJudge) Summarize(ctx context.Context, req SummaryRequest) (string, error) {
	resp, err := j.provider.Complete(ctx, &provider.Request{
		Model:     j.model,
		System:    "You are a regulatory compliance analyst. Write a concise (3-5 sentence) plain-English summary of the following compliance note evaluation.",
		Prompt:    buildSummaryPrompt(req),
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		return "", &Error{ElementID: SummaryStage, Err: err}
	}
	out := strings.TrimSpace(resp.Text)
	if out == "" {
		return "", &Error{ElementID: SummaryStage, Err: fmt.Errorf("empty summary response")}
	}
	return out, nil
}

func elementSystemPrompt(req ElementRequest) string {
	return fmt.Sprintf(
		"You are a regulatory compliance reviewer assessing whether a financial advice note meets a specific requirement under %s severity. "+
			"Be precise and conservative: only mark an element as 'present' if it is clearly and adequately documented. "+
			"Partial credit ('partial') applies when the topic is raised but insufficiently documented; 'missing' means there is no meaningful mention whatsoever.",
		strings.ToUpper(string(req.Element.Severity)),
	)
}

func buildElementPrompt(req ElementRequest) string {
	el := req.Element

	var b strings.Builder

	requiredLabel := "RECOMMENDED"
	if el.Required {
		requiredLabel = "REQUIRED"
	}
	fmt.Fprintf(&b, "Requirement (%s): %s\n", requiredLabel, strings.TrimSpace(el.Description))

	if el.Guidance != "" {
		fmt.Fprintf(&b, "\nEvaluation guidance:\n%s\n", strings.TrimSpace(el.Guidance))
	}
	if len(el.Examples) > 0 {
		b.WriteString("\nEXAMPLES (phrases that would count as evidence):\n")
		for _, ex := range el.Examples {
			fmt.Fprintf(&b, "- %q\n", ex)
		}
	}
	if len(el.AntiPatterns) > 0 {
		b.WriteString("\nANTI-PATTERNS (these do NOT constitute compliant evidence):\n")
		for _, ap := range el.AntiPatterns {
			fmt.Fprintf(&b, "- %q\n", ap)
		}
	}
	if req.CustomInstruction != "" {
		fmt.Fprintf(&b, "\nAdditional instructions:\n%s\n", strings.TrimSpace(req.CustomInstruction))
	}

	fmt.Fprintf(&b, "\nNote text:\n---\n%s\n---\n\n", req.Note)
	b.WriteString("Assess this requirement and respond using ONLY this exact format (no other text):\n")
	b.WriteString("STATUS: present|partial|missing\n")
	b.WriteString("SCORE: <float 0.0-1.0>\n")
	b.WriteString("EVIDENCE: <direct quote or paraphrase from the note, or \"None found\">\n")
	b.WriteString("NOTES: <brief explanation of your assessment>")

	return b.String()
}

func buildSummaryPrompt(req SummaryRequest) string {
	var gaps []string
	present := 0
	for _, it := range req.Items {
		if it.Status == gap.StatusPresent {
			present++
			continue
		}
		gaps = append(gaps, fmt.Sprintf("  - [%s] %s: %s", strings.ToUpper(string(it.Severity)), it.ElementID, it.Status))
	}
	gapsText := "  (none)"
	if len(gaps) > 0 {
		gapsText = strings.Join(gaps, "\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Framework: %s (v%s)\n", req.FrameworkName, req.FrameworkVersion)
	fmt.Fprintf(&b, "Elements assessed: %d\n", len(req.Items))
	fmt.Fprintf(&b, "Elements present: %d/%d\n", present, len(req.Items))
	fmt.Fprintf(&b, "Gaps identified:\n%s\n\n", gapsText)
	b.WriteString("Write a professional, factual summary suitable for an audit trail. ")
	b.WriteString("Do not invent information beyond what is provided above.")
	return b.String()
}
