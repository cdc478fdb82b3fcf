// Package evaluator orchestrates a full note evaluation: framework
// resolution, optional PII masking, parallel per-element judgment,
// aggregation, rating, and report assembly.
package evaluator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/notelens-ai/notelens/internal/framework"
	"github.com/notelens-ai/notelens/internal/gap"
	"github.com/notelens-ai/notelens/internal/judge"
	"github.com/notelens-ai/notelens/internal/logging"
	"github.com/notelens-ai/notelens/internal/pii"
	"github.com/notelens-ai/notelens/internal/telemetry"
)

const defaultConcurrency = 4

// Request carries everything one evaluation needs. Framework is a reference
// (file path or builtin id) used only when Definition is nil; a caller that
// already holds a validated Definition passes it directly.
type Request struct {
	Note              string
	Framework         string
	Definition        *framework.Definition
	MeetingType       string
	MaskPII           bool
	Verbose           bool
	CustomInstruction string

	// Policy overrides the default pass policy when set.
	Policy *gap.PassPolicy

	// Metadata is merged into the report; caller keys win over system keys.
	Metadata map[string]string
}

// Options configures an Evaluator.
type Options struct {
	Masker        *pii.Masker
	Concurrency   int
	ModelLabel    string
	ProviderLabel string

	// Telemetry is optional; a nil provider records nothing.
	Telemetry *telemetry.Provider
}

// Evaluator runs evaluations against a single judge. Safe for concurrent use.
type Evaluator struct {
	judge         judge.Judge
	masker        *pii.Masker
	concurrency   int
	modelLabel    string
	providerLabel string
	telemetry     *telemetry.Provider
	log           *slog.Logger
}

func New(j judge.Judge, opts Options) *Evaluator {
	masker := opts.Masker
	if masker == nil {
		masker = pii.NewMasker(nil, nil)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Evaluator{
		judge:         j,
		masker:        masker,
		concurrency:   concurrency,
		modelLabel:    opts.ModelLabel,
		providerLabel: opts.ProviderLabel,
		telemetry:     opts.Telemetry,
		log:           logging.New("evaluator"),
	}
}

// Evaluate runs the full pipeline and returns an immutable report. Any
// element or summary failure fails the whole evaluation; a partial report is
// never returned.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*gap.Report, error) {
	start := time.Now()

	ctx, span := e.telemetry.Tracer().Start(ctx, "evaluator.Evaluate")
	defer span.End()

	if strings.TrimSpace(req.Note) == "" {
		return nil, &framework.ValidationError{Source: "<request>", Msg: "note text is empty"}
	}

	def := req.Definition
	if def == nil {
		loaded, err := framework.Load(req.Framework)
		if err != nil {
			return nil, err
		}
		def = loaded
	} else if err := framework.Validate(def); err != nil {
		return nil, err
	}

	elements := def.EffectiveElements(req.MeetingType)
	if len(elements) == 0 {
		return nil, &framework.ValidationError{Source: def.ID, Msg: "framework has no elements to evaluate"}
	}

	note := req.Note
	masked := false
	if req.MaskPII {
		maskedNote, didMask, err := e.masker.Mask(note)
		if err != nil {
			return nil, err
		}
		note = maskedNote
		masked = didMask
	}

	policy := gap.DefaultPassPolicy()
	if req.Policy != nil {
		policy = *req.Policy
	}

	judgments := make([]gap.Judgment, len(elements))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, el := range elements {
		g.Go(func() error {
			js := time.Now()
			j, err := e.judge.JudgeElement(gctx, judge.ElementRequest{
				Note:              note,
				Element:           el,
				CustomInstruction: req.CustomInstruction,
				Verbose:           req.Verbose,
			})
			e.telemetry.RecordJudgmentDuration(def.ID, float64(time.Since(js).Milliseconds()))
			if err != nil {
				return err
			}
			judgments[i] = j
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]gap.Item, len(elements))
	for i, el := range elements {
		j := judgments[i]
		items[i] = gap.Item{
			ElementID:   el.ID,
			Name:        el.DisplayName(),
			Status:      j.Status,
			Severity:    el.Severity,
			Required:    el.Required,
			Score:       j.Score,
			Evidence:    j.Evidence,
			Notes:       j.Notes,
			Suggestions: gap.Suggestions(el, j.Status),
		}
	}

	overall, err := gap.OverallScore(items, policy)
	if err != nil {
		return nil, err
	}
	stats := gap.ComputeStats(items)
	rating, passed := gap.Classify(items, overall, policy)

	summary, err := e.judge.Summarize(ctx, judge.SummaryRequest{
		FrameworkName:    def.Name,
		FrameworkVersion: def.Version,
		Items:            items,
	})
	if err != nil {
		return nil, err
	}

	report := &gap.Report{
		FrameworkID:      def.ID,
		FrameworkVersion: def.Version,
		MeetingType:      req.MeetingType,
		Passed:           passed,
		OverallScore:     overall,
		OverallRating:    rating,
		Items:            items,
		Summary:          summary,
		Stats:            stats,
		PIIMasked:        masked,
		Metadata:         e.buildMetadata(def, req.Metadata, start),
	}

	e.log.Info("evaluation complete",
		"framework", def.ID,
		"meeting_type", req.MeetingType,
		"elements", len(items),
		"rating", string(rating),
		"passed", passed,
		"score", overall,
		"pii_masked", masked,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// buildMetadata merges system keys with caller pairs; caller keys win.
func (e *Evaluator) buildMetadata(def *framework.Definition, caller map[string]string, start time.Time) map[string]string {
	md := map[string]string{
		"framework_version": def.Version,
		"evaluation_time":   start.UTC().Format(time.RFC3339),
	}
	if e.modelLabel != "" {
		md["judge_model"] = e.modelLabel
	}
	if e.providerLabel != "" {
		md["judge_provider"] = e.providerLabel
	}
	for k, v := range caller {
		md[k] = v
	}
	return md
}
