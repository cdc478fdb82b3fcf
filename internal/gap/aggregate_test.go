package gap

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/notelens-ai/notelens/internal/framework"
)

func item(id string, status Status, score float64, sev framework.Severity, required bool) Item {
	return Item{ElementID: id, Status: status, Score: score, Severity: sev, Required: required}
}

func TestOverallScoreEmptyItemsFails(t *testing.T) {
	_, err := OverallScore(nil, DefaultPassPolicy())
	if err == nil {
		t.Fatal("expected error for empty item list")
	}
	var ve *framework.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *framework.ValidationError, got %T", err)
	}
}

func TestOverallScoreWeighting(t *testing.T) {
	p := DefaultPassPolicy()

	// required weighs 2x, optional 1x: (1.0*2 + 0.4*1) / 3 = 0.8
	items := []Item{
		item("a", StatusPresent, 1.0, framework.SeverityCritical, true),
		item("b", StatusPartial, 0.4, framework.SeverityLow, false),
	}
	got, err := OverallScore(items, p)
	if err != nil {
		t.Fatalf("overall score: %v", err)
	}
	if math.Abs(got-0.8) > 1e-9 {
		t.Fatalf("overall score = %v, want 0.8", got)
	}
}

func TestOverallScoreAllRequiredEqualsUnweightedMean(t *testing.T) {
	p := DefaultPassPolicy()
	items := []Item{
		item("a", StatusPresent, 0.9, framework.SeverityCritical, true),
		item("b", StatusPartial, 0.5, framework.SeverityHigh, true),
		item("c", StatusPartial, 0.4, framework.SeverityMedium, true),
	}
	got, err := OverallScore(items, p)
	if err != nil {
		t.Fatalf("overall score: %v", err)
	}
	want := (0.9 + 0.5 + 0.4) / 3
	if math.Abs(got-math.Round(want*10000)/10000) > 1e-9 {
		t.Fatalf("overall score = %v, want unweighted mean %v", got, want)
	}
}

func TestOverallScoreBounds(t *testing.T) {
	p := DefaultPassPolicy()

	perfect := []Item{
		item("a", StatusPresent, 1.0, framework.SeverityCritical, true),
		item("b", StatusPresent, 1.0, framework.SeverityLow, false),
	}
	got, err := OverallScore(perfect, p)
	if err != nil || got != 1.0 {
		t.Fatalf("perfect items: score=%v err=%v, want 1.0", got, err)
	}

	// out-of-range judge scores are clamped before weighting
	wild := []Item{
		item("a", StatusPartial, 1.7, framework.SeverityHigh, true),
		item("b", StatusPartial, -0.3, framework.SeverityHigh, true),
	}
	got, err = OverallScore(wild, p)
	if err != nil {
		t.Fatalf("overall score: %v", err)
	}
	if got < 0 || got > 1 {
		t.Fatalf("overall score %v outside [0,1]", got)
	}
}

func TestOverallScoreIdempotent(t *testing.T) {
	p := DefaultPassPolicy()
	items := []Item{
		item("a", StatusPresent, 0.83, framework.SeverityCritical, true),
		item("b", StatusMissing, 0.0, framework.SeverityMedium, false),
	}
	first, err := OverallScore(items, p)
	if err != nil {
		t.Fatalf("overall score: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := OverallScore(items, p)
		if err != nil || again != first {
			t.Fatalf("run %d: score=%v err=%v, want %v", i, again, err, first)
		}
	}
}

func TestCorrectedScore(t *testing.T) {
	p := DefaultPassPolicy()
	cases := []struct {
		name string
		it   Item
		want float64
	}{
		{"missing above cutoff zeroed", item("a", StatusMissing, 0.9, framework.SeverityHigh, true), 0.0},
		{"missing at cutoff kept", item("a", StatusMissing, 0.2, framework.SeverityHigh, true), 0.2},
		{"missing below cutoff kept", item("a", StatusMissing, 0.1, framework.SeverityHigh, true), 0.1},
		{"present below min floored", item("a", StatusPresent, 0.3, framework.SeverityHigh, true), 0.7},
		{"present at min kept", item("a", StatusPresent, 0.5, framework.SeverityHigh, true), 0.5},
		{"present above min kept", item("a", StatusPresent, 0.9, framework.SeverityHigh, true), 0.9},
		{"partial untouched", item("a", StatusPartial, 0.05, framework.SeverityHigh, true), 0.05},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CorrectedScore(tc.it, p); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("CorrectedScore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCorrectedScoreCustomThresholds(t *testing.T) {
	p := DefaultPassPolicy()
	p.ScoreCorrectionMissingCutoff = 0.05
	p.ScoreCorrectionPresentMin = 0.8
	p.ScoreCorrectionPresentFloor = 0.85

	if got := CorrectedScore(item("a", StatusMissing, 0.1, framework.SeverityHigh, true), p); got != 0.0 {
		t.Fatalf("missing 0.1 with cutoff 0.05: got %v, want 0", got)
	}
	if got := CorrectedScore(item("a", StatusPresent, 0.7, framework.SeverityHigh, true), p); got != 0.85 {
		t.Fatalf("present 0.7 with min 0.8 floor 0.85: got %v, want 0.85", got)
	}
}

func TestCorrectionNeverMutatesDisplayedScore(t *testing.T) {
	p := DefaultPassPolicy()
	it := item("a", StatusMissing, 0.9, framework.SeverityCritical, true)
	_ = CorrectedScore(it, p)
	if _, err := OverallScore([]Item{it}, p); err != nil {
		t.Fatalf("overall score: %v", err)
	}
	if it.Score != 0.9 {
		t.Fatalf("displayed score changed to %v", it.Score)
	}
}

func TestComputeStats(t *testing.T) {
	items := []Item{
		item("a", StatusPresent, 1.0, framework.SeverityCritical, true),
		item("b", StatusPartial, 0.5, framework.SeverityCritical, true),
		item("c", StatusMissing, 0.0, framework.SeverityHigh, true),
		item("d", StatusMissing, 0.0, framework.SeverityMedium, false),
		item("e", StatusPartial, 0.6, framework.SeverityLow, false),
	}
	got := ComputeStats(items)
	want := Stats{
		TotalElements:        5,
		RequiredElements:     3,
		PresentCount:         1,
		PartialCount:         2,
		MissingCount:         2,
		CriticalGaps:         1,
		HighGaps:             1,
		MediumGaps:           1,
		LowGaps:              1,
		RequiredMissingCount: 2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
}
